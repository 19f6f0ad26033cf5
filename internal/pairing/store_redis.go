package pairing

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ttlSession = 24 * time.Hour
)

type store struct{ rdb *redis.Client }

func (s *store) keySession(id string) string      { return "pd:session:" + strings.TrimSpace(id) }
func (s *store) keyParticipants(id string) string { return s.keySession(id) + ":participants" }
func (s *store) keyCode(code string) string       { return "pd:code:" + strings.ToUpper(strings.TrimSpace(code)) }
func (s *store) channel(id string) string         { return s.keySession(id) + ":updates" }

func (s *store) save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.keySession(sess.ID), raw, ttlSession).Err(); err != nil {
		return err
	}
	_ = s.rdb.Expire(ctx, s.keyParticipants(sess.ID), ttlSession).Err()
	return nil
}

func (s *store) load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, s.keySession(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *store) idByCode(ctx context.Context, code string) (string, error) {
	id, err := s.rdb.Get(ctx, s.keyCode(code)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}

// codeGen returns `PD-` + 6 upper alnum.
func codeGen() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return fmt.Sprintf("PD-%s", string(b)), nil
}
