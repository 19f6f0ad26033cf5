// Package pairing relays one game between two rooms through Redis.
package pairing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/obslog"
)

const qrSize = 256

type Manager struct {
	rdb   *redis.Client
	store *store
	now   func() time.Time
}

func NewManager(rdb *redis.Client) *Manager {
	return &Manager{rdb: rdb, store: &store{rdb: rdb}, now: time.Now}
}

// Create opens a lobby hosted by hostID and allocates a join code.
func (m *Manager) Create(ctx context.Context, game domain.GameKind, hostRoom, hostID string) (*CreateResult, error) {
	if !game.Valid() || strings.TrimSpace(hostRoom) == "" || strings.TrimSpace(hostID) == "" {
		return nil, ErrInvalidArgs
	}
	sess := &Session{
		ID:        uuid.NewString(),
		Game:      game,
		State:     StateLobby,
		HostID:    hostID,
		HostRoom:  hostRoom,
		CreatedAt: m.now().UTC(),
	}
	for i := 0; i < 5; i++ {
		c, err := codeGen()
		if err != nil {
			return nil, err
		}
		ok, err := m.rdb.SetNX(ctx, m.store.keyCode(c), sess.ID, ttlSession).Result()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		sess.Code = c
		if err := m.store.save(ctx, sess); err != nil {
			return nil, err
		}
		if err := m.rdb.SAdd(ctx, m.store.keyParticipants(sess.ID), hostID).Err(); err != nil {
			return nil, err
		}
		_ = m.rdb.Expire(ctx, m.store.keyParticipants(sess.ID), ttlSession).Err()

		qr, err := qrcode.Encode(c, qrcode.Medium, qrSize)
		if err != nil {
			obslog.L().Warn("pairing_qr_error", zap.String("code", c), zap.Error(err))
		}
		obslog.L().Info("pairing_create", zap.String("code", c), zap.String("session_id", sess.ID), zap.String("room", hostRoom), zap.String("game", string(game)))
		return &CreateResult{Session: sess, QR: qr}, nil
	}
	return nil, fmt.Errorf("failed to allocate join code")
}

// Join seats guestID as player2. A third participant gets ErrFull.
func (m *Manager) Join(ctx context.Context, code, guestRoom, guestID string) (*Session, error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.TrimSpace(guestRoom) == "" || strings.TrimSpace(guestID) == "" {
		return nil, ErrInvalidArgs
	}
	id, err := m.store.idByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrSessionGone
	}
	sess, err := m.store.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionGone
	}
	if sess.HostID == guestID || sess.GuestID == guestID {
		return sess, nil
	}
	if sess.State != StateLobby {
		return nil, ErrNotLobby
	}

	partKey := m.store.keyParticipants(id)
	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cnt, err := tx.SCard(ctx, partKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if cnt >= 2 {
			return ErrFull
		}
		pipe := tx.TxPipeline()
		pipe.SAdd(ctx, partKey, guestID)
		pipe.Expire(ctx, partKey, ttlSession)
		_, pErr := pipe.Exec(ctx)
		return pErr
	}, partKey)
	if err != nil {
		obslog.L().Warn("pairing_join_error", zap.String("code", code), zap.String("room", guestRoom), zap.String("user_id", guestID), zap.Error(err))
		return nil, err
	}

	sess.GuestID, sess.GuestRoom = guestID, guestRoom
	sess.State = StateActive
	sess.LastUpdated = m.now().UTC()
	if err := m.store.save(ctx, sess); err != nil {
		return nil, err
	}
	obslog.L().Info("pairing_join", zap.String("code", code), zap.String("session_id", id), zap.String("room", guestRoom))
	return sess, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := m.store.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionGone
	}
	return sess, nil
}

// Publish stores payload as the session's current state and fans it out to subscribers.
func (m *Manager) Publish(ctx context.Context, id, from string, payload []byte) error {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := sess.Seat(from); !ok {
		return ErrNotMember
	}

	at := m.now().UTC()
	sess.CurrentState = append([]byte(nil), payload...)
	sess.LastUpdated = at
	if err := m.store.save(ctx, sess); err != nil {
		return err
	}

	raw, err := json.Marshal(Update{SessionID: id, From: from, Payload: payload, At: at})
	if err != nil {
		return err
	}
	return m.rdb.Publish(ctx, m.store.channel(id), raw).Err()
}

// Subscribe streams updates for id until ctx ends. The channel is closed afterwards.
func (m *Manager) Subscribe(ctx context.Context, id string) (<-chan Update, error) {
	ps := m.rdb.Subscribe(ctx, m.store.channel(id))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	out := make(chan Update, 16)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var u Update
				if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
					obslog.L().Warn("pairing_update_decode", zap.String("session_id", id), zap.Error(err))
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Leave closes the session for both sides and frees the code.
func (m *Manager) Leave(ctx context.Context, id, userID string) error {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := sess.Seat(userID); !ok {
		return ErrNotMember
	}
	sess.State = StateClosed
	sess.LastUpdated = m.now().UTC()
	if err := m.store.save(ctx, sess); err != nil {
		return err
	}
	_ = m.rdb.Del(ctx, m.store.keyCode(sess.Code)).Err()
	obslog.L().Info("pairing_leave", zap.String("session_id", id), zap.String("user_id", userID))
	return nil
}
