package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/kvstore"
)

// KVPersister stores the session as JSON under playdate:<scope>:session.
type KVPersister struct {
	kv  kvstore.Store
	key string
}

func NewKVPersister(kv kvstore.Store, scope string) *KVPersister {
	return &KVPersister{kv: kv, key: Key(scope)}
}

func Key(scope string) string { return "playdate:" + scope + ":session" }

func (p *KVPersister) Load(ctx context.Context) (domain.SessionState, bool, error) {
	raw, err := p.kv.Get(ctx, p.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return domain.SessionState{}, false, nil
	}
	if err != nil {
		return domain.SessionState{}, false, err
	}
	var st domain.SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.SessionState{}, false, fmt.Errorf("decode %s: %w", p.key, err)
	}
	return st, true, nil
}

func (p *KVPersister) Save(ctx context.Context, st domain.SessionState) error {
	if st.Achievements == nil {
		st.Achievements = []string{}
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return p.kv.Set(ctx, p.key, b)
}
