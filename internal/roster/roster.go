// Package roster owns the two character records of a room and their persistence.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/kvstore"
)

var (
	ErrUnknownField  = errors.New("roster: unknown field (name, hair, skin, outfit, accessory)")
	ErrUnknownPlayer = errors.New("roster: unknown player")
)

type Roster struct {
	kv     kvstore.Store
	scope  string
	pack   *content.Pack
	picker *content.Picker
	log    *zap.Logger

	mu   sync.RWMutex
	cast domain.Cast
}

func Key(scope string, p domain.PlayerID) string {
	return "playdate:" + scope + ":character:" + string(p)
}

// Load reads both characters, falling back to the defaults for missing or broken records.
func Load(ctx context.Context, kv kvstore.Store, scope string, pack *content.Pack, picker *content.Picker, log *zap.Logger) *Roster {
	if log == nil {
		log = zap.NewNop()
	}
	if picker == nil {
		picker = content.NewPicker(nil)
	}
	if pack == nil {
		pack = content.Default()
	}
	r := &Roster{kv: kv, scope: scope, pack: pack, picker: picker, log: log, cast: domain.DefaultCast()}
	if kv == nil {
		return r
	}
	for _, p := range domain.Players {
		raw, err := kv.Get(ctx, Key(scope, p))
		if errors.Is(err, kvstore.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Warn("character_load_failed", zap.String("player", string(p)), zap.Error(err))
			continue
		}
		var c domain.Character
		if err := json.Unmarshal(raw, &c); err != nil {
			log.Warn("character_decode_failed", zap.String("player", string(p)), zap.Error(err))
			continue
		}
		c.ID = p
		if err := c.Validate(); err != nil {
			log.Warn("character_invalid", zap.String("player", string(p)), zap.Error(err))
			continue
		}
		r.cast[p.Index()] = c
	}
	return r
}

func (r *Roster) Cast() domain.Cast {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cast
}

func (r *Roster) Get(p domain.PlayerID) domain.Character {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cast.Of(p)
}

// Update sets one field after validating it and saves the record.
func (r *Roster) Update(ctx context.Context, p domain.PlayerID, field, value string) (domain.Character, error) {
	if !p.Valid() {
		return domain.Character{}, fmt.Errorf("%q: %w", p, ErrUnknownPlayer)
	}
	value = strings.TrimSpace(value)
	r.mu.Lock()
	c := r.cast.Of(p)
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "name":
		if err := domain.ValidName(value); err != nil {
			r.mu.Unlock()
			return c, err
		}
		c.Name = value
	case "hair", "haircolor":
		if err := domain.ValidColor(value); err != nil {
			r.mu.Unlock()
			return c, err
		}
		c.HairColor = strings.ToUpper(value)
	case "skin", "skincolor":
		if err := domain.ValidColor(value); err != nil {
			r.mu.Unlock()
			return c, err
		}
		c.SkinColor = strings.ToUpper(value)
	case "outfit", "outfitcolor":
		if err := domain.ValidColor(value); err != nil {
			r.mu.Unlock()
			return c, err
		}
		c.OutfitColor = strings.ToUpper(value)
	case "accessory":
		a, ok := domain.ParseAccessory(value)
		if !ok {
			r.mu.Unlock()
			return c, domain.ErrInvalidAccessory
		}
		c.Accessory = a
	default:
		r.mu.Unlock()
		return c, ErrUnknownField
	}
	r.cast[p.Index()] = c
	r.mu.Unlock()

	r.save(ctx, c)
	return c, nil
}

// Randomize redraws colors and accessory from the palette. The name is kept.
func (r *Roster) Randomize(ctx context.Context, p domain.PlayerID) domain.Character {
	r.mu.Lock()
	c := r.cast.Of(p)
	pal := r.pack.Palette
	if v := r.picker.Pick(pal.Hair); v != "" {
		c.HairColor = v
	}
	if v := r.picker.Pick(pal.Skin); v != "" {
		c.SkinColor = v
	}
	if v := r.picker.Pick(pal.Outfit); v != "" {
		c.OutfitColor = v
	}
	if a, ok := domain.ParseAccessory(r.picker.Pick(pal.Accessories)); ok {
		c.Accessory = a
	}
	r.cast[p.Index()] = c
	r.mu.Unlock()

	r.save(ctx, c)
	return c
}

// save is best-effort; the in-memory record stays authoritative.
func (r *Roster) save(ctx context.Context, c domain.Character) {
	if r.kv == nil {
		return
	}
	b, err := json.Marshal(c)
	if err != nil {
		r.log.Warn("character_encode_failed", zap.Error(err))
		return
	}
	if err := r.kv.Set(ctx, Key(r.scope, c.ID), b); err != nil {
		r.log.Warn("character_persist_failed", zap.String("player", string(c.ID)), zap.Error(err))
	}
}
