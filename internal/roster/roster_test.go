package roster

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/kvstore"
)

func TestDefaultsWhenEmpty(t *testing.T) {
	r := Load(context.Background(), kvstore.NewMemory(), "room", nil, nil, nil)
	if r.Get(domain.Player2).Accessory != domain.AccessoryHat {
		t.Fatalf("player2 default = %+v", r.Get(domain.Player2))
	}
}

func TestUpdatePersists(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	r := Load(ctx, kv, "room", nil, nil, nil)
	if _, err := r.Update(ctx, domain.Player1, "name", "  Mina "); err != nil {
		t.Fatalf("name: %v", err)
	}
	if _, err := r.Update(ctx, domain.Player1, "hair", "#fb8500"); err != nil {
		t.Fatalf("hair: %v", err)
	}
	again := Load(ctx, kv, "room", nil, nil, nil)
	c := again.Get(domain.Player1)
	if c.Name != "Mina" || c.HairColor != "#FB8500" {
		t.Fatalf("reloaded %+v", c)
	}
	if again.Get(domain.Player2).Name != "Player 2" {
		t.Fatalf("player2 changed")
	}
}

func TestUpdateRejects(t *testing.T) {
	ctx := context.Background()
	r := Load(ctx, nil, "room", nil, nil, nil)
	cases := []struct {
		field, value string
		want         error
	}{
		{"name", "abcdefghijklm", domain.ErrNameTooLong},
		{"name", "   ", domain.ErrNameEmpty},
		{"skin", "peach", domain.ErrInvalidColor},
		{"accessory", "cape", domain.ErrInvalidAccessory},
		{"shoes", "red", ErrUnknownField},
	}
	for _, c := range cases {
		if _, err := r.Update(ctx, domain.Player2, c.field, c.value); !errors.Is(err, c.want) {
			t.Fatalf("%s=%q: got %v want %v", c.field, c.value, err, c.want)
		}
	}
	if r.Get(domain.Player2) != domain.DefaultCharacter(domain.Player2) {
		t.Fatalf("rejected update mutated the record")
	}
}

func TestRandomizeKeepsName(t *testing.T) {
	ctx := context.Background()
	pack := content.Default()
	r := Load(ctx, nil, "room", pack, content.NewPicker(rand.New(rand.NewSource(3))), nil)
	c := r.Randomize(ctx, domain.Player1)
	if c.Name != "Player 1" {
		t.Fatalf("name changed: %q", c.Name)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("randomized character invalid: %v", err)
	}
}
