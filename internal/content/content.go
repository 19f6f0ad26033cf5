// Package content holds the static lists the games draw from: card symbols, secret
// words, drawing prompts, the game listing and the character palettes.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/park285/playdate-bot/internal/domain"
)

//go:embed content.yaml
var defaultPack []byte

// SymbolCount is the number of distinct card faces in a memory deck.
const SymbolCount = 8

type Game struct {
	ID          domain.GameKind `mapstructure:"id"`
	Title       string          `mapstructure:"title"`
	Difficulty  string          `mapstructure:"difficulty"`
	Description string          `mapstructure:"description"`
	Aliases     []string        `mapstructure:"aliases"`
}

type Palette struct {
	Hair        []string `mapstructure:"hair"`
	Skin        []string `mapstructure:"skin"`
	Outfit      []string `mapstructure:"outfit"`
	Accessories []string `mapstructure:"accessories"`
}

type Pack struct {
	Symbols []string `mapstructure:"symbols"`
	Words   []string `mapstructure:"words"`
	Prompts []string `mapstructure:"prompts"`
	Games   []Game   `mapstructure:"games"`
	Palette Palette  `mapstructure:"palette"`
}

// Load reads the embedded pack and merges the YAML file at path over it when path is set.
// Lists in the override replace the embedded ones wholesale.
func Load(path string) (*Pack, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultPack)); err != nil {
		return nil, fmt.Errorf("read embedded content: %w", err)
	}
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merge content %s: %w", path, err)
		}
	}

	var p Pack
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Default is the embedded pack; it panics only if the embedded YAML is broken.
func Default() *Pack {
	p, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("content: embedded pack: %v", err))
	}
	return p
}

func (p *Pack) Validate() error {
	if len(p.Symbols) != SymbolCount {
		return fmt.Errorf("content needs exactly %d symbols, got %d", SymbolCount, len(p.Symbols))
	}
	seen := make(map[string]bool, len(p.Symbols))
	for _, s := range p.Symbols {
		if strings.TrimSpace(s) == "" {
			return errors.New("content has a blank symbol")
		}
		if seen[s] {
			return fmt.Errorf("duplicate symbol %q", s)
		}
		seen[s] = true
	}
	if err := nonBlank("words", p.Words); err != nil {
		return err
	}
	if err := nonBlank("prompts", p.Prompts); err != nil {
		return err
	}
	for _, g := range p.Games {
		if !g.ID.Valid() {
			return fmt.Errorf("unknown game id %q", g.ID)
		}
	}
	for _, list := range [][]string{p.Palette.Hair, p.Palette.Skin, p.Palette.Outfit} {
		for _, c := range list {
			if err := domain.ValidColor(c); err != nil {
				return fmt.Errorf("palette %s: %w", c, err)
			}
		}
	}
	for _, a := range p.Palette.Accessories {
		if _, ok := domain.ParseAccessory(a); !ok {
			return fmt.Errorf("palette accessory %q: %w", a, domain.ErrInvalidAccessory)
		}
	}
	return nil
}

func nonBlank(what string, list []string) error {
	if len(list) == 0 {
		return fmt.Errorf("content has no %s", what)
	}
	for i, s := range list {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s[%d] is blank", what, i)
		}
	}
	return nil
}

// Game looks a game up by id or alias.
func (p *Pack) Game(name string) (Game, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, g := range p.Games {
		if strings.ToLower(string(g.ID)) == key {
			return g, true
		}
		for _, a := range g.Aliases {
			if strings.ToLower(a) == key {
				return g, true
			}
		}
	}
	return Game{}, false
}

// Picker draws uniformly with replacement. Safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPicker(rnd *rand.Rand) *Picker {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Picker{rnd: rnd}
}

// Pick returns a random element, or "" for an empty list.
func (p *Picker) Pick(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[p.Intn(len(list))]
}

func (p *Picker) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Intn(n)
}

// Shuffle applies a Fisher-Yates shuffle through swap.
func (p *Picker) Shuffle(n int, swap func(i, j int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := n - 1; i > 0; i-- {
		j := p.rnd.Intn(i + 1)
		swap(i, j)
	}
}
