package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const MaxCharacterName = 12

type Accessory string

const (
	AccessoryGlasses  Accessory = "glasses"
	AccessoryHat      Accessory = "hat"
	AccessoryBowtie   Accessory = "bowtie"
	AccessoryNecklace Accessory = "necklace"
	AccessoryNone     Accessory = "none"
)

var Accessories = []Accessory{AccessoryGlasses, AccessoryHat, AccessoryBowtie, AccessoryNecklace, AccessoryNone}

func ParseAccessory(s string) (Accessory, bool) {
	a := Accessory(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Accessories {
		if v == a {
			return a, true
		}
	}
	return "", false
}

var (
	ErrNameEmpty        = errors.New("character name is empty")
	ErrNameTooLong      = fmt.Errorf("character name longer than %d characters", MaxCharacterName)
	ErrInvalidColor     = errors.New("color must be #RRGGBB")
	ErrInvalidAccessory = errors.New("unknown accessory")
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Character is a player's avatar record. Engines read it for names only.
type Character struct {
	ID          PlayerID  `json:"id"`
	Name        string    `json:"name"`
	HairColor   string    `json:"hairColor"`
	SkinColor   string    `json:"skinColor"`
	OutfitColor string    `json:"outfitColor"`
	Accessory   Accessory `json:"accessory"`
}

// DefaultCharacter returns the stock avatar for a seat.
func DefaultCharacter(p PlayerID) Character {
	if p == Player2 {
		return Character{ID: Player2, Name: "Player 2", HairColor: "#3A86FF", SkinColor: "#F9DCC4", OutfitColor: "#8BD3DD", Accessory: AccessoryHat}
	}
	return Character{ID: Player1, Name: "Player 1", HairColor: "#6B3FA0", SkinColor: "#FFD3B6", OutfitColor: "#FF8BA7", Accessory: AccessoryGlasses}
}

func ValidName(name string) error {
	n := strings.TrimSpace(name)
	if n == "" {
		return ErrNameEmpty
	}
	if utf8.RuneCountInString(n) > MaxCharacterName {
		return ErrNameTooLong
	}
	return nil
}

func ValidColor(c string) error {
	if !hexColor.MatchString(strings.TrimSpace(c)) {
		return ErrInvalidColor
	}
	return nil
}

func (c Character) Validate() error {
	if !c.ID.Valid() {
		return fmt.Errorf("character id %q: not a player", c.ID)
	}
	if err := ValidName(c.Name); err != nil {
		return err
	}
	for _, col := range []string{c.HairColor, c.SkinColor, c.OutfitColor} {
		if err := ValidColor(col); err != nil {
			return fmt.Errorf("%s: %w", col, err)
		}
	}
	if _, ok := ParseAccessory(string(c.Accessory)); !ok {
		return ErrInvalidAccessory
	}
	return nil
}

// Cast is the pair of characters injected into an engine.
type Cast [2]Character

func DefaultCast() Cast { return Cast{DefaultCharacter(Player1), DefaultCharacter(Player2)} }

func (c Cast) Of(p PlayerID) Character { return c[p.Index()] }

func (c Cast) Name(p PlayerID) string {
	if n := strings.TrimSpace(c[p.Index()].Name); n != "" {
		return n
	}
	return DefaultCharacter(p).Name
}
