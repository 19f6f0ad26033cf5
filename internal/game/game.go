// Package game holds what the three mini-game engines share: score awards, the tie
// policy and the handle the shell keeps for whichever engine is live.
package game

import (
	"errors"
	"strings"

	"github.com/park285/playdate-bot/internal/domain"
)

var ErrClosed = errors.New("game: engine closed")

// Award is a score event an engine hands to the session store.
type Award struct {
	Player domain.PlayerID
	Points int
}

// ScoreFunc receives awards. Calls are additive.
type ScoreFunc func(player domain.PlayerID, points int)

// Pay delivers awards in order, skipping empty ones.
func Pay(f ScoreFunc, awards []Award) {
	if f == nil {
		return
	}
	for _, a := range awards {
		if a.Points > 0 && a.Player.Valid() {
			f(a.Player, a.Points)
		}
	}
}

// TiePolicy decides the memory-match bonus on equal move counts.
type TiePolicy string

const (
	// TieSplit pays half the bonus to each player.
	TieSplit TiePolicy = "split"
	// TiePlayer1 pays the whole bonus to player1.
	TiePlayer1 TiePolicy = "player1"
)

func ParseTiePolicy(s string) (TiePolicy, bool) {
	switch TiePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", TieSplit:
		return TieSplit, true
	case TiePlayer1:
		return TiePlayer1, true
	}
	return "", false
}

// Engine is the part of every engine the shell needs regardless of kind.
type Engine interface {
	Kind() domain.GameKind
	// Close cancels pending timers; no state changes after it returns.
	Close()
}
