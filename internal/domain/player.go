package domain

import (
	"math"
	"strings"
)

// PlayerID identifies one of the two seats. There is never a third.
type PlayerID string

const (
	Player1 PlayerID = "player1"
	Player2 PlayerID = "player2"
)

// Players lists both seats in turn order.
var Players = [2]PlayerID{Player1, Player2}

func (p PlayerID) Valid() bool { return p == Player1 || p == Player2 }

// Other returns the opposite seat.
func (p PlayerID) Other() PlayerID {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// Index is 0 for player1 and 1 for player2.
func (p PlayerID) Index() int {
	if p == Player2 {
		return 1
	}
	return 0
}

// ParsePlayer accepts "1", "2", "p1", "player2" and similar.
func ParsePlayer(s string) (PlayerID, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "p1", "player1":
		return Player1, true
	case "2", "p2", "player2":
		return Player2, true
	default:
		return "", false
	}
}

// Tally holds one integer per player (scores, move counts).
type Tally struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

func (t Tally) Get(p PlayerID) int {
	if p == Player2 {
		return t.Player2
	}
	return t.Player1
}

// Add returns a copy with n added to p, saturating at math.MaxInt and math.MinInt.
func (t Tally) Add(p PlayerID, n int) Tally {
	if p == Player2 {
		t.Player2 = addSat(t.Player2, n)
	} else {
		t.Player1 = addSat(t.Player1, n)
	}
	return t
}

func addSat(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

func (t Tally) Total() int { return addSat(t.Player1, t.Player2) }
