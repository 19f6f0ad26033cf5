// Package memorymatch is the card-flipping pairs game: sixteen face-down cards,
// two flips per turn, a turn passes on a miss.
package memorymatch

import (
	"time"

	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/dialogue"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/game"
)

const (
	DeckSize    = content.SymbolCount * 2
	TotalPairs  = content.SymbolCount
	MatchPoints = 2
	WinBonus    = 10
)

type Phase string

const (
	PhasePlaying  Phase = "playing"
	PhaseGameOver Phase = "gameOver"
)

type Card struct {
	ID      int    `json:"id"`
	Symbol  string `json:"symbol"`
	Flipped bool   `json:"isFlipped"`
	Matched bool   `json:"isMatched"`
}

// State is one deal. Flipped holds card ids in flip order; two entries means a
// resolution is pending and further flips are ignored.
type State struct {
	Cards        []Card
	Flipped      []int
	MatchedPairs int
	Current      domain.PlayerID
	Moves        domain.Tally
	Phase        Phase
	Winner       domain.PlayerID // empty on a tie
	Beat         dialogue.Event
}

// Rules are the timing and scoring knobs of a deal.
type Rules struct {
	MatchDelay time.Duration
	MissDelay  time.Duration
	Tie        game.TiePolicy
}

func DefaultRules() Rules {
	return Rules{MatchDelay: 500 * time.Millisecond, MissDelay: time.Second, Tie: game.TieSplit}
}

// WithDefaults fills each unset field from DefaultRules. A zero delay would leave a
// flipped pair pending forever.
func (r Rules) WithDefaults() Rules {
	d := DefaultRules()
	if r.MatchDelay <= 0 {
		r.MatchDelay = d.MatchDelay
	}
	if r.MissDelay <= 0 {
		r.MissDelay = d.MissDelay
	}
	if r.Tie == "" {
		r.Tie = d.Tie
	}
	return r
}

// Effects are what a transition asks the driver to do.
type Effects struct {
	Awards []game.Award
	// Delay arms the resolution timer when positive.
	Delay time.Duration
}

// NewDeck builds two cards per symbol (ids 2i and 2i+1) and shuffles them.
func NewDeck(symbols []string, p *content.Picker) []Card {
	cards := make([]Card, 0, len(symbols)*2)
	for i, s := range symbols {
		cards = append(cards, Card{ID: i * 2, Symbol: s}, Card{ID: i*2 + 1, Symbol: s})
	}
	p.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return cards
}

// Deal starts a fresh game on an already shuffled deck.
func Deal(cards []Card, beat dialogue.Kind) State {
	return State{
		Cards:   append([]Card(nil), cards...),
		Current: domain.Player1,
		Phase:   PhasePlaying,
		Beat:    dialogue.Event{Kind: beat, Actor: domain.Player1},
	}
}

func (s State) clone() State {
	s.Cards = append([]Card(nil), s.Cards...)
	s.Flipped = append([]int(nil), s.Flipped...)
	return s
}

// Pending reports whether two cards are face-up awaiting resolution.
func (s State) Pending() bool { return len(s.Flipped) >= 2 }

func (s State) position(id int) int {
	for i, c := range s.Cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Flip turns the card at pos (0-based) face-up. It is a no-op when the game is over,
// a pair is pending, pos is out of range, or the card is already up or matched.
// Opening the second card counts a move for the current player and asks for the
// resolution delay.
func (s State) Flip(pos int, r Rules) (State, Effects, bool) {
	if s.Phase != PhasePlaying || s.Pending() || pos < 0 || pos >= len(s.Cards) {
		return s, Effects{}, false
	}
	if c := s.Cards[pos]; c.Flipped || c.Matched {
		return s, Effects{}, false
	}
	n := s.clone()
	n.Cards[pos].Flipped = true
	n.Flipped = append(n.Flipped, n.Cards[pos].ID)
	if !n.Pending() {
		return n, Effects{}, true
	}
	n.Moves = n.Moves.Add(n.Current, 1)
	a, b := n.Cards[n.position(n.Flipped[0])], n.Cards[n.position(n.Flipped[1])]
	if a.Symbol == b.Symbol {
		return n, Effects{Delay: r.MatchDelay}, true
	}
	return n, Effects{Delay: r.MissDelay}, true
}

// Resolve settles the pending pair. Without a pending pair nothing changes.
func (s State) Resolve(r Rules) (State, Effects, bool) {
	if !s.Pending() || s.Phase != PhasePlaying {
		return s, Effects{}, false
	}
	n := s.clone()
	i, j := n.position(n.Flipped[0]), n.position(n.Flipped[1])
	n.Flipped = nil

	if n.Cards[i].Symbol != n.Cards[j].Symbol {
		n.Cards[i].Flipped = false
		n.Cards[j].Flipped = false
		mover := n.Current
		n.Current = mover.Other()
		n.Beat = dialogue.Event{Kind: dialogue.MemoryMiss, Actor: mover}
		return n, Effects{}, true
	}

	n.Cards[i].Matched = true
	n.Cards[j].Matched = true
	n.MatchedPairs++
	eff := Effects{Awards: []game.Award{{Player: n.Current, Points: MatchPoints}}}
	n.Beat = dialogue.Event{Kind: dialogue.MemoryMatch, Actor: n.Current}
	if n.MatchedPairs < TotalPairs {
		return n, eff, true
	}

	n.Phase = PhaseGameOver
	m1, m2 := n.Moves.Player1, n.Moves.Player2
	switch {
	case m1 == m2:
		n.Winner = ""
		n.Beat = dialogue.Event{Kind: dialogue.MemoryTie, Actor: domain.Player1}
		if r.Tie == game.TiePlayer1 {
			eff.Awards = append(eff.Awards, game.Award{Player: domain.Player1, Points: WinBonus})
		} else {
			eff.Awards = append(eff.Awards,
				game.Award{Player: domain.Player1, Points: WinBonus / 2},
				game.Award{Player: domain.Player2, Points: WinBonus / 2})
		}
	default:
		n.Winner = domain.Player1
		if m2 < m1 {
			n.Winner = domain.Player2
		}
		n.Beat = dialogue.Event{Kind: dialogue.MemoryWin, Actor: n.Winner}
		eff.Awards = append(eff.Awards, game.Award{Player: n.Winner, Points: WinBonus})
	}
	return n, eff, true
}
