// Package wordclue is the describe-and-guess game. One player gets a secret word and
// types a clue, the other guesses; each phase runs against a countdown.
package wordclue

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/park285/playdate-bot/internal/dialogue"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/game"
)

type Phase string

const (
	PhaseSetup  Phase = "setup"
	PhaseClue   Phase = "clue"
	PhaseGuess  Phase = "guess"
	PhaseResult Phase = "result"
)

type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

const (
	GuessPoints        = 5
	DefaultClueSeconds = 60
	DefaultGuessSecs   = 30
)

// Rules are the per-phase countdown lengths in seconds.
type Rules struct {
	ClueSeconds  int
	GuessSeconds int
}

func DefaultRules() Rules { return Rules{ClueSeconds: DefaultClueSeconds, GuessSeconds: DefaultGuessSecs} }

// State is one game. Current is the clue giver of the round in progress; the other
// player guesses. Score is this game's own tally and resets on restart.
type State struct {
	Phase    Phase
	Current  domain.PlayerID
	Word     string
	Clue     string
	Guess    string
	TimeLeft int
	Outcome  Outcome
	Rounds   int
	Score    domain.Tally
	Beat     dialogue.Event
}

// Effects: Tick arms the one-second countdown timer, Stop disarms it.
type Effects struct {
	Awards []game.Award
	Tick   bool
	Stop   bool
}

func Initial() State {
	return State{Phase: PhaseSetup, Current: domain.Player1, Beat: dialogue.Event{Kind: dialogue.WordIntro, Actor: domain.Player1}}
}

// Guesser is the player who is not giving the clue.
func (s State) Guesser() domain.PlayerID { return s.Current.Other() }

// Start draws word for the round. Only valid in setup.
func (s State) Start(word string, r Rules) (State, Effects, bool) {
	if s.Phase != PhaseSetup || strings.TrimSpace(word) == "" {
		return s, Effects{}, false
	}
	s.Phase = PhaseClue
	s.Word = word
	s.Clue, s.Guess, s.Outcome = "", "", OutcomeNone
	s.TimeLeft = r.ClueSeconds
	s.Beat = dialogue.Event{Kind: dialogue.WordRoundStart, Actor: s.Current, Word: word}
	return s, Effects{Tick: true}, true
}

// SubmitClue stores a non-blank clue and hands over to the guesser.
func (s State) SubmitClue(text string, r Rules) (State, Effects, bool) {
	text = strings.TrimSpace(text)
	if s.Phase != PhaseClue || text == "" {
		return s, Effects{}, false
	}
	s.Phase = PhaseGuess
	s.Clue = text
	s.TimeLeft = r.GuessSeconds
	s.Beat = dialogue.Event{Kind: dialogue.WordClueGiven, Actor: s.Current, Word: s.Word, Clue: text}
	return s, Effects{Tick: true}, true
}

// SubmitGuess compares a non-blank guess with the word, ignoring case and surrounding
// whitespace. A correct guess pays the guesser.
func (s State) SubmitGuess(text string) (State, Effects, bool) {
	text = strings.TrimSpace(text)
	if s.Phase != PhaseGuess || text == "" {
		return s, Effects{}, false
	}
	s.Guess = text
	if Same(text, s.Word) {
		return s.finish(OutcomeCorrect, dialogue.WordCorrect)
	}
	return s.finish(OutcomeIncorrect, dialogue.WordIncorrect)
}

func (s State) finish(o Outcome, beat dialogue.Kind) (State, Effects, bool) {
	s.Phase = PhaseResult
	s.Outcome = o
	s.TimeLeft = 0
	s.Rounds++
	s.Beat = dialogue.Event{Kind: beat, Actor: s.Current, Word: s.Word, Clue: s.Clue}
	eff := Effects{Stop: true}
	if o == OutcomeCorrect {
		s.Score = s.Score.Add(s.Guesser(), GuessPoints)
		eff.Awards = []game.Award{{Player: s.Guesser(), Points: GuessPoints}}
	}
	return s, eff, true
}

// Tick counts one second down in the clue or guess phase and handles expiry.
func (s State) Tick() (State, Effects, bool) {
	if (s.Phase != PhaseClue && s.Phase != PhaseGuess) || s.TimeLeft <= 0 {
		return s, Effects{}, false
	}
	s.TimeLeft--
	if s.TimeLeft > 0 {
		return s, Effects{Tick: true}, true
	}
	if s.Phase == PhaseGuess {
		return s.finish(OutcomeIncorrect, dialogue.WordGuessTimeout)
	}
	// no clue in time: the round is dropped and the turn passes
	giver := s.Current
	s = s.toSetup()
	s.Beat = dialogue.Event{Kind: dialogue.WordClueTimeout, Actor: giver}
	return s, Effects{Stop: true}, true
}

// Next moves from result to the next round's setup, passing the clue to the other player.
func (s State) Next() (State, Effects, bool) {
	if s.Phase != PhaseResult {
		return s, Effects{}, false
	}
	s = s.toSetup()
	s.Beat = dialogue.Event{Kind: dialogue.WordNextRound, Actor: s.Current}
	return s, Effects{Stop: true}, true
}

func (s State) toSetup() State {
	s.Phase = PhaseSetup
	s.Current = s.Current.Other()
	s.Word, s.Clue, s.Guess = "", "", ""
	s.Outcome = OutcomeNone
	s.TimeLeft = 0
	return s
}

// Restart clears this game's score and rounds and returns to setup with player1 giving
// the first clue.
func (s State) Restart() (State, Effects, bool) {
	n := Initial()
	n.Beat = dialogue.Event{Kind: dialogue.WordRestart, Actor: domain.Player1}
	return n, Effects{Stop: true}, true
}

// Same reports whether a guess names word. A Caser is stateful, so each call folds with
// its own.
func Same(guess, word string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(guess)) == fold.String(strings.TrimSpace(word))
}
