// Package dialogue maps game events to the short scripted beat shown under a game.
// A beat is computed from the event alone; nothing accumulates between events.
package dialogue

import (
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/msgcat"
)

type Kind string

const (
	MemoryIntro   Kind = "memory.intro"
	MemoryRestart Kind = "memory.restart"
	MemoryMatch   Kind = "memory.match"
	MemoryMiss    Kind = "memory.miss"
	MemoryWin     Kind = "memory.win"
	MemoryTie     Kind = "memory.tie"

	WordIntro        Kind = "word.intro"
	WordRoundStart   Kind = "word.round_start"
	WordClueGiven    Kind = "word.clue_given"
	WordCorrect      Kind = "word.correct"
	WordIncorrect    Kind = "word.incorrect"
	WordClueTimeout  Kind = "word.clue_timeout"
	WordGuessTimeout Kind = "word.guess_timeout"
	WordNextRound    Kind = "word.next_round"
	WordRestart      Kind = "word.restart"

	DrawIntro    Kind = "draw.intro"
	DrawSave     Kind = "draw.save"
	DrawClear    Kind = "draw.clear"
	DrawDownload Kind = "draw.download"
)

// Event is what an engine reports. Actor is the player the event is about: the mover,
// the clue giver, the winner or the player who just finished drawing.
type Event struct {
	Kind  Kind
	Actor domain.PlayerID
	Word  string
	Clue  string
}

type speaker int

const (
	actor speaker = iota
	other
	first
	second
)

type line struct {
	key      string
	who      speaker
	emotion  domain.Emotion
	fallback func(Event) string
}

func fixed(text string) func(Event) string { return func(Event) string { return text } }

func clueText(ev Event) string { return ev.Clue }

func wrongGuess(ev Event) string { return "No, that's not it. The word was: " + ev.Word }

func guessTimeout(ev Event) string { return "Time's up! The word was: " + ev.Word }

var rules = map[Kind][]line{
	MemoryIntro: {
		{"dialogue.memory.intro.first", first, domain.EmotionHappy, fixed("Ready to test your memory?")},
		{"dialogue.memory.intro.second", second, domain.EmotionHappy, fixed("Let's see who can remember more!")},
	},
	MemoryRestart: {
		{"dialogue.memory.intro.first", first, domain.EmotionHappy, fixed("Ready to test your memory?")},
		{"dialogue.memory.intro.second", second, domain.EmotionHappy, fixed("Let's see who can remember more!")},
	},
	MemoryMatch: {
		{"dialogue.memory.match.first", actor, domain.EmotionHappy, fixed("Nice! I found a match!")},
	},
	MemoryMiss: {
		{"dialogue.memory.miss.first", actor, domain.EmotionSad, fixed("Oops, no match!")},
		{"dialogue.memory.miss.second", other, domain.EmotionHappy, fixed("My turn now!")},
	},
	MemoryWin: {
		{"dialogue.memory.win.first", actor, domain.EmotionHappy, fixed("I won! My memory is better.")},
		{"dialogue.memory.win.second", other, domain.EmotionThinking, fixed("Good game! One more round?")},
	},
	MemoryTie: {
		{"dialogue.memory.tie.first", first, domain.EmotionSurprised, fixed("It's a tie!")},
		{"dialogue.memory.tie.second", second, domain.EmotionHappy, fixed("Great game! Let's play again.")},
	},

	WordIntro: {
		{"dialogue.word.intro.first", first, domain.EmotionHappy, fixed("Let's see how well we can describe words!")},
		{"dialogue.word.intro.second", second, domain.EmotionHappy, fixed("I'm ready to guess! This will be fun.")},
	},
	WordRoundStart: {
		{"dialogue.word.round_start.first", actor, domain.EmotionThinking, fixed("I need to describe the word without saying it!")},
	},
	WordClueGiven: {
		{"dialogue.word.clue_given.first", actor, domain.EmotionHappy, clueText},
		{"dialogue.word.clue_given.second", other, domain.EmotionThinking, fixed("Let me think about what this could be...")},
	},
	WordCorrect: {
		{"dialogue.word.correct.first", other, domain.EmotionHappy, fixed("Yes! That's correct!")},
		{"dialogue.word.correct.second", actor, domain.EmotionHappy, fixed("Great job guessing!")},
	},
	WordIncorrect: {
		{"dialogue.word.incorrect.first", other, domain.EmotionSad, wrongGuess},
		{"dialogue.word.incorrect.second", actor, domain.EmotionThinking, fixed("Maybe my clue wasn't clear enough.")},
	},
	WordClueTimeout: {
		{"dialogue.word.clue_timeout.first", actor, domain.EmotionSad, fixed("Time's up! I couldn't think of a good clue.")},
	},
	WordGuessTimeout: {
		{"dialogue.word.guess_timeout.first", other, domain.EmotionThinking, guessTimeout},
	},
	WordNextRound: {
		{"dialogue.word.next_round.first", actor, domain.EmotionHappy, fixed("My turn to give a clue!")},
	},
	WordRestart: {
		{"dialogue.word.restart.first", first, domain.EmotionHappy, fixed("Let's start fresh!")},
		{"dialogue.word.restart.second", second, domain.EmotionHappy, fixed("I'm ready for a new game!")},
	},

	DrawIntro: {
		{"dialogue.draw.intro.first", first, domain.EmotionHappy, fixed("Let's create something beautiful together!")},
		{"dialogue.draw.intro.second", second, domain.EmotionHappy, fixed("I can't wait to see what we draw!")},
	},
	DrawSave: {
		{"dialogue.draw.save.first", actor, domain.EmotionHappy, fixed("I'm finished with my part!")},
		{"dialogue.draw.save.second", other, domain.EmotionHappy, fixed("Now it's my turn to add to our masterpiece!")},
	},
	DrawClear: {
		{"dialogue.draw.clear.first", actor, domain.EmotionHappy, fixed("Let's start over!")},
	},
	DrawDownload: {
		{"dialogue.draw.download.first", first, domain.EmotionHappy, fixed("We should frame this!")},
		{"dialogue.draw.download.second", second, domain.EmotionHappy, fixed("It's our first masterpiece together!")},
	},
}

// Emitter renders beats through a message catalog. A nil catalog uses built-in text.
type Emitter struct {
	cat *msgcat.Catalog
}

func NewEmitter(cat *msgcat.Catalog) *Emitter { return &Emitter{cat: cat} }

// For returns the one or two lines for ev, in display order. Unknown kinds yield nil.
func (e *Emitter) For(ev Event) []domain.DialogueLine {
	rs, ok := rules[ev.Kind]
	if !ok {
		return nil
	}
	act := ev.Actor
	if !act.Valid() {
		act = domain.Player1
	}
	data := map[string]any{"Word": ev.Word, "Clue": ev.Clue}
	out := make([]domain.DialogueLine, 0, len(rs))
	for _, r := range rs {
		text := r.fallback(ev)
		if e != nil && e.cat != nil {
			text = e.cat.RenderOr(r.key, data, text)
		}
		out = append(out, domain.DialogueLine{Speaker: r.who.resolve(act), Text: text, Emotion: r.emotion})
	}
	return out
}

func (s speaker) resolve(act domain.PlayerID) domain.PlayerID {
	switch s {
	case other:
		return act.Other()
	case first:
		return domain.Player1
	case second:
		return domain.Player2
	default:
		return act
	}
}
