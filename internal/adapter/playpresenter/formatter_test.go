package playpresenter

import (
	"errors"
	"strings"
	"testing"

	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/memorymatch"
	"github.com/park285/playdate-bot/internal/wordclue"
	"github.com/park285/playdate-bot/pkg/playdto"
)

type prefix string

func (p prefix) Prefix() string { return string(p) }

func TestBoardGrid(t *testing.T) {
	cards := make([]playdto.Card, 16)
	for i := range cards {
		cards[i] = playdto.Card{Pos: i + 1, Symbol: "🐱"}
	}
	cards[0].FaceUp = true
	cards[5].Matched = true
	got := Board(cards)
	rows := strings.Split(got, "\n")
	if len(rows) != 4 {
		t.Fatalf("rows = %d\n%s", len(rows), got)
	}
	if rows[0] != " 1│ 🐱 ?? ?? ??" || rows[1] != " 5│ ?? ✓ ?? ??" || !strings.HasPrefix(rows[3], "13│") {
		t.Fatalf("board:\n%s", got)
	}
}

func TestMemorySceneText(t *testing.T) {
	st := memorymatch.State{Current: domain.Player2, Phase: memorymatch.PhasePlaying, MatchedPairs: 3, Moves: domain.Tally{Player1: 4, Player2: 2}}
	for i := 0; i < 16; i++ {
		st.Cards = append(st.Cards, memorymatch.Card{ID: i, Symbol: "🐶"})
	}
	cast := domain.DefaultCast()
	snap := memorymatch.Snapshot{ID: "e1", State: st, Cast: cast, Lines: []domain.DialogueLine{{Speaker: domain.Player1, Text: "Yay!", Emotion: domain.EmotionHappy}}}

	f := NewFormatter(prefix("!"), nil)
	got := f.Scene(MemoryScene(snap))
	for _, want := range []string{"Pairs 3/8", "moves 4:2", cast.Name(domain.Player2) + "'s turn", cast.Name(domain.Player1) + " (happy): Yay!"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestWordSceneMasksWordWhileGuessing(t *testing.T) {
	st := wordclue.State{Phase: wordclue.PhaseGuess, Current: domain.Player1, Word: "Sunset", Clue: "evening sky", TimeLeft: 12}
	scene := WordScene(wordclue.Snapshot{State: st, Cast: domain.DefaultCast()})
	if scene.Word.Word != "" {
		t.Fatalf("word leaked in guess phase")
	}
	text := NewFormatter(prefix("!"), nil).Scene(scene)
	if strings.Contains(text, "Sunset") || !strings.Contains(text, "evening sky") || !strings.Contains(text, "12s") {
		t.Fatalf("text:\n%s", text)
	}

	st.Phase = wordclue.PhaseResult
	st.Outcome = wordclue.OutcomeCorrect
	text = NewFormatter(prefix("!"), nil).Scene(WordScene(wordclue.Snapshot{State: st, Cast: domain.DefaultCast()}))
	if !strings.Contains(text, "Correct! The word was Sunset · !next") {
		t.Fatalf("result text:\n%s", text)
	}
}

func TestScoreAndHelp(t *testing.T) {
	f := NewFormatter(prefix("#"), nil)
	sb := ToDTOScoreboard(domain.DefaultCast(), domain.SessionState{Score: domain.Tally{Player1: 12, Player2: 7}, Achievements: []string{"Century"}})
	got := f.Score(sb)
	if !strings.Contains(got, "12 : 7") || !strings.Contains(got, "Century") {
		t.Fatalf("score:\n%s", got)
	}
	if !strings.Contains(f.Help(), "#play") {
		t.Fatalf("help missing prefix")
	}
}

func TestPresenterSendsTextThenImage(t *testing.T) {
	var calls []string
	p := NewPresenter(
		func(room, msg string) error { calls = append(calls, "text:"+room); return nil },
		func(room, b64 string) error { calls = append(calls, "image:"+b64); return nil },
	)
	if err := p.Scene("r", "hello", &playdto.Scene{Image: []byte("hi")}); err != nil {
		t.Fatalf("Scene: %v", err)
	}
	if len(calls) != 2 || calls[1] != "image:aGk=" {
		t.Fatalf("calls = %v", calls)
	}

	boom := errors.New("boom")
	p = NewPresenter(func(string, string) error { return boom }, nil)
	if err := p.Scene("r", "x", nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
