package playpresenter

import (
	"github.com/park285/playdate-bot/internal/canvas"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/memorymatch"
	"github.com/park285/playdate-bot/internal/wordclue"
	"github.com/park285/playdate-bot/pkg/playdto"
)

func ToDTOSeat(c domain.Character) playdto.Seat {
	return playdto.Seat{
		ID:        string(c.ID),
		Name:      c.Name,
		Hair:      c.HairColor,
		Skin:      c.SkinColor,
		Outfit:    c.OutfitColor,
		Accessory: string(c.Accessory),
	}
}

func toDTOCast(cast domain.Cast) [2]playdto.Seat {
	return [2]playdto.Seat{ToDTOSeat(cast.Of(domain.Player1)), ToDTOSeat(cast.Of(domain.Player2))}
}

func toDTOLines(cast domain.Cast, lines []domain.DialogueLine) []playdto.Line {
	if len(lines) == 0 {
		return nil
	}
	out := make([]playdto.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, playdto.Line{
			Speaker:     string(l.Speaker),
			SpeakerName: cast.Name(l.Speaker),
			Text:        l.Text,
			Emotion:     string(l.Emotion),
		})
	}
	return out
}

func toPair(t domain.Tally) [2]int { return [2]int{t.Player1, t.Player2} }

func MemoryScene(s memorymatch.Snapshot) *playdto.Scene {
	st := s.State
	board := &playdto.MemoryBoard{
		Cards:        make([]playdto.Card, 0, len(st.Cards)),
		MatchedPairs: st.MatchedPairs,
		TotalPairs:   memorymatch.TotalPairs,
		Moves:        toPair(st.Moves),
		Current:      string(st.Current),
		Over:         st.Phase == memorymatch.PhaseGameOver,
		Winner:       string(st.Winner),
	}
	for i, c := range st.Cards {
		board.Cards = append(board.Cards, playdto.Card{Pos: i + 1, Symbol: c.Symbol, FaceUp: c.Flipped, Matched: c.Matched})
	}
	return &playdto.Scene{
		EngineID: s.ID,
		Game:     string(domain.GameMemoryMatch),
		Cast:     toDTOCast(s.Cast),
		Lines:    toDTOLines(s.Cast, s.Lines),
		Memory:   board,
	}
}

// WordScene hides the secret word during the guess phase.
func WordScene(s wordclue.Snapshot) *playdto.Scene {
	st := s.State
	round := &playdto.WordRound{
		Phase:     string(st.Phase),
		ClueGiver: string(st.Current),
		Guesser:   string(st.Guesser()),
		Clue:      st.Clue,
		Guess:     st.Guess,
		TimeLeft:  st.TimeLeft,
		Outcome:   string(st.Outcome),
		Rounds:    st.Rounds,
		Score:     toPair(st.Score),
	}
	switch st.Phase {
	case wordclue.PhaseClue, wordclue.PhaseResult:
		round.Word = st.Word
	}
	return &playdto.Scene{
		EngineID: s.ID,
		Game:     string(domain.GameWordGuess),
		Cast:     toDTOCast(s.Cast),
		Lines:    toDTOLines(s.Cast, s.Lines),
		Word:     round,
	}
}

func CanvasScene(s canvas.Snapshot) *playdto.Scene {
	st := s.State
	return &playdto.Scene{
		EngineID: s.ID,
		Game:     string(domain.GameDrawTogether),
		Cast:     toDTOCast(s.Cast),
		Lines:    toDTOLines(s.Cast, s.Lines),
		Canvas: &playdto.CanvasView{
			Prompt:  st.Prompt,
			Current: string(st.Current),
			View:    st.View + 1,
			Count:   len(st.Gallery),
		},
	}
}

func ToDTOScoreboard(cast domain.Cast, st domain.SessionState) playdto.Scoreboard {
	return playdto.Scoreboard{
		Names:        [2]string{cast.Name(domain.Player1), cast.Name(domain.Player2)},
		Scores:       toPair(st.Score),
		Achievements: append([]string(nil), st.Achievements...),
	}
}

func ToDTOHistory(cast domain.Cast, results []domain.Result) []playdto.HistoryEntry {
	out := make([]playdto.HistoryEntry, 0, len(results))
	for _, r := range results {
		e := playdto.HistoryEntry{
			Game:    string(r.Game),
			Outcome: r.Outcome,
			Detail:  r.Detail,
			Score:   toPair(r.Score),
			EndedAt: r.EndedAt,
		}
		if r.Winner.Valid() {
			e.Winner = cast.Name(r.Winner)
		}
		out = append(out, e)
	}
	return out
}
