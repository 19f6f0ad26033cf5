package playpresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/msgcat"
	"github.com/park285/playdate-bot/internal/util"
	"github.com/park285/playdate-bot/pkg/playdto"
)

const (
	boardColumns  = 4
	faceDown      = "??"
	matchedMarker = "✓"
	historyHeader = "📜 Recent games"
)

// PrefixProvider exposes the command prefix shown in hints.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders DTOs into chat text blocks using the message catalog.
type Formatter struct {
	prefixProvider PrefixProvider
	cat            *msgcat.Catalog
}

func NewFormatter(provider PrefixProvider, cat *msgcat.Catalog) *Formatter {
	if cat == nil {
		cat = msgcat.Default()
	}
	return &Formatter{prefixProvider: provider, cat: cat}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

func (f *Formatter) ui(key string, data map[string]any, fallback string) string {
	if data == nil {
		data = map[string]any{}
	}
	data["P"] = f.Prefix()
	return f.cat.RenderOr("ui."+key, data, fallback)
}

func (f *Formatter) Help() string {
	return f.ui("help", nil, "Try "+f.Prefix()+"games")
}

func (f *Formatter) Unknown() string { return f.ui("unknown", nil, "Unknown command.") }

func (f *Formatter) NoGame() string { return f.ui("no_game", nil, "No game is running.") }

func (f *Formatter) Invalid(reason string) string {
	return f.ui("invalid_input", map[string]any{"Reason": reason}, "⚠️ "+reason)
}

func (f *Formatter) GameStarted(title string) string {
	return f.ui("game_started", map[string]any{"Title": title}, "▶ "+title)
}

func (f *Formatter) GameLeft() string { return f.ui("game_left", nil, "⏹") }

func (f *Formatter) Score(sb playdto.Scoreboard) string {
	var b strings.Builder
	b.WriteString(f.ui("score", map[string]any{
		"Name1": sb.Names[0], "Score1": sb.Scores[0], "Score2": sb.Scores[1], "Name2": sb.Names[1],
	}, fmt.Sprintf("%s %d : %d %s", sb.Names[0], sb.Scores[0], sb.Scores[1], sb.Names[1])))
	b.WriteByte('\n')
	if len(sb.Achievements) == 0 {
		b.WriteString(f.ui("no_achievements", nil, ""))
	} else {
		b.WriteString(f.ui("achievements", map[string]any{"List": strings.Join(sb.Achievements, ", ")}, strings.Join(sb.Achievements, ", ")))
	}
	return b.String()
}

func (f *Formatter) Unlocked(names []string) string {
	lines := make([]string, 0, len(names))
	for _, n := range names {
		lines = append(lines, f.ui("achievement_unlocked", map[string]any{"Name": n}, "🎉 "+n))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Games(games []content.Game) string {
	lines := []string{f.ui("title", nil, "Playdate")}
	for i, g := range games {
		lines = append(lines, f.ui("game_line", map[string]any{
			"N": i + 1, "Title": g.Title, "Difficulty": g.Difficulty, "Description": g.Description,
		}, fmt.Sprintf("%d. %s", i+1, g.Title)))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Character(seat int, s playdto.Seat) string {
	return f.ui("character", map[string]any{
		"Seat": seat, "Name": s.Name, "Hair": s.Hair, "Skin": s.Skin, "Outfit": s.Outfit, "Accessory": s.Accessory,
	}, fmt.Sprintf("%d. %s", seat, s.Name))
}

func (f *Formatter) Characters(cast [2]playdto.Seat) string {
	return f.Character(1, cast[0]) + "\n" + f.Character(2, cast[1])
}

func (f *Formatter) CharacterUpdated(name string) string {
	return f.ui("character_updated", map[string]any{"Name": name}, name)
}

func (f *Formatter) DrawSaved(count int) string {
	return f.ui("draw_saved", map[string]any{"Count": count}, fmt.Sprintf("Saved #%d", count))
}

func (f *Formatter) Downloaded(path string) string {
	return f.ui("draw_downloaded", map[string]any{"Path": path}, path)
}

func (f *Formatter) OnlineCreated(code string) string {
	return f.ui("online_created", map[string]any{"Code": code}, code)
}

func (f *Formatter) OnlineJoined(code string) string {
	return f.ui("online_joined", map[string]any{"Code": code}, code)
}

func (f *Formatter) OnlineUpdate(text string) string {
	return f.ui("online_update", map[string]any{"Text": text}, text)
}

func (f *Formatter) OnlineLeft() string { return f.ui("online_left", nil, "🔌") }

func (f *Formatter) History(entries []playdto.HistoryEntry) string {
	if len(entries) == 0 {
		return f.ui("history_empty", nil, "No finished games yet")
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, historyHeader)
	for _, e := range entries {
		outcome := e.Outcome
		if e.Winner != "" {
			outcome += " · " + e.Winner
		}
		if e.Detail != "" {
			outcome += " · " + e.Detail
		}
		lines = append(lines, f.ui("history_line", map[string]any{
			"When": formatShortTime(e.EndedAt), "Game": e.Game, "Outcome": outcome,
		}, outcome))
	}
	return util.ApplySeeMore(strings.Join(lines, "\n"), historyHeader)
}

// Scene renders the game status block followed by the dialogue beat.
func (f *Formatter) Scene(s *playdto.Scene) string {
	if s == nil {
		return f.NoGame()
	}
	var parts []string
	switch {
	case s.Memory != nil:
		parts = append(parts, f.memory(s.Cast, s.Memory))
	case s.Word != nil:
		parts = append(parts, f.word(s.Cast, s.Word))
	case s.Canvas != nil:
		parts = append(parts, f.canvas(s.Cast, s.Canvas))
	}
	if d := Dialogue(s.Lines); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, "\n\n")
}

// Dialogue renders lines as `Name (emotion): text`.
func Dialogue(lines []playdto.Line) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, fmt.Sprintf("%s (%s): %s", l.SpeakerName, l.Emotion, l.Text))
	}
	return strings.Join(out, "\n")
}

func seatName(cast [2]playdto.Seat, id string) string {
	for _, s := range cast {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

// Board draws the 4x4 grid row by row, each row prefixed with its first position.
func Board(cards []playdto.Card) string {
	var b strings.Builder
	for i, c := range cards {
		if i%boardColumns == 0 {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%2d│", i+1)
		}
		cell := faceDown
		switch {
		case c.Matched:
			cell = matchedMarker
		case c.FaceUp:
			cell = c.Symbol
		}
		b.WriteString(" ")
		b.WriteString(cell)
	}
	return b.String()
}

func (f *Formatter) memory(cast [2]playdto.Seat, m *playdto.MemoryBoard) string {
	lines := []string{
		Board(m.Cards),
		f.ui("memory_status", map[string]any{"Pairs": m.MatchedPairs, "Moves1": m.Moves[0], "Moves2": m.Moves[1]},
			fmt.Sprintf("%d/%d", m.MatchedPairs, m.TotalPairs)),
	}
	if m.Over {
		lines = append(lines, f.ui("memory_over", nil, "Game over"))
	} else {
		lines = append(lines, f.ui("turn", map[string]any{"Name": seatName(cast, m.Current)}, ""))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) word(cast [2]playdto.Seat, w *playdto.WordRound) string {
	giver, guesser := seatName(cast, w.ClueGiver), seatName(cast, w.Guesser)
	var lines []string
	switch w.Phase {
	case "setup":
		lines = append(lines, f.ui("word_setup", map[string]any{"Round": w.Rounds + 1, "Name": giver}, ""))
	case "clue":
		lines = append(lines,
			f.ui("word_reveal", map[string]any{"Name": giver, "Word": w.Word}, w.Word),
			f.ui("word_clue", map[string]any{"Name": giver, "Seconds": w.TimeLeft}, ""))
	case "guess":
		lines = append(lines, f.ui("word_guess", map[string]any{"Name": guesser, "Clue": w.Clue, "Seconds": w.TimeLeft}, w.Clue))
	case "result":
		key := "word_result_incorrect"
		if w.Outcome == "correct" {
			key = "word_result_correct"
		}
		lines = append(lines, f.ui(key, map[string]any{"Word": w.Word}, w.Word))
	}
	lines = append(lines, fmt.Sprintf("%s %d : %d %s", cast[0].Name, w.Score[0], w.Score[1], cast[1].Name))
	return strings.Join(lines, "\n")
}

func (f *Formatter) canvas(cast [2]playdto.Seat, c *playdto.CanvasView) string {
	return f.ui("draw_status", map[string]any{
		"Prompt": c.Prompt, "Name": seatName(cast, c.Current), "View": c.View, "Count": c.Count,
	}, c.Prompt)
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("01/02 15:04")
}
