package canvas

import (
	"bytes"
	"image/png"
	"math"
	"math/rand"
	"testing"

	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/dialogue"
	"github.com/park285/playdate-bot/internal/domain"
)

func newEngine(t *testing.T, surf Surface, score *domain.Tally) *Engine {
	t.Helper()
	e, err := New(Config{
		Prompts: content.Default().Prompts,
		Surface: surf,
		Picker:  content.NewPicker(rand.New(rand.NewSource(5))),
		OnScore: func(p domain.PlayerID, n int) { *score = score.Add(p, n) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestTwoSavesCompleteARound(t *testing.T) {
	var score domain.Tally
	surf := NewRasterSurface(64, 48)
	e := newEngine(t, surf, &score)
	start := e.Snapshot().State

	// force a prompt change to be observable
	e.cfg.Prompts = []string{"A fresh prompt"}

	if err := surf.Stroke([]Point{{1, 1}, {30, 30}}); err != nil {
		t.Fatalf("stroke: %v", err)
	}
	first, err := e.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.State.Current != domain.Player2 || first.State.View != 0 {
		t.Fatalf("after first save %+v", first.State)
	}
	if first.State.Prompt != start.Prompt {
		t.Fatalf("prompt changed after the first save")
	}
	second, _ := e.Save()
	st := second.State
	if len(st.Gallery) != 2 || st.View != 1 || st.Current != start.Current {
		t.Fatalf("after two saves %+v", st)
	}
	if st.Prompt != "A fresh prompt" {
		t.Fatalf("prompt %q", st.Prompt)
	}
	if score != (domain.Tally{Player1: SavePoints, Player2: SavePoints}) {
		t.Fatalf("score %+v", score)
	}
	if st.Beat.Kind != dialogue.DrawSave || st.Beat.Actor != domain.Player2 {
		t.Fatalf("beat %+v", st.Beat)
	}
}

func TestSaveClearsSurface(t *testing.T) {
	var score domain.Tally
	surf := NewRasterSurface(32, 32)
	e := newEngine(t, surf, &score)
	blank, _ := surf.Snapshot()
	surf.SetColor("#FF0000")
	surf.SetWidth(8)
	surf.Stroke([]Point{{16, 16}})
	inked, _ := surf.Snapshot()
	if bytes.Equal(blank, inked) {
		t.Fatalf("stroke left no ink")
	}
	snap, _ := e.Save()
	after, _ := surf.Snapshot()
	if !bytes.Equal(after, blank) {
		t.Fatalf("surface not cleared after save")
	}
	if !bytes.Equal(snap.State.Gallery[0], inked) {
		t.Fatalf("gallery holds the wrong snapshot")
	}
}

func TestNavigateClamps(t *testing.T) {
	var score domain.Tally
	surf := NewRasterSurface(32, 32)
	e := newEngine(t, surf, &score)
	if _, ok, _ := e.Navigate(-1); ok {
		t.Fatalf("navigate on empty gallery")
	}
	surf.Stroke([]Point{{2, 2}, {20, 20}})
	e.Save()
	e.Save()
	e.Save()

	snap, ok, err := e.Navigate(-1)
	if err != nil || !ok || snap.State.View != 1 {
		t.Fatalf("prev: view=%d ok=%v err=%v", snap.State.View, ok, err)
	}
	e.Navigate(-1)
	snap, _, _ = e.Navigate(-1)
	if snap.State.View != 0 {
		t.Fatalf("view below zero: %d", snap.State.View)
	}
	for i := 0; i < 5; i++ {
		snap, _, _ = e.Navigate(1)
	}
	if snap.State.View != 2 || len(snap.State.Gallery) != 3 {
		t.Fatalf("view %d gallery %d", snap.State.View, len(snap.State.Gallery))
	}
}

func TestClearKeepsTurnAndGallery(t *testing.T) {
	var score domain.Tally
	e := newEngine(t, NewRasterSurface(16, 16), &score)
	e.Save()
	snap, err := e.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if snap.State.Current != domain.Player2 || len(snap.State.Gallery) != 1 {
		t.Fatalf("clear changed state %+v", snap.State)
	}
	if snap.State.Beat.Kind != dialogue.DrawClear || score.Total() != SavePoints {
		t.Fatalf("beat %s score %+v", snap.State.Beat.Kind, score)
	}
}

func TestDownloadExportsCaptionedPNG(t *testing.T) {
	var score domain.Tally
	e := newEngine(t, NewRasterSurface(120, 80), &score)
	snap, img, err := e.Download()
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 120 || cfg.Height != 80+captionHeight {
		t.Fatalf("export size %dx%d", cfg.Width, cfg.Height)
	}
	if snap.State.Beat.Kind != dialogue.DrawDownload || len(snap.Lines) != 2 {
		t.Fatalf("beat %+v", snap.State.Beat)
	}
}

func TestSurfaceInputValidation(t *testing.T) {
	s := NewRasterSurface(10, 10)
	if err := s.SetWidth(51); err != ErrStrokeWidth {
		t.Fatalf("width: %v", err)
	}
	if err := s.SetColor("red"); err != ErrBadColor {
		t.Fatalf("color: %v", err)
	}
	if err := s.Stroke([]Point{{11, 2}}); err != ErrBadPoint {
		t.Fatalf("stroke: %v", err)
	}
	if _, err := ParsePoints([]string{"1,2", "x"}); err != ErrBadPoint {
		t.Fatalf("parse: %v", err)
	}
	pts, err := ParsePoints([]string{"1,2", "3.5, 4"})
	if err != nil || len(pts) != 2 || pts[1].X != 3.5 {
		t.Fatalf("parse: %v %v", pts, err)
	}
}

func TestNonFinitePointsRejected(t *testing.T) {
	for _, tok := range []string{"NaN,NaN", "1,Inf", "-inf,2"} {
		if _, err := ParsePoints([]string{tok, "10,10"}); err != ErrBadPoint {
			t.Fatalf("parse %q: %v", tok, err)
		}
	}
	s := NewRasterSurface(10, 10)
	if err := s.Stroke([]Point{{math.NaN(), math.NaN()}, {5, 5}}); err != ErrBadPoint {
		t.Fatalf("stroke NaN: %v", err)
	}
}

func TestLoadRescales(t *testing.T) {
	small := NewRasterSurface(10, 10)
	small.SetColor("#000000")
	small.SetWidth(10)
	small.Stroke([]Point{{0, 5}, {10, 5}})
	blob, _ := small.Snapshot()

	big := NewRasterSurface(40, 40)
	if err := big.Load(blob); err != nil {
		t.Fatalf("load: %v", err)
	}
	out, _ := big.Snapshot()
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := img.At(20, 20).RGBA(); r > 0x8000 {
		t.Fatalf("centre pixel not inked after rescale: %x", r)
	}
}

func TestClosedEngineRejects(t *testing.T) {
	var score domain.Tally
	e := newEngine(t, NewRasterSurface(8, 8), &score)
	e.Close()
	if _, err := e.Save(); err == nil {
		t.Fatalf("save after close")
	}
	if score.Total() != 0 {
		t.Fatalf("closed engine paid")
	}
}
