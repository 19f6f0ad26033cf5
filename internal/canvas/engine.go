// Package canvas is the take-turns drawing game: whoever holds the pen draws, saving
// passes the pen and files the drawing in a gallery.
package canvas

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/dialogue"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/game"
)

const SavePoints = 3

// Surface is the drawing board the engine gates. Snapshots are opaque to the engine.
type Surface interface {
	Snapshot() ([]byte, error)
	Load(blob []byte) error
	Clear()
	Export(caption string) ([]byte, error)
}

// State tracks the pen holder and the append-only gallery. View is -1 until the first
// save.
type State struct {
	Current domain.PlayerID
	Gallery [][]byte
	View    int
	Prompt  string
	Beat    dialogue.Event
}

type Effects struct {
	Awards []game.Award
}

func Initial(prompt string) State {
	return State{Current: domain.Player1, View: -1, Prompt: prompt, Beat: dialogue.Event{Kind: dialogue.DrawIntro, Actor: domain.Player1}}
}

// Save files blob, moves the view to it, passes the pen and pays the player who drew.
// nextPrompt replaces the prompt when the gallery length becomes even.
func (s State) Save(blob []byte, nextPrompt string) (State, Effects) {
	saver := s.Current
	s.Gallery = append(append([][]byte(nil), s.Gallery...), blob)
	s.View = len(s.Gallery) - 1
	s.Current = saver.Other()
	if len(s.Gallery)%2 == 0 && nextPrompt != "" {
		s.Prompt = nextPrompt
	}
	s.Beat = dialogue.Event{Kind: dialogue.DrawSave, Actor: saver}
	return s, Effects{Awards: []game.Award{{Player: saver, Points: SavePoints}}}
}

func (s State) Clear() State {
	s.Beat = dialogue.Event{Kind: dialogue.DrawClear, Actor: s.Current}
	return s
}

// Navigate moves the view by dir, clamped to the gallery. ok is false on an empty gallery.
func (s State) Navigate(dir int) (State, bool) {
	if len(s.Gallery) == 0 {
		return s, false
	}
	v := s.View + dir
	if v < 0 {
		v = 0
	}
	if v > len(s.Gallery)-1 {
		v = len(s.Gallery) - 1
	}
	s.View = v
	return s, true
}

func (s State) Download() State {
	s.Beat = dialogue.Event{Kind: dialogue.DrawDownload, Actor: s.Current}
	return s
}

type Config struct {
	Prompts []string
	Cast    domain.Cast
	Surface Surface
	Picker  *content.Picker
	Emitter *dialogue.Emitter
	Logger  *zap.Logger
	OnScore game.ScoreFunc
}

type Snapshot struct {
	ID    string
	State State
	Cast  domain.Cast
	Lines []domain.DialogueLine
}

type Engine struct {
	id  string
	cfg Config
	log *zap.Logger

	mu     sync.Mutex
	state  State
	closed bool
}

func New(cfg Config) (*Engine, error) {
	if cfg.Surface == nil {
		return nil, errors.New("canvas: surface required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Picker == nil {
		cfg.Picker = content.NewPicker(nil)
	}
	if len(cfg.Prompts) == 0 {
		cfg.Prompts = content.Default().Prompts
	}
	e := &Engine{id: uuid.NewString(), cfg: cfg}
	e.log = cfg.Logger.With(zap.String("engine", "draw"), zap.String("engine_id", e.id))
	e.state = Initial(cfg.Picker.Pick(cfg.Prompts))
	cfg.Surface.Clear()
	return e, nil
}

func (e *Engine) Kind() domain.GameKind { return domain.GameDrawTogether }

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	st := e.state
	st.Gallery = append([][]byte(nil), st.Gallery...)
	return Snapshot{ID: e.id, State: st, Cast: e.cfg.Cast, Lines: e.cfg.Emitter.For(st.Beat)}
}

// Save snapshots the surface into the gallery and clears it for the next player.
func (e *Engine) Save() (Snapshot, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Snapshot{}, game.ErrClosed
	}
	blob, err := e.cfg.Surface.Snapshot()
	if err != nil {
		e.mu.Unlock()
		return Snapshot{}, fmt.Errorf("snapshot surface: %w", err)
	}
	next, eff := e.state.Save(blob, e.cfg.Picker.Pick(e.cfg.Prompts))
	e.cfg.Surface.Clear()
	e.state = next
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.log.Info("canvas_save", zap.Int("gallery", len(next.Gallery)), zap.String("next", string(next.Current)))
	game.Pay(e.cfg.OnScore, eff.Awards)
	return snap, nil
}

// Clear wipes the surface. Gallery and turn are untouched.
func (e *Engine) Clear() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Snapshot{}, game.ErrClosed
	}
	e.cfg.Surface.Clear()
	e.state = e.state.Clear()
	return e.snapshotLocked(), nil
}

// Navigate shows the gallery entry dir steps away on the surface.
func (e *Engine) Navigate(dir int) (Snapshot, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Snapshot{}, false, game.ErrClosed
	}
	next, ok := e.state.Navigate(dir)
	if !ok {
		return e.snapshotLocked(), false, nil
	}
	e.cfg.Surface.Clear()
	if err := e.cfg.Surface.Load(next.Gallery[next.View]); err != nil {
		return e.snapshotLocked(), false, fmt.Errorf("load gallery %d: %w", next.View, err)
	}
	e.state = next
	return e.snapshotLocked(), true, nil
}

// Download exports the surface with the prompt as caption.
func (e *Engine) Download() (Snapshot, []byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Snapshot{}, nil, game.ErrClosed
	}
	img, err := e.cfg.Surface.Export(e.state.Prompt)
	if err != nil {
		return e.snapshotLocked(), nil, fmt.Errorf("export surface: %w", err)
	}
	e.state = e.state.Download()
	return e.snapshotLocked(), img, nil
}

// Preview is the current surface as PNG.
func (e *Engine) Preview() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Surface.Snapshot()
}

func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}
