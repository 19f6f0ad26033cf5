package wordclue

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/clock"
	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/dialogue"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/game"
)

type Config struct {
	Words   []string
	Rules   Rules
	Cast    domain.Cast
	Clock   clock.Clock
	Picker  *content.Picker
	Emitter *dialogue.Emitter
	Logger  *zap.Logger
	OnScore game.ScoreFunc
	// OnUpdate is called when a countdown expiry changes the phase.
	OnUpdate func(Snapshot)
}

type Snapshot struct {
	ID    string
	State State
	Cast  domain.Cast
	Lines []domain.DialogueLine
}

// Engine drives State with a single countdown slot: a one-second tick re-armed while a
// clue or guess phase has time left.
type Engine struct {
	id  string
	cfg Config
	log *zap.Logger

	mu     sync.Mutex
	state  State
	slot   *clock.Slot
	closed bool
}

func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Picker == nil {
		cfg.Picker = content.NewPicker(nil)
	}
	if len(cfg.Words) == 0 {
		cfg.Words = content.Default().Words
	}
	if cfg.Rules.ClueSeconds <= 0 {
		cfg.Rules.ClueSeconds = DefaultClueSeconds
	}
	if cfg.Rules.GuessSeconds <= 0 {
		cfg.Rules.GuessSeconds = DefaultGuessSecs
	}
	e := &Engine{id: uuid.NewString(), cfg: cfg, state: Initial(), slot: clock.NewSlot(cfg.Clock)}
	e.log = cfg.Logger.With(zap.String("engine", "word"), zap.String("engine_id", e.id))
	return e
}

func (e *Engine) Kind() domain.GameKind { return domain.GameWordGuess }

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{ID: e.id, State: e.state, Cast: e.cfg.Cast, Lines: e.cfg.Emitter.For(e.state.Beat)}
}

// Start draws a word and opens the clue phase.
func (e *Engine) Start() (Snapshot, bool) {
	word := e.cfg.Picker.Pick(e.cfg.Words)
	return e.apply(func(s State) (State, Effects, bool) { return s.Start(word, e.cfg.Rules) })
}

func (e *Engine) Clue(text string) (Snapshot, bool) {
	return e.apply(func(s State) (State, Effects, bool) { return s.SubmitClue(text, e.cfg.Rules) })
}

func (e *Engine) Guess(text string) (Snapshot, bool) {
	return e.apply(func(s State) (State, Effects, bool) { return s.SubmitGuess(text) })
}

func (e *Engine) Next() (Snapshot, bool) {
	return e.apply(func(s State) (State, Effects, bool) { return s.Next() })
}

func (e *Engine) Restart() Snapshot {
	snap, _ := e.apply(func(s State) (State, Effects, bool) { return s.Restart() })
	return snap
}

func (e *Engine) apply(tr func(State) (State, Effects, bool)) (Snapshot, bool) {
	e.mu.Lock()
	if e.closed {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, false
	}
	next, eff, changed := tr(e.state)
	if changed {
		e.state = next
		e.schedule(eff)
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if changed {
		e.log.Debug("wordclue_transition", zap.String("phase", string(next.Phase)), zap.String("beat", string(next.Beat.Kind)))
		game.Pay(e.cfg.OnScore, eff.Awards)
	}
	return snap, changed
}

// schedule runs under e.mu.
func (e *Engine) schedule(eff Effects) {
	switch {
	case eff.Tick:
		e.slot.Arm(time.Second, e.tick)
	case eff.Stop:
		e.slot.Disarm()
	}
}

func (e *Engine) tick(tok clock.Token) {
	e.mu.Lock()
	if e.closed || !e.slot.Claim(tok) {
		e.mu.Unlock()
		return
	}
	prev := e.state.Phase
	next, eff, changed := e.state.Tick()
	if !changed {
		e.mu.Unlock()
		return
	}
	e.state = next
	e.schedule(eff)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if next.Phase == prev {
		return
	}
	e.log.Info("wordclue_timeout", zap.String("from", string(prev)), zap.String("to", string(next.Phase)), zap.String("current", string(next.Current)))
	game.Pay(e.cfg.OnScore, eff.Awards)
	if e.cfg.OnUpdate != nil {
		e.cfg.OnUpdate(snap)
	}
}

// Pending reports whether the countdown is armed.
func (e *Engine) Pending() bool { return e.slot.Pending() }

func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.slot.Disarm()
}
