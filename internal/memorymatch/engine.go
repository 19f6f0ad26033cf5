package memorymatch

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/clock"
	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/dialogue"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/game"
)

type Config struct {
	Symbols []string
	Rules   Rules
	Cast    domain.Cast
	Clock   clock.Clock
	Picker  *content.Picker
	Emitter *dialogue.Emitter
	Logger  *zap.Logger
	// OnScore receives every award, outside the engine lock.
	OnScore game.ScoreFunc
	// OnUpdate is called after a timer-driven resolution.
	OnUpdate func(Snapshot)
}

// Snapshot is a read-only view of the engine.
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
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = content.Default().Symbols
	}
	cfg.Rules = cfg.Rules.WithDefaults()
	e := &Engine{id: uuid.NewString(), cfg: cfg, slot: clock.NewSlot(cfg.Clock)}
	e.log = cfg.Logger.With(zap.String("engine", "memory"), zap.String("engine_id", e.id))
	e.state = Deal(NewDeck(cfg.Symbols, cfg.Picker), dialogue.MemoryIntro)
	return e
}

func (e *Engine) Kind() domain.GameKind { return domain.GameMemoryMatch }

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{ID: e.id, State: e.state.clone(), Cast: e.cfg.Cast, Lines: e.cfg.Emitter.For(e.state.Beat)}
}

// Flip turns the card at pos (0-based). changed is false when the flip was ignored.
func (e *Engine) Flip(pos int) (Snapshot, bool) {
	e.mu.Lock()
	if e.closed {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, false
	}
	next, eff, changed := e.state.Flip(pos, e.cfg.Rules)
	if changed {
		e.state = next
		if eff.Delay > 0 {
			e.slot.Arm(eff.Delay, e.resolve)
		}
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	return snap, changed
}

func (e *Engine) resolve(tok clock.Token) {
	e.mu.Lock()
	if e.closed || !e.slot.Claim(tok) {
		e.mu.Unlock()
		return
	}
	next, eff, changed := e.state.Resolve(e.cfg.Rules)
	if !changed {
		e.mu.Unlock()
		return
	}
	e.state = next
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.log.Info("memory_resolve",
		zap.String("beat", string(next.Beat.Kind)),
		zap.Int("matched_pairs", next.MatchedPairs),
		zap.String("current", string(next.Current)),
	)
	game.Pay(e.cfg.OnScore, eff.Awards)
	if e.cfg.OnUpdate != nil {
		e.cfg.OnUpdate(snap)
	}
}

// Restart cancels any pending resolution and deals again.
func (e *Engine) Restart() Snapshot {
	deck := NewDeck(e.cfg.Symbols, e.cfg.Picker)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return e.snapshotLocked()
	}
	e.slot.Disarm()
	e.state = Deal(deck, dialogue.MemoryRestart)
	e.log.Info("memory_restart")
	return e.snapshotLocked()
}

// Pending reports whether a resolution timer is armed.
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
