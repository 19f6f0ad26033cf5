package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/adapter/playpresenter"
	"github.com/park285/playdate-bot/internal/canvas"
	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/dialogue"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/game"
	"github.com/park285/playdate-bot/internal/memorymatch"
	"github.com/park285/playdate-bot/internal/roster"
	"github.com/park285/playdate-bot/internal/session"
	"github.com/park285/playdate-bot/internal/wordclue"
	"github.com/park285/playdate-bot/pkg/playdto"
)

const storeTimeout = 3 * time.Second

// Reply is what a command sends back to the room.
type Reply struct {
	Text  string
	Image []byte
}

func (r Reply) empty() bool { return r.Text == "" && len(r.Image) == 0 }

// Shell is one room: a session score, two characters, at most one live engine.
type Shell struct {
	scope   string
	deps    *Deps
	log     *zap.Logger
	store   *session.Store
	roster  *roster.Roster
	emitter *dialogue.Emitter
	push    func(Reply)

	mu      sync.Mutex
	engine  game.Engine
	memory  *memorymatch.Engine
	word    *wordclue.Engine
	draw    *canvas.Engine
	surface *canvas.RasterSurface
	// engineID identifies the live engine; callbacks from a closed one are dropped.
	engineID string
	started  time.Time
	link     *link
}

func newShell(ctx context.Context, scope string, deps *Deps, push func(Reply)) *Shell {
	log := deps.Logger.With(zap.String("room", scope))
	s := &Shell{
		scope:   scope,
		deps:    deps,
		log:     log,
		store:   session.NewStore(ctx, session.NewKVPersister(deps.KV, scope), session.WithLogger(log), session.WithSaveTimeout(storeTimeout)),
		roster:  roster.Load(ctx, deps.KV, scope, deps.Pack, deps.Picker, log),
		emitter: dialogue.NewEmitter(deps.Catalog),
		push:    push,
	}
	s.store.OnChange(func(_ domain.SessionState, unlocked []string) {
		if len(unlocked) > 0 {
			s.push(Reply{Text: s.deps.Formatter.Unlocked(unlocked)})
		}
	})
	return s
}

func (s *Shell) Scope() string { return s.scope }

// Session returns the cross-game score and achievements.
func (s *Shell) Session() domain.SessionState { return s.store.Snapshot() }

// Active is the running game kind, or "" in the picker.
func (s *Shell) Active() domain.GameKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return ""
	}
	return s.engine.Kind()
}

func (s *Shell) score(p domain.PlayerID, points int) {
	if _, _, err := s.store.ApplyScore(p, points); err != nil {
		s.log.Warn("apply_score_failed", zap.String("player", string(p)), zap.Int("points", points), zap.Error(err))
	}
}

// start replaces the running engine. Runs under s.mu.
func (s *Shell) start(g content.Game) (Reply, *playdto.Scene, error) {
	s.stopLocked()
	cast := s.roster.Cast()
	var (
		scene *playdto.Scene
		lines []domain.DialogueLine
	)
	switch g.ID {
	case domain.GameMemoryMatch:
		e := memorymatch.New(memorymatch.Config{
			Symbols: s.deps.Pack.Symbols, Rules: s.deps.Memory, Cast: cast,
			Clock: s.deps.Clock, Picker: s.deps.Picker, Emitter: s.emitter, Logger: s.log,
			OnScore: s.score, OnUpdate: s.onMemoryUpdate,
		})
		s.engine, s.memory = e, e
		snap := e.Snapshot()
		scene, lines = playpresenter.MemoryScene(snap), snap.Lines
	case domain.GameWordGuess:
		e := wordclue.New(wordclue.Config{
			Words: s.deps.Pack.Words, Rules: s.deps.Word, Cast: cast,
			Clock: s.deps.Clock, Picker: s.deps.Picker, Emitter: s.emitter, Logger: s.log,
			OnScore: s.score, OnUpdate: s.onWordUpdate,
		})
		s.engine, s.word = e, e
		snap := e.Snapshot()
		scene, lines = playpresenter.WordScene(snap), snap.Lines
	case domain.GameDrawTogether:
		surface := canvas.NewRasterSurface(s.deps.CanvasWidth, s.deps.CanvasHeight)
		e, err := canvas.New(canvas.Config{
			Prompts: s.deps.Pack.Prompts, Cast: cast, Surface: surface,
			Picker: s.deps.Picker, Emitter: s.emitter, Logger: s.log, OnScore: s.score,
		})
		if err != nil {
			return Reply{}, nil, err
		}
		s.engine, s.draw, s.surface = e, e, surface
		snap := e.Snapshot()
		scene, lines = playpresenter.CanvasScene(snap), snap.Lines
	default:
		return Reply{}, nil, fmt.Errorf("unknown game %q", g.ID)
	}
	s.engineID = scene.EngineID
	s.started = s.deps.Clock.Now()
	s.log.Info("game_start", zap.String("game", string(g.ID)))

	r := Reply{Text: s.deps.Formatter.GameStarted(g.Title) + "\n\n" + s.deps.Formatter.Scene(scene)}
	if img, err := s.deps.Avatars.Duo(cast, lines); err == nil {
		r.Image = img
	} else {
		s.log.Warn("avatar_render_failed", zap.Error(err))
	}
	return r, scene, nil
}

// stopLocked closes the running engine; its timers are canceled.
func (s *Shell) stopLocked() {
	if s.engine != nil {
		s.engine.Close()
		s.log.Info("game_stop", zap.String("game", string(s.engine.Kind())))
	}
	s.engine, s.memory, s.word, s.draw, s.surface = nil, nil, nil, nil, nil
	s.engineID = ""
}

// current reports whether id is the live engine, with the online link to mirror to.
func (s *Shell) current(id string) (*link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link, id != "" && id == s.engineID
}

func (s *Shell) onMemoryUpdate(snap memorymatch.Snapshot) {
	l, ok := s.current(snap.ID)
	if !ok {
		return
	}
	scene := playpresenter.MemoryScene(snap)
	s.push(Reply{Text: s.deps.Formatter.Scene(scene)})
	if snap.State.Phase == memorymatch.PhaseGameOver {
		s.record(memoryResult(s.scope, snap, s.startedAt()))
	}
	s.publish(l, scene)
}

func (s *Shell) onWordUpdate(snap wordclue.Snapshot) {
	l, ok := s.current(snap.ID)
	if !ok {
		return
	}
	scene := playpresenter.WordScene(snap)
	s.push(Reply{Text: s.deps.Formatter.Scene(scene)})
	if snap.State.Phase == wordclue.PhaseResult {
		s.record(wordResult(s.scope, snap, s.startedAt()))
	}
	s.publish(l, scene)
}

func (s *Shell) startedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// record saves a finished game or round. Failures are logged only.
func (s *Shell) record(r domain.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.deps.History.SaveResult(ctx, r); err != nil {
		s.log.Warn("history_save_failed", zap.String("game", string(r.Game)), zap.Error(err))
	}
}

func memoryResult(scope string, snap memorymatch.Snapshot, started time.Time) domain.Result {
	st := snap.State
	outcome := "tie"
	if st.Winner.Valid() {
		outcome = "win"
	}
	return domain.Result{
		Scope: scope, Game: domain.GameMemoryMatch, Winner: st.Winner, Outcome: outcome,
		Detail:    fmt.Sprintf("moves %d:%d", st.Moves.Player1, st.Moves.Player2),
		Score:     st.Moves,
		StartedAt: started,
	}
}

func wordResult(scope string, snap wordclue.Snapshot, started time.Time) domain.Result {
	st := snap.State
	r := domain.Result{
		Scope: scope, Game: domain.GameWordGuess, Outcome: string(st.Outcome),
		Detail: st.Word, Score: st.Score, StartedAt: started,
	}
	if st.Outcome == wordclue.OutcomeCorrect {
		r.Winner = st.Guesser()
	}
	return r
}

func canvasResult(scope string, snap canvas.Snapshot, saver domain.PlayerID, prompt string) domain.Result {
	return domain.Result{
		Scope: scope, Game: domain.GameDrawTogether, Winner: saver, Outcome: "saved",
		Detail: fmt.Sprintf("#%d %s", len(snap.State.Gallery), prompt),
	}
}

// publish mirrors scene to the online partner, if linked.
func (s *Shell) publish(l *link, scene *playdto.Scene) {
	if l == nil || scene == nil || s.deps.Pairing == nil {
		return
	}
	raw, err := json.Marshal(scene)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.deps.Pairing.Publish(ctx, l.id, l.user, raw); err != nil {
		s.log.Warn("pairing_publish_failed", zap.String("session_id", l.id), zap.Error(err))
	}
}

// Close stops the engine and the online link and drains session writes.
func (s *Shell) Close(ctx context.Context) error {
	s.mu.Lock()
	s.stopLocked()
	s.detachLocked()
	s.mu.Unlock()
	return s.store.Close(ctx)
}
