// Package session keeps the score and achievements shared by every game in a room.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/domain"
)

var (
	ErrUnknownPlayer = errors.New("session: unknown player")
	ErrInvalidPoints = errors.New("session: points must be positive")
	ErrClosed        = errors.New("session: store closed")
)

// Persister is the load/save collaborator. Load reports ok=false when nothing is stored.
type Persister interface {
	Load(ctx context.Context) (domain.SessionState, bool, error)
	Save(ctx context.Context, st domain.SessionState) error
}

// Listener observes every applied score with the achievements it unlocked.
type Listener func(st domain.SessionState, unlocked []string)

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRules replaces the achievement rules. The default is Century only.
func WithRules(rules ...Rule) Option {
	return func(s *Store) { s.rules = append([]Rule(nil), rules...) }
}

// WithSaveTimeout bounds each persister write. Non-positive keeps the 5s default.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.saveTimeout = d
		}
	}
}

// Store applies scores and evaluates achievements as one step, then hands the snapshot
// to a single background writer. Only the newest unsaved snapshot is written.
type Store struct {
	log         *zap.Logger
	persister   Persister
	rules       []Rule
	saveTimeout time.Duration

	mu        sync.Mutex
	state     domain.SessionState
	listeners []Listener
	closed    bool

	pmu     sync.Mutex
	pending *domain.SessionState

	kick   chan struct{}
	flush  chan chan struct{}
	stop   chan struct{}
	exited chan struct{}
}

// NewStore loads the persisted state (absent means zero), normalizes it and starts the
// writer. A load failure is logged and the store starts from zero.
func NewStore(ctx context.Context, p Persister, opts ...Option) *Store {
	s := &Store{
		log:         zap.NewNop(),
		persister:   p,
		rules:       []Rule{Century},
		saveTimeout: 5 * time.Second,
		kick:        make(chan struct{}, 1),
		flush:       make(chan chan struct{}),
		stop:        make(chan struct{}),
		exited:      make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	var st domain.SessionState
	if p != nil {
		loaded, ok, err := p.Load(ctx)
		switch {
		case err != nil:
			s.log.Warn("session_load_failed", zap.Error(err))
		case ok:
			st = loaded
		}
	}
	st = normalize(st)
	st.Achievements = Evaluate(st, s.rules)
	s.state = st

	go s.writer()
	return s
}

func normalize(st domain.SessionState) domain.SessionState {
	if st.Score.Player1 < 0 {
		st.Score.Player1 = 0
	}
	if st.Score.Player2 < 0 {
		st.Score.Player2 = 0
	}
	seen := make(map[string]bool, len(st.Achievements))
	out := make([]string, 0, len(st.Achievements))
	for _, a := range st.Achievements {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	st.Achievements = out
	return st
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// OnChange registers l. Listeners run on the caller's goroutine after the lock is released.
func (s *Store) OnChange(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// ApplyScore adds points to player and re-evaluates achievements in the same step.
// Repeated calls add up.
func (s *Store) ApplyScore(player domain.PlayerID, points int) (domain.SessionState, []string, error) {
	if !player.Valid() {
		return domain.SessionState{}, nil, ErrUnknownPlayer
	}
	if points <= 0 {
		return domain.SessionState{}, nil, ErrInvalidPoints
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.SessionState{}, nil, ErrClosed
	}
	next := s.state.Clone()
	next.Score = next.Score.Add(player, points)
	before := len(next.Achievements)
	next.Achievements = Evaluate(next, s.rules)
	unlocked := append([]string(nil), next.Achievements[before:]...)
	s.state = next
	snap := next.Clone()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.log.Info("score_apply",
		zap.String("player", string(player)),
		zap.Int("points", points),
		zap.Int("player1", snap.Score.Player1),
		zap.Int("player2", snap.Score.Player2),
		zap.Strings("unlocked", unlocked),
	)
	s.enqueue(snap)
	for _, l := range listeners {
		l(snap.Clone(), unlocked)
	}
	return snap, unlocked, nil
}

func (s *Store) enqueue(st domain.SessionState) {
	if s.persister == nil {
		return
	}
	s.pmu.Lock()
	s.pending = &st
	s.pmu.Unlock()
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Store) writer() {
	defer close(s.exited)
	for {
		select {
		case <-s.kick:
			s.writePending()
		case done := <-s.flush:
			s.writePending()
			close(done)
		case <-s.stop:
			s.writePending()
			return
		}
	}
}

func (s *Store) writePending() {
	s.pmu.Lock()
	st := s.pending
	s.pending = nil
	s.pmu.Unlock()
	if st == nil || s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, *st); err != nil {
		s.log.Warn("session_persist_failed", zap.Error(err))
	}
}

// Flush waits until every queued snapshot has been handed to the persister.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case s.flush <- done:
	case <-s.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects further scores, writes the last snapshot and stops the writer.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	close(s.stop)
	select {
	case <-s.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
