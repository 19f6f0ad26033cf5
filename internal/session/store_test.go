package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/kvstore"
)

type failingPersister struct {
	mu    sync.Mutex
	saves int
}

func (f *failingPersister) Load(context.Context) (domain.SessionState, bool, error) {
	return domain.SessionState{}, false, errors.New("storage unavailable")
}

func (f *failingPersister) Save(context.Context, domain.SessionState) error {
	f.mu.Lock()
	f.saves++
	f.mu.Unlock()
	return errors.New("storage unavailable")
}

func newStore(t *testing.T, p Persister) *Store {
	t.Helper()
	s := NewStore(context.Background(), p)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestCenturyUnlockedOnce(t *testing.T) {
	s := newStore(t, nil)
	if _, _, err := s.ApplyScore(domain.Player1, 60); err != nil {
		t.Fatalf("apply: %v", err)
	}
	st, unlocked, err := s.ApplyScore(domain.Player2, 45)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if st.Score.Total() != 105 || len(unlocked) != 1 || unlocked[0] != CenturyName {
		t.Fatalf("state=%+v unlocked=%v", st, unlocked)
	}
	st, unlocked, _ = s.ApplyScore(domain.Player1, 10)
	if len(unlocked) != 0 || len(st.Achievements) != 1 {
		t.Fatalf("century duplicated: %v", st.Achievements)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	st := domain.SessionState{Score: domain.Tally{Player1: 100}}
	once := Evaluate(st, []Rule{Century})
	st.Achievements = once
	twice := Evaluate(st, []Rule{Century})
	if fmt.Sprint(once) != fmt.Sprint(twice) || len(twice) != 1 {
		t.Fatalf("once=%v twice=%v", once, twice)
	}
}

func TestRejectsInvalidScores(t *testing.T) {
	s := newStore(t, nil)
	if _, _, err := s.ApplyScore("player3", 5); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("unknown player: %v", err)
	}
	for _, pts := range []int{0, -5} {
		if _, _, err := s.ApplyScore(domain.Player1, pts); !errors.Is(err, ErrInvalidPoints) {
			t.Fatalf("points %d: %v", pts, err)
		}
	}
	if got := s.Snapshot().Score; got.Total() != 0 {
		t.Fatalf("score changed: %+v", got)
	}
}

func TestListenersSeeConsistentState(t *testing.T) {
	s := newStore(t, nil)
	var seen []domain.SessionState
	s.OnChange(func(st domain.SessionState, _ []string) {
		// the store lock is released here
		_ = s.Snapshot()
		seen = append(seen, st)
	})
	s.ApplyScore(domain.Player1, 99)
	s.ApplyScore(domain.Player2, 1)
	if len(seen) != 2 {
		t.Fatalf("listener calls = %d", len(seen))
	}
	last := seen[1]
	if last.Score.Total() != 100 || !last.HasAchievement(CenturyName) {
		t.Fatalf("listener saw %+v", last)
	}
}

func TestPersistFailureIsNonFatal(t *testing.T) {
	p := &failingPersister{}
	s := newStore(t, p)
	if _, _, err := s.ApplyScore(domain.Player2, 3); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := s.Snapshot().Score.Player2; got != 3 {
		t.Fatalf("in-memory score lost: %d", got)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saves != 1 {
		t.Fatalf("saves = %d", p.saves)
	}
}

func TestRoundTripThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	kv, err := kvstore.Open(context.Background(), kvstore.Config{RedisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("kv: %v", err)
	}
	defer kv.Close()

	s := NewStore(context.Background(), NewKVPersister(kv, "room1"))
	s.ApplyScore(domain.Player1, 70)
	s.ApplyScore(domain.Player2, 40)
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, _, err := s.ApplyScore(domain.Player1, 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("apply after close: %v", err)
	}

	again := newStore(t, NewKVPersister(kv, "room1"))
	st := again.Snapshot()
	if st.Score.Player1 != 70 || st.Score.Player2 != 40 || !st.HasAchievement(CenturyName) {
		t.Fatalf("reloaded %+v", st)
	}
}

func TestLoadNormalizes(t *testing.T) {
	kv := kvstore.NewMemory()
	raw := `{"score":{"player1":-4,"player2":120},"achievements":["Century","Century",""]}`
	if err := kv.Set(context.Background(), Key("r"), []byte(raw)); err != nil {
		t.Fatal(err)
	}
	st := newStore(t, NewKVPersister(kv, "r")).Snapshot()
	if st.Score.Player1 != 0 || len(st.Achievements) != 1 {
		t.Fatalf("normalized %+v", st)
	}
}

func TestScoreNeverWraps(t *testing.T) {
	s := newStore(t, nil)
	if _, _, err := s.ApplyScore(domain.Player1, math.MaxInt); err != nil {
		t.Fatalf("apply: %v", err)
	}
	st, unlocked, err := s.ApplyScore(domain.Player1, 1)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if st.Score.Player1 != math.MaxInt || len(unlocked) != 0 || !st.HasAchievement(CenturyName) {
		t.Fatalf("state=%+v unlocked=%v", st, unlocked)
	}
}

type hangingPersister struct{}

func (hangingPersister) Load(context.Context) (domain.SessionState, bool, error) {
	return domain.SessionState{}, false, nil
}

func (hangingPersister) Save(ctx context.Context, _ domain.SessionState) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSaveTimeoutBoundsWrites(t *testing.T) {
	s := NewStore(context.Background(), hangingPersister{}, WithSaveTimeout(20*time.Millisecond))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	if _, _, err := s.ApplyScore(domain.Player1, 1); err != nil {
		t.Fatalf("apply: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush waited on a hung save: %v", err)
	}
}
