package history

import (
	"context"
	"testing"
	"time"

	"github.com/park285/playdate-bot/internal/domain"
)

func TestMemoryRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	base := time.Date(2024, 2, 14, 19, 0, 0, 0, time.UTC)
	for i, g := range []domain.GameKind{domain.GameMemoryMatch, domain.GameWordGuess, domain.GameDrawTogether} {
		err := repo.SaveResult(ctx, domain.Result{Scope: "room", Game: g, Outcome: "done", EndedAt: base.Add(time.Duration(i) * time.Minute)})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := repo.SaveResult(ctx, domain.Result{Scope: "other", Game: domain.GameWordGuess, Outcome: "x"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Recent(ctx, "room", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].Game != domain.GameDrawTogether || got[1].Game != domain.GameWordGuess {
		t.Fatalf("recent = %+v", got)
	}
	if got[0].ID == "" || got[0].StartedAt.IsZero() {
		t.Fatalf("result not normalized: %+v", got[0])
	}
}

func TestMemoryUpsertByID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	repo.SaveResult(ctx, domain.Result{ID: "r1", Scope: "room", Outcome: "incorrect"})
	repo.SaveResult(ctx, domain.Result{ID: "r1", Scope: "room", Outcome: "correct"})
	got, _ := repo.Recent(ctx, "room", 0)
	if len(got) != 1 || got[0].Outcome != "correct" {
		t.Fatalf("upsert = %+v", got)
	}
}

func TestPostgresRequiresURL(t *testing.T) {
	if _, err := NewPostgres("  "); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}
