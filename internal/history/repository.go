// Package history records finished games and rounds per room.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/park285/playdate-bot/internal/domain"
)

type Repository interface {
	SaveResult(ctx context.Context, r domain.Result) error
	// Recent returns the newest results for scope, newest first.
	Recent(ctx context.Context, scope string, limit int) ([]domain.Result, error)
	Close() error
}

const schema = `CREATE TABLE IF NOT EXISTS playdate_results (
    id          TEXT PRIMARY KEY,
    scope       TEXT NOT NULL,
    game        TEXT NOT NULL,
    winner      TEXT NOT NULL DEFAULT '',
    outcome     TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '',
    score       JSONB NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    ended_at    TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS playdate_results_scope_ended ON playdate_results (scope, ended_at DESC);`

type Postgres struct {
	db *sql.DB
}

func NewPostgres(databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create playdate_results: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (r *Postgres) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// normalize fills the id and timestamps a caller left empty.
func normalize(res domain.Result) domain.Result {
	if strings.TrimSpace(res.ID) == "" {
		res.ID = uuid.NewString()
	}
	if res.EndedAt.IsZero() {
		res.EndedAt = time.Now().UTC()
	}
	if res.StartedAt.IsZero() || res.StartedAt.After(res.EndedAt) {
		res.StartedAt = res.EndedAt
	}
	return res
}

// SaveResult upserts by id.
func (r *Postgres) SaveResult(ctx context.Context, res domain.Result) error {
	if r == nil || r.db == nil {
		return nil
	}
	res = normalize(res)
	score, err := json.Marshal(res.Score)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}

	q := `INSERT INTO playdate_results (
        id, scope, game, winner, outcome, detail, score, started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7::jsonb,$8,$9,$10
      ) ON CONFLICT (id) DO UPDATE SET
        winner=EXCLUDED.winner,
        outcome=EXCLUDED.outcome,
        detail=EXCLUDED.detail,
        score=EXCLUDED.score,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		res.ID, res.Scope, string(res.Game), string(res.Winner), res.Outcome, res.Detail,
		string(score), res.StartedAt, res.EndedAt, res.EndedAt.Sub(res.StartedAt).Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

func (r *Postgres) Recent(ctx context.Context, scope string, limit int) ([]domain.Result, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
        SELECT id, scope, game, winner, outcome, detail, score, started_at, ended_at
        FROM playdate_results
        WHERE scope = $1
        ORDER BY ended_at DESC
        LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Result, 0, limit)
	for rows.Next() {
		var (
			res          domain.Result
			game, winner string
			score        []byte
		)
		if err := rows.Scan(&res.ID, &res.Scope, &game, &winner, &res.Outcome, &res.Detail, &score, &res.StartedAt, &res.EndedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.Game = domain.GameKind(game)
		res.Winner = domain.PlayerID(winner)
		if err := json.Unmarshal(score, &res.Score); err != nil {
			return nil, fmt.Errorf("decode score: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
