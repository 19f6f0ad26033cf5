package kvstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "two" {
		t.Fatalf("Get = %q, %v", got, err)
	}
}

func TestMemory(t *testing.T) { exercise(t, NewMemory()) }

func TestRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	s, err := Open(context.Background(), Config{RedisURL: fmt.Sprintf("redis://%s/0", mr.Addr())})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if _, ok := s.(*Redis); !ok {
		t.Fatalf("auto picked %T", s)
	}
	exercise(t, s)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "play.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	exercise(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	again, err := Open(context.Background(), Config{Backend: "sqlite", SQLitePath: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	got, err := again.Get(context.Background(), "k")
	if err != nil || string(got) != "two" {
		t.Fatalf("after reopen = %q, %v", got, err)
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{}, BackendMemory},
		{Config{Backend: "auto", SQLitePath: "x.db"}, BackendSQLite},
		{Config{RedisURL: "redis://h:1", SQLitePath: "x.db"}, BackendRedis},
		{Config{Backend: "memory", RedisURL: "redis://h:1"}, BackendMemory},
	}
	for _, c := range cases {
		if got := c.cfg.Resolve(); got != c.want {
			t.Fatalf("%+v resolved to %s, want %s", c.cfg, got, c.want)
		}
	}
	if _, err := Open(context.Background(), Config{Backend: "etcd"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestParseRedisURL(t *testing.T) {
	o, err := parseRedisURL("redis://:pw@localhost:6380/2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.Addr != "localhost:6380" || o.Password != "pw" || o.DB != 2 {
		t.Fatalf("opts = %+v", o)
	}
	if _, err := parseRedisURL("http://x"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
