// Package kvstore is the byte key-value store behind session scores and character
// records. Backends: in-process memory, Redis, and a single SQLite file.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("kvstore: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

const (
	BackendAuto   = "auto"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	Backend    string
	RedisURL   string
	SQLitePath string
}

// Resolve turns "auto" into a concrete backend: redis when a URL is set, then sqlite,
// then memory.
func (c Config) Resolve() string {
	b := strings.ToLower(strings.TrimSpace(c.Backend))
	if b != "" && b != BackendAuto {
		return b
	}
	switch {
	case strings.TrimSpace(c.RedisURL) != "":
		return BackendRedis
	case strings.TrimSpace(c.SQLitePath) != "":
		return BackendSQLite
	default:
		return BackendMemory
	}
}

// Open builds the configured backend. The caller owns Close.
func Open(ctx context.Context, c Config) (Store, error) {
	switch b := c.Resolve(); b {
	case BackendMemory:
		return NewMemory(), nil
	case BackendRedis:
		rdb, err := DialRedis(ctx, c.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedis(rdb), nil
	case BackendSQLite:
		return OpenSQLite(c.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", b)
	}
}

// DialRedis connects and pings. REDIS_URL form: redis://[:password@]host:port[/db].
func DialRedis(ctx context.Context, raw string) (*redis.Client, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis backend")
	}
	opts, err := parseRedisURL(raw)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("redis db %q: %w", p, err)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
