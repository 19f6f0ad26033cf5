package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	TransportConsole = "console"
	TransportIris    = "iris"
)

type AppConfig struct {
	Transport string `env:"TRANSPORT" envDefault:"console"`

	IrisBaseURL string `env:"IRIS_BASE_URL"`
	IrisWSURL   string `env:"IRIS_WS_URL"`
	EgressMode  string `env:"EGRESS_MODE" envDefault:"auto"`
	EgressDry   bool   `env:"EGRESS_DRYRUN"`

	BotPrefix string `env:"BOT_PREFIX" envDefault:"!"`

	XUserID    string `env:"X_USER_ID"`
	XUserEmail string `env:"X_USER_EMAIL"`
	XSessionID string `env:"X_SESSION_ID"`

	AllowedRooms []string `env:"ALLOWED_ROOMS" envSeparator:","`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"auto"`
	RedisURL     string `env:"REDIS_URL"`
	SQLitePath   string `env:"SQLITE_PATH"`
	DatabaseURL  string `env:"DATABASE_URL"`

	ContentPath string `env:"CONTENT_PATH"`
	MessagesDir string `env:"MESSAGES_DIR"`
	DownloadDir string `env:"DOWNLOAD_DIR" envDefault:"downloads"`

	MemoryMatchDelay time.Duration `env:"MEMORY_MATCH_DELAY" envDefault:"500ms"`
	MemoryMissDelay  time.Duration `env:"MEMORY_MISS_DELAY" envDefault:"1s"`
	WordClueSeconds  int           `env:"WORD_CLUE_SECONDS" envDefault:"60"`
	WordGuessSeconds int           `env:"WORD_GUESS_SECONDS" envDefault:"30"`
	CanvasWidth      int           `env:"CANVAS_WIDTH" envDefault:"800"`
	CanvasHeight     int           `env:"CANVAS_HEIGHT" envDefault:"600"`
	TiePolicy        string        `env:"TIE_POLICY" envDefault:"split"`
}

// Load reads .env when present, then the process environment.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.finish()
}

// LoadFrom parses vars only. Used by tests and tools.
func LoadFrom(vars map[string]string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.finish()
}

func (c *AppConfig) finish() error {
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	c.EgressMode = strings.ToLower(strings.TrimSpace(c.EgressMode))
	c.BotPrefix = strings.TrimSpace(c.BotPrefix)
	c.TiePolicy = strings.ToLower(strings.TrimSpace(c.TiePolicy))
	rooms := c.AllowedRooms[:0]
	for _, r := range c.AllowedRooms {
		if s := strings.TrimSpace(r); s != "" {
			rooms = append(rooms, s)
		}
	}
	c.AllowedRooms = rooms

	switch c.Transport {
	case TransportConsole:
	case TransportIris:
		if strings.TrimSpace(c.IrisBaseURL) == "" {
			return errors.New("IRIS_BASE_URL is required")
		}
		if strings.TrimSpace(c.IrisWSURL) == "" {
			return errors.New("IRIS_WS_URL is required")
		}
	default:
		return fmt.Errorf("TRANSPORT must be console or iris, got %q", c.Transport)
	}
	if c.BotPrefix == "" {
		return errors.New("BOT_PREFIX is required")
	}
	if c.MemoryMatchDelay <= 0 || c.MemoryMissDelay <= 0 {
		return errors.New("memory delays must be positive")
	}
	if c.WordClueSeconds <= 0 || c.WordGuessSeconds <= 0 {
		return errors.New("word timers must be positive")
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return errors.New("canvas size must be positive")
	}
	return nil
}

// RoomAllowed is true when no allow-list is set or room is on it.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

// DumpEnv is the subset of settings logged at startup.
func (c *AppConfig) DumpEnv() map[string]string {
	return map[string]string{
		"TRANSPORT":     c.Transport,
		"EGRESS_MODE":   c.EgressMode,
		"STORE_BACKEND": c.StoreBackend,
		"BOT_PREFIX":    c.BotPrefix,
		"TIE_POLICY":    c.TiePolicy,
		"HOSTNAME":      os.Getenv("HOSTNAME"),
	}
}
