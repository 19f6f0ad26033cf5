package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/adapter/playpresenter"
	appcfg "github.com/park285/playdate-bot/internal/config"
	"github.com/park285/playdate-bot/internal/chatlink"
	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/game"
	"github.com/park285/playdate-bot/internal/history"
	"github.com/park285/playdate-bot/internal/kvstore"
	"github.com/park285/playdate-bot/internal/memorymatch"
	"github.com/park285/playdate-bot/internal/msgcat"
	"github.com/park285/playdate-bot/internal/obslog"
	"github.com/park285/playdate-bot/internal/pairing"
	"github.com/park285/playdate-bot/internal/shell"
	"github.com/park285/playdate-bot/internal/wordclue"
)

const consoleRoom = "local"

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closeDeps, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init_failed", zap.Error(err))
	}
	defer closeDeps()

	switch cfg.Transport {
	case appcfg.TransportIris:
		err = runIris(ctx, cfg, deps, logger)
	default:
		err = runConsole(ctx, cfg, deps, os.Stdin, os.Stdout)
	}
	if err != nil {
		logger.Error("transport_stopped", zap.String("transport", cfg.Transport), zap.Error(err))
	}
}

// buildDeps opens the stores. The returned func closes whatever was opened.
func buildDeps(ctx context.Context, cfg *appcfg.AppConfig, logger *zap.Logger) (shell.Deps, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	pack, err := content.Load(cfg.ContentPath)
	if err != nil {
		return shell.Deps{}, closeAll, fmt.Errorf("content: %w", err)
	}
	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return shell.Deps{}, closeAll, fmt.Errorf("messages: %w", err)
	}
	tie, ok := game.ParseTiePolicy(cfg.TiePolicy)
	if !ok {
		return shell.Deps{}, closeAll, fmt.Errorf("unknown TIE_POLICY %q", cfg.TiePolicy)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := kvstore.Open(dialCtx, kvstore.Config{Backend: cfg.StoreBackend, RedisURL: cfg.RedisURL, SQLitePath: cfg.SQLitePath})
	if err != nil {
		return shell.Deps{}, closeAll, fmt.Errorf("store: %w", err)
	}
	closers = append(closers, kv.Close)
	logger.Info("store_open", zap.String("backend", kvstore.Config{Backend: cfg.StoreBackend, RedisURL: cfg.RedisURL, SQLitePath: cfg.SQLitePath}.Resolve()))

	repo := history.NewMemory()
	if cfg.DatabaseURL != "" {
		pg, err := history.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return shell.Deps{}, func() {}, fmt.Errorf("history: %w", err)
		}
		repo = pg
	}
	closers = append(closers, repo.Close)

	var pairer *pairing.Manager
	if cfg.RedisURL != "" {
		var rdb *redis.Client
		if r, ok := kv.(*kvstore.Redis); ok {
			rdb = r.Client()
		} else {
			rdb, err = kvstore.DialRedis(dialCtx, cfg.RedisURL)
			if err != nil {
				closeAll()
				return shell.Deps{}, func() {}, fmt.Errorf("pairing: %w", err)
			}
			closers = append(closers, rdb.Close)
		}
		pairer = pairing.NewManager(rdb)
	}

	deps := shell.Deps{
		Pack:    pack,
		Catalog: cat,
		KV:      kv,
		History: repo,
		Pairing: pairer,
		Memory: memorymatch.Rules{
			MatchDelay: cfg.MemoryMatchDelay,
			MissDelay:  cfg.MemoryMissDelay,
			Tie:        tie,
		},
		Word:         wordclue.Rules{ClueSeconds: cfg.WordClueSeconds, GuessSeconds: cfg.WordGuessSeconds},
		CanvasWidth:  cfg.CanvasWidth,
		CanvasHeight: cfg.CanvasHeight,
		DownloadDir:  cfg.DownloadDir,
		Prefix:       cfg.BotPrefix,
		Logger:       logger,
	}
	return deps, closeAll, nil
}

func closeHub(hub *shell.Hub, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hub.Close(ctx); err != nil {
		logger.Warn("hub_close_failed", zap.Error(err))
	}
}

// runConsole plays in a terminal: one room, one user, prefix optional.
func runConsole(ctx context.Context, cfg *appcfg.AppConfig, deps shell.Deps, in io.Reader, out io.Writer) error {
	deps.Presenter = playpresenter.NewPresenter(
		func(_, message string) error {
			_, err := fmt.Fprintln(out, message)
			return err
		},
		func(_, imageBase64 string) error {
			_, err := fmt.Fprintf(out, "[image %d bytes base64]\n", len(imageBase64))
			return err
		},
	)
	hub := shell.NewHub(deps)
	defer closeHub(hub, deps.Logger)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	fmt.Fprintf(out, "Type %shelp to begin.\n", cfg.BotPrefix)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if !strings.HasPrefix(line, cfg.BotPrefix) {
				line = cfg.BotPrefix + line
			}
			if err := hub.Handle(ctx, consoleRoom, "player", line); err != nil {
				return err
			}
		}
	}
}

func runIris(ctx context.Context, cfg *appcfg.AppConfig, deps shell.Deps, logger *zap.Logger) error {
	headers := func() map[string]string {
		h := map[string]string{}
		if cfg.XUserID != "" {
			h["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			h["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			h["X-Session-Id"] = cfg.XSessionID
		}
		return h
	}

	client := chatlink.NewClient(cfg.IrisBaseURL, chatlink.WithHeaderProvider(headers), chatlink.WithRetry(2))
	ws := chatlink.NewWebSocket(cfg.IrisWSURL, 5, time.Second, logger)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state chatlink.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
	})
	egress := chatlink.NewEgress(cfg.EgressMode, cfg.EgressDry, client, ws, logger)

	deps.Presenter = playpresenter.NewPresenter(
		func(room, message string) error { return egress.SendText(context.Background(), room, message) },
		func(room, imageBase64 string) error { return egress.SendImage(context.Background(), room, imageBase64) },
	)
	hub := shell.NewHub(deps)
	defer closeHub(hub, logger)

	ws.OnMessage(func(msg *chatlink.Message) {
		if msg == nil || msg.Msg == "" {
			return
		}
		if !cfg.RoomAllowed(msg.Room) {
			logger.Debug("room_ignored", zap.String("room", msg.Room))
			return
		}
		// Keep the ws read loop free.
		go func() {
			if err := hub.Handle(ctx, msg.Room, msg.UserID(), msg.Msg); err != nil {
				logger.Warn("handle_failed", zap.String("room", msg.Room), zap.Error(err))
			}
		}()
	})

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := ws.Connect(cctx)
	cancel()
	if err != nil {
		return fmt.Errorf("ws connect: %w", err)
	}
	logger.Info("iris_ready", zap.String("ws", cfg.IrisWSURL), zap.String("egress", cfg.EgressMode))

	<-ctx.Done()
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	return ws.Close(closeCtx)
}
