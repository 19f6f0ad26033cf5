// Command chatcheck probes the chat relay: /config over HTTP, then the websocket for a
// short window, printing every inbound line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/playdate-bot/internal/config"
	"github.com/park285/playdate-bot/internal/chatlink"
	"github.com/park285/playdate-bot/internal/obslog"
)

func main() {
	window := flag.Duration("window", 10*time.Second, "how long to watch the websocket")
	flag.Parse()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.IrisBaseURL == "" {
		log.Fatal("IRIS_BASE_URL is required")
	}
	_ = obslog.InitFromEnv()
	logger := obslog.L()

	headers := func() map[string]string {
		m := map[string]string{}
		if cfg.XUserID != "" {
			m["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			m["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			m["X-Session-Id"] = cfg.XSessionID
		}
		return m
	}

	client := chatlink.NewClient(cfg.IrisBaseURL,
		chatlink.WithHeaderProvider(headers),
		chatlink.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rc, err := client.GetConfig(ctx)
	if err != nil {
		log.Printf("/config error: %v", err)
	} else {
		log.Printf("/config ok: port=%d polling=%d rate=%d endpoint=%s", rc.Port, rc.PollingSpeed, rc.MessageRate, rc.WebserverEndpoint)
	}

	if cfg.IrisWSURL == "" {
		log.Println("IRIS_WS_URL not set; skipping WS check")
		return
	}

	ws := chatlink.NewWebSocket(cfg.IrisWSURL, 5, time.Second, logger)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state chatlink.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
		log.Printf("WS state: %s", state)
	})
	ws.OnMessage(func(msg *chatlink.Message) {
		fmt.Printf("WS msg room=%s from=%s text=%q\n", msg.Room, msg.SenderName(), msg.Msg)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	t := time.NewTimer(*window)
	<-t.C

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer closeCancel()
	_ = ws.Close(closeCtx)
}
