package chatlink

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var (
	errNotConnected = errors.New("ws not connected")
	errNoHTTP       = errors.New("http egress not available")
)

// Egress sends replies to a room.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

const (
	ModeHTTP = "http"
	ModeWS   = "ws"
	ModeAuto = "auto"
)

// NewEgress picks the reply path. Auto prefers the websocket when connected and falls back
// to HTTP once. With dryrun, nothing is sent and each reply is logged instead.
func NewEgress(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dryrun {
		return &dryEgress{logger: logger}
	}
	switch mode {
	case ModeWS:
		return &wsEgress{ws: ws}
	case ModeAuto:
		return &autoEgress{ws: &wsEgress{ws: ws}, http: &httpEgress{c: c}, logger: logger}
	default:
		return &httpEgress{c: c}
	}
}

type httpEgress struct{ c *Client }

func (h *httpEgress) SendText(ctx context.Context, room, message string) error {
	if h.c == nil {
		return errNoHTTP
	}
	return h.c.SendMessage(ctx, room, message)
}

func (h *httpEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if h.c == nil {
		return errNoHTTP
	}
	return h.c.SendImage(ctx, room, imageBase64)
}

type wsEgress struct{ ws *WebSocket }

func (w *wsEgress) connected() bool { return w.ws != nil && w.ws.State() == WSStateConnected }

func (w *wsEgress) SendText(ctx context.Context, room, message string) error {
	if w.ws == nil {
		return errNotConnected
	}
	return w.ws.WriteJSON(ctx, ReplyRequest{Type: "text", Room: room, Data: message})
}

func (w *wsEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if w.ws == nil {
		return errNotConnected
	}
	return w.ws.WriteJSON(ctx, ReplyRequest{Type: "image", Room: room, Data: imageBase64})
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) SendText(ctx context.Context, room, message string) error {
	if a.ws.connected() {
		if err := a.ws.SendText(ctx, room, message); err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "text"), zap.String("room", room))
	}
	return a.http.SendText(ctx, room, message)
}

func (a *autoEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if a.ws.connected() {
		if err := a.ws.SendImage(ctx, room, imageBase64); err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "image"), zap.String("room", room))
	}
	return a.http.SendImage(ctx, room, imageBase64)
}

type dryEgress struct{ logger *zap.Logger }

func (d *dryEgress) SendText(_ context.Context, room, message string) error {
	d.logger.Info("egress_dryrun", zap.String("type", "text"), zap.String("room", room), zap.Int("len", len(message)))
	return nil
}

func (d *dryEgress) SendImage(_ context.Context, room, imageBase64 string) error {
	d.logger.Info("egress_dryrun", zap.String("type", "image"), zap.String("room", room), zap.Int("len", len(imageBase64)))
	return nil
}
