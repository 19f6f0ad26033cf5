package shell

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("shell: hub closed")

// Hub keeps one Shell per room.
type Hub struct {
	deps *Deps
	log  *zap.Logger

	mu     sync.Mutex
	shells map[string]*Shell
	closed bool
}

func NewHub(deps Deps) *Hub {
	deps.defaults()
	return &Hub{deps: &deps, log: deps.Logger, shells: make(map[string]*Shell)}
}

// Shell returns the room's shell, loading its session and characters on first use.
func (h *Hub) Shell(ctx context.Context, room string) (*Shell, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	if s, ok := h.shells[room]; ok {
		return s, nil
	}
	s := newShell(ctx, room, h.deps, func(r Reply) { h.deliver(room, r) })
	h.shells[room] = s
	h.log.Info("shell_open", zap.String("room", room))
	return s, nil
}

// Handle runs one chat line. Lines without the command prefix are ignored.
func (h *Hub) Handle(ctx context.Context, room, userID, text string) error {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, h.deps.Prefix) {
		return nil
	}
	s, err := h.Shell(ctx, room)
	if err != nil {
		return err
	}
	reply := s.Exec(ctx, userID, strings.TrimPrefix(text, h.deps.Prefix))
	return h.send(room, reply)
}

func (h *Hub) send(room string, r Reply) error {
	p := h.deps.Presenter
	if r.empty() {
		return nil
	}
	if err := p.Text(room, r.Text); err != nil {
		return err
	}
	return p.Image(room, r.Image)
}

// deliver is the push path for timer-driven updates.
func (h *Hub) deliver(room string, r Reply) {
	if err := h.send(room, r); err != nil {
		h.log.Warn("push_failed", zap.String("room", room), zap.Error(err))
	}
}

// Close shuts every shell down and drains pending session writes.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	shells := make([]*Shell, 0, len(h.shells))
	for _, s := range h.shells {
		shells = append(shells, s)
	}
	h.mu.Unlock()

	var errs []error
	for _, s := range shells {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
