package shell

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/pairing"
	"github.com/park285/playdate-bot/pkg/playdto"
)

// link is the room's subscription to an online session.
type link struct {
	id     string
	code   string
	user   string
	cancel context.CancelFunc
}

// online handles "online create|join <code>|leave". Runs under s.mu.
func (s *Shell) online(ctx context.Context, userID string, args []string) (result, error) {
	f := s.deps.Formatter
	if s.deps.Pairing == nil {
		return result{}, invalid("online", "online play is not configured")
	}
	if len(args) == 0 {
		return result{}, invalid("online", "use online create, online join <code> or online leave")
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	switch strings.ToLower(args[0]) {
	case "create":
		kind := domain.GameMemoryMatch
		if s.engine != nil {
			kind = s.engine.Kind()
		}
		res, err := s.deps.Pairing.Create(ctx, kind, s.scope, userID)
		if err != nil {
			return result{}, err
		}
		if err := s.attach(res.Session, userID); err != nil {
			return result{}, err
		}
		return result{reply: Reply{Text: f.OnlineCreated(res.Session.Code), Image: res.QR}}, nil
	case "join":
		if len(args) < 2 {
			return result{}, invalid("online", "missing join code")
		}
		sess, err := s.deps.Pairing.Join(ctx, args[1], s.scope, userID)
		if err != nil {
			if errors.Is(err, pairing.ErrSessionGone) || errors.Is(err, pairing.ErrFull) || errors.Is(err, pairing.ErrNotLobby) {
				return result{}, invalid("online", err.Error())
			}
			return result{}, err
		}
		if err := s.attach(sess, userID); err != nil {
			return result{}, err
		}
		text := f.OnlineJoined(sess.Code)
		res := result{reply: Reply{Text: text}}
		if s.engine == nil {
			if g, ok := s.deps.Pack.Game(string(sess.Game)); ok {
				r, scene, err := s.start(g)
				if err != nil {
					return result{}, err
				}
				res.reply = Reply{Text: text + "\n\n" + r.Text, Image: r.Image}
				res.scene = scene
			}
		}
		return res, nil
	case "leave":
		if s.link == nil {
			return result{}, invalid("online", "not in an online session")
		}
		l := s.link
		s.detachLocked()
		if err := s.deps.Pairing.Leave(ctx, l.id, l.user); err != nil && !errors.Is(err, pairing.ErrSessionGone) {
			return result{}, err
		}
		return say(f.OnlineLeft()), nil
	}
	return result{}, invalid("online", "use online create, online join <code> or online leave")
}

// attach replaces the room's link and mirrors the partner's scenes into the room.
func (s *Shell) attach(sess *pairing.Session, userID string) error {
	s.detachLocked()
	ctx, cancel := context.WithCancel(context.Background())
	updates, err := s.deps.Pairing.Subscribe(ctx, sess.ID)
	if err != nil {
		cancel()
		return err
	}
	l := &link{id: sess.ID, code: sess.Code, user: userID, cancel: cancel}
	s.link = l
	s.log.Info("online_attach", zap.String("session_id", sess.ID), zap.String("code", sess.Code))
	go s.mirror(l, updates)
	return nil
}

func (s *Shell) detachLocked() {
	if s.link != nil {
		s.link.cancel()
		s.link = nil
	}
}

func (s *Shell) mirror(l *link, updates <-chan pairing.Update) {
	for u := range updates {
		if u.From == l.user {
			continue
		}
		var scene playdto.Scene
		if err := json.Unmarshal(u.Payload, &scene); err != nil {
			s.log.Warn("online_scene_decode", zap.String("session_id", l.id), zap.Error(err))
			continue
		}
		s.push(Reply{Text: s.deps.Formatter.OnlineUpdate(s.deps.Formatter.Scene(&scene))})
	}
}
