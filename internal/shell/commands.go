package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/adapter/playpresenter"
	"github.com/park285/playdate-bot/internal/canvas"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/memorymatch"
	"github.com/park285/playdate-bot/internal/roster"
	"github.com/park285/playdate-bot/internal/wordclue"
	"github.com/park285/playdate-bot/pkg/playdto"
)

const historyLimit = 10

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// result is what a command produced: the reply plus side effects run after s.mu is released.
type result struct {
	reply   Reply
	scene   *playdto.Scene // mirrored to the online partner
	records []domain.Result
}

func say(text string) result { return result{reply: Reply{Text: text}} }

// Exec runs one command line (prefix already stripped) and returns the reply.
func (s *Shell) Exec(ctx context.Context, userID, line string) Reply {
	fields := strings.Fields(line)
	f := s.deps.Formatter
	if len(fields) == 0 {
		return Reply{Text: f.Help()}
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	s.mu.Lock()
	res, err := s.dispatch(ctx, userID, cmd, args)
	l := s.link
	s.mu.Unlock()

	if err != nil {
		var in playdto.InputError
		if !errors.As(err, &in) {
			s.log.Warn("command_failed", zap.String("cmd", cmd), zap.Error(err))
		}
		return Reply{Text: f.Invalid(err.Error())}
	}
	for _, r := range res.records {
		s.record(r)
	}
	s.publish(l, res.scene)
	return res.reply
}

func invalid(code, msg string) error { return playdto.InputError{Code: code, Message: msg} }

// dispatch runs under s.mu.
func (s *Shell) dispatch(ctx context.Context, userID, cmd string, args []string) (result, error) {
	f := s.deps.Formatter
	switch cmd {
	case "help":
		return say(f.Help()), nil
	case "score":
		return say(f.Score(playpresenter.ToDTOScoreboard(s.roster.Cast(), s.store.Snapshot()))), nil
	case "games":
		return say(f.Games(s.deps.Pack.Games)), nil
	case "play":
		if len(args) == 0 {
			return say(f.Games(s.deps.Pack.Games)), nil
		}
		g, ok := s.deps.Pack.Game(strings.Join(args, " "))
		if !ok {
			return result{}, invalid("unknown_game", "unknown game "+strings.Join(args, " "))
		}
		r, scene, err := s.start(g)
		return result{reply: r, scene: scene}, err
	case "back":
		s.stopLocked()
		return say(f.GameLeft()), nil
	case "chars":
		return say(f.Characters(castSeats(s.roster.Cast()))), nil
	case "char":
		return s.char(ctx, args)
	case "avatar":
		return s.avatar(args)
	case "history":
		return s.history(ctx)
	case "online":
		return s.online(ctx, userID, args)
	}

	switch {
	case s.memory != nil:
		return s.memoryCmd(cmd, args)
	case s.word != nil:
		return s.wordCmd(cmd, args)
	case s.draw != nil:
		return s.drawCmd(cmd, args)
	}
	if gameCommands[cmd] {
		return say(f.NoGame()), nil
	}
	return say(f.Unknown()), nil
}

var gameCommands = map[string]bool{
	"flip": true, "restart": true, "start": true, "clue": true, "guess": true, "next": true,
	"color": true, "width": true, "stroke": true, "save": true, "clear": true, "prev": true, "download": true,
}

func castSeats(c domain.Cast) [2]playdto.Seat {
	return [2]playdto.Seat{playpresenter.ToDTOSeat(c.Of(domain.Player1)), playpresenter.ToDTOSeat(c.Of(domain.Player2))}
}

func parseSeat(args []string) (domain.PlayerID, error) {
	if len(args) == 0 {
		return "", invalid("seat", "pick player 1 or 2")
	}
	p, ok := domain.ParsePlayer(args[0])
	if !ok {
		return "", invalid("seat", "pick player 1 or 2")
	}
	return p, nil
}

func (s *Shell) char(ctx context.Context, args []string) (result, error) {
	p, err := parseSeat(args)
	if err != nil {
		return result{}, err
	}
	if len(args) < 2 {
		return say(s.deps.Formatter.Character(p.Index()+1, playpresenter.ToDTOSeat(s.roster.Get(p)))), nil
	}
	field := strings.ToLower(args[1])
	var c domain.Character
	if field == "random" {
		c = s.roster.Randomize(ctx, p)
	} else {
		if len(args) < 3 {
			return result{}, invalid("value", "missing value for "+field)
		}
		c, err = s.roster.Update(ctx, p, field, strings.Join(args[2:], " "))
		if err != nil {
			if errors.Is(err, roster.ErrUnknownField) || isCharacterError(err) {
				return result{}, invalid("character", err.Error())
			}
			return result{}, err
		}
	}
	text := s.deps.Formatter.CharacterUpdated(c.Name) + "\n" + s.deps.Formatter.Character(p.Index()+1, playpresenter.ToDTOSeat(c))
	r := Reply{Text: text}
	if img, err := s.deps.Avatars.PNG(c, domain.EmotionHappy, false); err == nil {
		r.Image = img
	}
	return result{reply: r}, nil
}

func isCharacterError(err error) bool {
	for _, target := range []error{domain.ErrNameEmpty, domain.ErrNameTooLong, domain.ErrInvalidColor, domain.ErrInvalidAccessory} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Shell) avatar(args []string) (result, error) {
	p, err := parseSeat(args)
	if err != nil {
		return result{}, err
	}
	c := s.roster.Get(p)
	img, err := s.deps.Avatars.PNG(c, domain.EmotionHappy, false)
	if err != nil {
		return result{}, err
	}
	return result{reply: Reply{Text: s.deps.Formatter.Character(p.Index()+1, playpresenter.ToDTOSeat(c)), Image: img}}, nil
}

func (s *Shell) history(ctx context.Context) (result, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	rs, err := s.deps.History.Recent(ctx, s.scope, historyLimit)
	if err != nil {
		return result{}, fmt.Errorf("load history: %w", err)
	}
	return say(s.deps.Formatter.History(playpresenter.ToDTOHistory(s.roster.Cast(), rs))), nil
}

func (s *Shell) memoryCmd(cmd string, args []string) (result, error) {
	f := s.deps.Formatter
	switch cmd {
	case "flip":
		if len(args) != 1 {
			return result{}, invalid("flip", fmt.Sprintf("pick a card 1-%d", memorymatch.DeckSize))
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > memorymatch.DeckSize {
			return result{}, invalid("flip", fmt.Sprintf("pick a card 1-%d", memorymatch.DeckSize))
		}
		snap, changed := s.memory.Flip(n - 1)
		if !changed {
			return result{}, nil
		}
		scene := playpresenter.MemoryScene(snap)
		return result{reply: Reply{Text: f.Scene(scene)}, scene: scene}, nil
	case "restart":
		s.started = s.deps.Clock.Now()
		scene := playpresenter.MemoryScene(s.memory.Restart())
		return result{reply: Reply{Text: f.Scene(scene)}, scene: scene}, nil
	}
	return say(f.Unknown()), nil
}

func (s *Shell) wordCmd(cmd string, args []string) (result, error) {
	var (
		snap    wordclue.Snapshot
		changed bool
	)
	text := strings.Join(args, " ")
	switch cmd {
	case "start":
		snap, changed = s.word.Start()
	case "clue":
		snap, changed = s.word.Clue(text)
	case "guess":
		snap, changed = s.word.Guess(text)
	case "next":
		snap, changed = s.word.Next()
	case "restart":
		s.started = s.deps.Clock.Now()
		snap, changed = s.word.Restart(), true
	default:
		return say(s.deps.Formatter.Unknown()), nil
	}
	if !changed {
		return result{}, nil
	}
	scene := playpresenter.WordScene(snap)
	res := result{reply: Reply{Text: s.deps.Formatter.Scene(scene)}, scene: scene}
	if snap.State.Phase == wordclue.PhaseResult {
		res.records = append(res.records, wordResult(s.scope, snap, s.started))
	}
	return res, nil
}

func (s *Shell) drawCmd(cmd string, args []string) (result, error) {
	f := s.deps.Formatter
	switch cmd {
	case "color":
		if len(args) != 1 {
			return result{}, invalid("color", canvas.ErrBadColor.Error())
		}
		if err := s.surface.SetColor(args[0]); err != nil {
			return result{}, invalid("color", err.Error())
		}
		return s.preview()
	case "width":
		n, err := strconv.Atoi(strings.Join(args, ""))
		if err != nil {
			return result{}, invalid("width", canvas.ErrStrokeWidth.Error())
		}
		if err := s.surface.SetWidth(n); err != nil {
			return result{}, invalid("width", err.Error())
		}
		return s.preview()
	case "stroke":
		pts, err := canvas.ParsePoints(args)
		if err != nil {
			return result{}, invalid("stroke", err.Error())
		}
		if err := s.surface.Stroke(pts); err != nil {
			return result{}, invalid("stroke", err.Error())
		}
		return s.preview()
	case "save":
		before := s.draw.Snapshot().State
		snap, err := s.draw.Save()
		if err != nil {
			return result{}, err
		}
		scene := playpresenter.CanvasScene(snap)
		scene.Image = snap.State.Gallery[len(snap.State.Gallery)-1]
		text := f.DrawSaved(len(snap.State.Gallery)) + "\n\n" + f.Scene(scene)
		return result{
			reply:   Reply{Text: text, Image: scene.Image},
			scene:   scene,
			records: []domain.Result{canvasResult(s.scope, snap, before.Current, before.Prompt)},
		}, nil
	case "clear":
		snap, err := s.draw.Clear()
		if err != nil {
			return result{}, err
		}
		scene := playpresenter.CanvasScene(snap)
		return result{reply: Reply{Text: f.Scene(scene)}, scene: scene}, nil
	case "prev", "next":
		dir := 1
		if cmd == "prev" {
			dir = -1
		}
		snap, ok, err := s.draw.Navigate(dir)
		if err != nil {
			return result{}, err
		}
		if !ok {
			return result{}, nil
		}
		scene := playpresenter.CanvasScene(snap)
		return result{reply: Reply{Text: f.Scene(scene), Image: snap.State.Gallery[snap.State.View]}}, nil
	case "download":
		snap, img, err := s.draw.Download()
		if err != nil {
			return result{}, err
		}
		path, err := s.writeDownload(img)
		if err != nil {
			return result{}, err
		}
		text := f.Downloaded(path) + "\n\n" + f.Scene(playpresenter.CanvasScene(snap))
		return result{reply: Reply{Text: text, Image: img}}, nil
	}
	return say(f.Unknown()), nil
}

func (s *Shell) preview() (result, error) {
	img, err := s.draw.Preview()
	if err != nil {
		return result{}, err
	}
	return result{reply: Reply{Image: img}}, nil
}

func (s *Shell) writeDownload(img []byte) (string, error) {
	if err := os.MkdirAll(s.deps.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	name := fmt.Sprintf("%s-drawing-%s.png", strings.Trim(unsafeFileChars.ReplaceAllString(s.scope, "_"), "_"), s.deps.Clock.Now().Format("20060102-150405"))
	path := filepath.Join(s.deps.DownloadDir, name)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return "", fmt.Errorf("write drawing: %w", err)
	}
	return path, nil
}
