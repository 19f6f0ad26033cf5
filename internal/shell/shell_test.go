package shell

import (
	"context"
	"math/rand"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/playdate-bot/internal/adapter/playpresenter"
	"github.com/park285/playdate-bot/internal/clock"
	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/domain"
	"github.com/park285/playdate-bot/internal/game"
	"github.com/park285/playdate-bot/internal/history"
	"github.com/park285/playdate-bot/internal/memorymatch"
	"github.com/park285/playdate-bot/internal/pairing"
	"github.com/park285/playdate-bot/internal/wordclue"
)

type outbox struct {
	mu     sync.Mutex
	texts  map[string][]string
	images map[string]int
}

func newOutbox() *outbox {
	return &outbox{texts: make(map[string][]string), images: make(map[string]int)}
}

func (o *outbox) presenter() *playpresenter.Presenter {
	return playpresenter.NewPresenter(
		func(room, msg string) error {
			o.mu.Lock()
			o.texts[room] = append(o.texts[room], msg)
			o.mu.Unlock()
			return nil
		},
		func(room, _ string) error {
			o.mu.Lock()
			o.images[room]++
			o.mu.Unlock()
			return nil
		},
	)
}

func (o *outbox) find(room, substr string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range o.texts[room] {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

func (o *outbox) count(room string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.texts[room])
}

type fixture struct {
	hub  *Hub
	out  *outbox
	fc   *clock.Fake
	hist history.Repository
	dir  string
}

func newFixture(t *testing.T, pairer *pairing.Manager) *fixture {
	t.Helper()
	pack := *content.Default()
	pack.Words = []string{"sunset"}
	f := &fixture{out: newOutbox(), fc: clock.NewFake(), hist: history.NewMemory(), dir: t.TempDir()}
	f.hub = NewHub(Deps{
		Pack:        &pack,
		History:     f.hist,
		Pairing:     pairer,
		Presenter:   f.out.presenter(),
		Clock:       f.fc,
		Picker:      content.NewPicker(rand.New(rand.NewSource(7))),
		DownloadDir: f.dir,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = f.hub.Close(ctx)
	})
	return f
}

func (f *fixture) shell(t *testing.T, room string) *Shell {
	t.Helper()
	s, err := f.hub.Shell(context.Background(), room)
	if err != nil {
		t.Fatalf("Shell: %v", err)
	}
	return s
}

func TestHandleNeedsPrefix(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if err := f.hub.Handle(ctx, "r", "u", "help"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if f.out.count("r") != 0 {
		t.Fatalf("unprefixed line answered")
	}
	if err := f.hub.Handle(ctx, "r", "u", "  !help"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if f.out.count("r") != 1 {
		t.Fatalf("help not sent")
	}
}

func TestNoGameAndUnknown(t *testing.T) {
	f := newFixture(t, nil)
	s := f.shell(t, "r")
	ctx := context.Background()
	fm := f.hub.deps.Formatter
	if got := s.Exec(ctx, "u", "flip 1"); got.Text != fm.NoGame() {
		t.Fatalf("flip without game = %q", got.Text)
	}
	if got := s.Exec(ctx, "u", "dance"); got.Text != fm.Unknown() {
		t.Fatalf("unknown = %q", got.Text)
	}
	if got := s.Exec(ctx, "u", "play chess"); !strings.Contains(got.Text, "unknown game") {
		t.Fatalf("play chess = %q", got.Text)
	}
}

func TestWordRoundScoresAndRecords(t *testing.T) {
	f := newFixture(t, nil)
	s := f.shell(t, "r")
	ctx := context.Background()

	if got := s.Exec(ctx, "u", "play word"); got.Text == "" || s.Active() != domain.GameWordGuess {
		t.Fatalf("play word: %q active=%q", got.Text, s.Active())
	}
	if got := s.Exec(ctx, "u", "guess sunset"); !got.empty() {
		t.Fatalf("guess before start answered: %q", got.Text)
	}
	s.Exec(ctx, "u", "start")
	if got := s.Exec(ctx, "u", "clue warm evening sky"); !strings.Contains(got.Text, "warm evening sky") || strings.Contains(got.Text, "sunset") {
		t.Fatalf("clue reply:\n%s", got.Text)
	}
	got := s.Exec(ctx, "u", "guess Sunset")
	if !strings.Contains(got.Text, "sunset") {
		t.Fatalf("result reply:\n%s", got.Text)
	}
	if sc := s.Session().Score; sc.Player2 != 5 || sc.Player1 != 0 {
		t.Fatalf("score = %+v", sc)
	}
	rs, err := f.hist.Recent(ctx, "r", 5)
	if err != nil || len(rs) != 1 {
		t.Fatalf("history = %v, %v", rs, err)
	}
	if rs[0].Game != domain.GameWordGuess || rs[0].Winner != domain.Player2 || rs[0].Detail != "sunset" {
		t.Fatalf("result = %+v", rs[0])
	}
}

func TestMemoryResolvesOnTimer(t *testing.T) {
	f := newFixture(t, nil)
	s := f.shell(t, "r")
	ctx := context.Background()

	s.Exec(ctx, "u", "play memory")
	if got := s.Exec(ctx, "u", "flip 17"); !strings.Contains(got.Text, "1-16") {
		t.Fatalf("flip 17 = %q", got.Text)
	}
	if got := s.Exec(ctx, "u", "flip 1"); got.empty() {
		t.Fatalf("first flip ignored")
	}
	if got := s.Exec(ctx, "u", "flip 1"); !got.empty() {
		t.Fatalf("same card flipped twice: %q", got.Text)
	}
	s.Exec(ctx, "u", "flip 2")
	if got := s.Exec(ctx, "u", "flip 3"); !got.empty() {
		t.Fatalf("third flip accepted while resolving")
	}

	before := f.out.count("r")
	f.fc.Advance(time.Second)
	if f.out.count("r") <= before {
		t.Fatalf("no push after resolution")
	}
	if !f.out.find("r", "Pairs") {
		t.Fatalf("pushed text is not a board")
	}
}

func TestBackDropsPendingTimer(t *testing.T) {
	f := newFixture(t, nil)
	s := f.shell(t, "r")
	ctx := context.Background()

	s.Exec(ctx, "u", "play memory")
	s.Exec(ctx, "u", "flip 1")
	s.Exec(ctx, "u", "flip 2")
	s.Exec(ctx, "u", "back")
	before := f.out.count("r")
	f.fc.Advance(time.Second)
	if f.out.count("r") != before || s.Active() != "" {
		t.Fatalf("closed engine still pushing")
	}
}

func TestCanvasSaveAndDownload(t *testing.T) {
	f := newFixture(t, nil)
	s := f.shell(t, "room/1")
	ctx := context.Background()

	s.Exec(ctx, "u", "play draw")
	if got := s.Exec(ctx, "u", "width 99"); !strings.Contains(got.Text, "stroke width") {
		t.Fatalf("width 99 = %q", got.Text)
	}
	if got := s.Exec(ctx, "u", "stroke 10,10 120,80"); len(got.Image) == 0 {
		t.Fatalf("stroke returned no preview")
	}
	if got := s.Exec(ctx, "u", "save"); len(got.Image) == 0 {
		t.Fatalf("save returned no image")
	}
	if sc := s.Session().Score; sc.Player1 != 3 {
		t.Fatalf("score = %+v", sc)
	}
	if rs, _ := f.hist.Recent(ctx, "room/1", 5); len(rs) != 1 || rs[0].Winner != domain.Player1 {
		t.Fatalf("history = %+v", rs)
	}

	got := s.Exec(ctx, "u", "download")
	if len(got.Image) == 0 {
		t.Fatalf("download returned no image")
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("download dir = %v, %v", entries, err)
	}
	if name := entries[0].Name(); !strings.HasPrefix(name, "room_1-drawing-") || !strings.HasSuffix(name, ".png") {
		t.Fatalf("file name = %q", name)
	}
}

func TestCharacterCommands(t *testing.T) {
	f := newFixture(t, nil)
	s := f.shell(t, "r")
	ctx := context.Background()

	if got := s.Exec(ctx, "u", "char 1 name Mina"); len(got.Image) == 0 || !strings.Contains(got.Text, "Mina") {
		t.Fatalf("rename reply = %q", got.Text)
	}
	if s.roster.Get(domain.Player1).Name != "Mina" {
		t.Fatalf("name not stored")
	}
	if got := s.Exec(ctx, "u", "char 3 name Bo"); !strings.Contains(got.Text, "player 1 or 2") {
		t.Fatalf("bad seat = %q", got.Text)
	}
	if got := s.Exec(ctx, "u", "char 2 hair blue"); !strings.Contains(got.Text, "#RRGGBB") {
		t.Fatalf("bad color = %q", got.Text)
	}
	if got := s.Exec(ctx, "u", "char 2 random"); s.roster.Get(domain.Player2).Name != domain.DefaultCharacter(domain.Player2).Name || got.Text == "" {
		t.Fatalf("random changed the name")
	}
}

var codePattern = regexp.MustCompile(`PD-[A-Z0-9]+`)

func TestOnlineMirrorsPartnerScenes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close(); mr.Close() })

	f := newFixture(t, pairing.NewManager(rdb))
	ctx := context.Background()
	host, guest := f.shell(t, "roomA"), f.shell(t, "roomB")

	created := host.Exec(ctx, "u1", "online create")
	code := codePattern.FindString(created.Text)
	if code == "" || len(created.Image) == 0 {
		t.Fatalf("create reply = %q", created.Text)
	}
	joined := guest.Exec(ctx, "u2", "online join "+code)
	if !strings.Contains(joined.Text, code) || guest.Active() != domain.GameMemoryMatch {
		t.Fatalf("join reply = %q active=%q", joined.Text, guest.Active())
	}

	deadline := time.Now().Add(3 * time.Second)
	for !f.out.find("roomA", "Partner update") {
		if time.Now().After(deadline) {
			t.Fatalf("host never saw the guest's scene")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if f.out.find("roomB", "Partner update") {
		t.Fatalf("guest mirrored its own scene")
	}

	if got := guest.Exec(ctx, "u3", "online join PD-NOPE00"); !strings.Contains(got.Text, "session") {
		t.Fatalf("bad code = %q", got.Text)
	}
}

func TestOnlineDisabledWithoutPairing(t *testing.T) {
	f := newFixture(t, nil)
	s := f.shell(t, "r")
	if got := s.Exec(context.Background(), "u", "online create"); !strings.Contains(got.Text, "not configured") {
		t.Fatalf("online create = %q", got.Text)
	}
}

func TestPartialRulesAreCompleted(t *testing.T) {
	h := NewHub(Deps{Memory: memorymatch.Rules{Tie: game.TiePlayer1}, Word: wordclue.Rules{GuessSeconds: 10}})
	if m := h.deps.Memory; m.MatchDelay <= 0 || m.MissDelay <= 0 || m.Tie != game.TiePlayer1 {
		t.Fatalf("memory rules = %+v", m)
	}
	if w := h.deps.Word; w.ClueSeconds != wordclue.DefaultClueSeconds || w.GuessSeconds != 10 {
		t.Fatalf("word rules = %+v", w)
	}
}
