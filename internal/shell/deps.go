// Package shell routes chat commands to a per-room game shell: the session score, both
// characters, at most one running game and an optional online link.
package shell

import (
	"go.uber.org/zap"

	"github.com/park285/playdate-bot/internal/adapter/playpresenter"
	"github.com/park285/playdate-bot/internal/avatar"
	"github.com/park285/playdate-bot/internal/canvas"
	"github.com/park285/playdate-bot/internal/clock"
	"github.com/park285/playdate-bot/internal/content"
	"github.com/park285/playdate-bot/internal/history"
	"github.com/park285/playdate-bot/internal/kvstore"
	"github.com/park285/playdate-bot/internal/memorymatch"
	"github.com/park285/playdate-bot/internal/msgcat"
	"github.com/park285/playdate-bot/internal/pairing"
	"github.com/park285/playdate-bot/internal/wordclue"
)

// Deps are shared by every shell of a Hub. Zero fields get in-memory defaults.
type Deps struct {
	Pack      *content.Pack
	Catalog   *msgcat.Catalog
	KV        kvstore.Store
	History   history.Repository
	Pairing   *pairing.Manager // nil disables online play
	Presenter *playpresenter.Presenter
	Formatter *playpresenter.Formatter
	Avatars   *avatar.Renderer
	Clock     clock.Clock
	Picker    *content.Picker

	Memory       memorymatch.Rules
	Word         wordclue.Rules
	CanvasWidth  int
	CanvasHeight int
	DownloadDir  string
	Prefix       string

	Logger *zap.Logger
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Pack == nil {
		d.Pack = content.Default()
	}
	if d.Catalog == nil {
		d.Catalog = msgcat.Default()
	}
	if d.KV == nil {
		d.KV = kvstore.NewMemory()
	}
	if d.History == nil {
		d.History = history.NewMemory()
	}
	if d.Prefix == "" {
		d.Prefix = "!"
	}
	if d.Formatter == nil {
		d.Formatter = playpresenter.NewFormatter(prefixProvider{prefix: d.Prefix}, d.Catalog)
	}
	if d.Avatars == nil {
		d.Avatars = avatar.NewRenderer(avatar.DefaultSize)
	}
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Picker == nil {
		d.Picker = content.NewPicker(nil)
	}
	d.Memory = d.Memory.WithDefaults()
	if d.Word.ClueSeconds <= 0 {
		d.Word.ClueSeconds = wordclue.DefaultClueSeconds
	}
	if d.Word.GuessSeconds <= 0 {
		d.Word.GuessSeconds = wordclue.DefaultGuessSecs
	}
	if d.CanvasWidth <= 0 || d.CanvasHeight <= 0 {
		d.CanvasWidth, d.CanvasHeight = canvas.DefaultWidth, canvas.DefaultHeight
	}
	if d.DownloadDir == "" {
		d.DownloadDir = "downloads"
	}
}
