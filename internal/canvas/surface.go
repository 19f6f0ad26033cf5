package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	MinStrokeWidth = 1
	MaxStrokeWidth = 50
	DefaultWidth   = 800
	DefaultHeight  = 600
	captionHeight  = 28
)

var (
	ErrStrokeWidth = fmt.Errorf("stroke width must be %d-%d", MinStrokeWidth, MaxStrokeWidth)
	ErrBadColor    = errors.New("color must be #RRGGBB")
	ErrBadPoint    = errors.New("points are x,y pairs inside the canvas")
)

type Point struct{ X, Y float64 }

// RasterSurface is an in-memory drawing board: white background, round-capped strokes.
type RasterSurface struct {
	mu    sync.Mutex
	img   *image.RGBA
	color color.RGBA
	width float64
}

func NewRasterSurface(w, h int) *RasterSurface {
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	s := &RasterSurface{img: image.NewRGBA(image.Rect(0, 0, w, h)), color: color.RGBA{A: 0xff}, width: 5}
	s.fillWhite()
	return s
}

func (s *RasterSurface) fillWhite() {
	imagedraw.Draw(s.img, s.img.Bounds(), image.NewUniform(color.White), image.Point{}, imagedraw.Src)
}

func (s *RasterSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// SetColor takes #RRGGBB.
func (s *RasterSurface) SetColor(hex string) error {
	c, err := parseHex(hex)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.color = c
	s.mu.Unlock()
	return nil
}

func (s *RasterSurface) SetWidth(w int) error {
	if w < MinStrokeWidth || w > MaxStrokeWidth {
		return ErrStrokeWidth
	}
	s.mu.Lock()
	s.width = float64(w)
	s.mu.Unlock()
	return nil
}

func (s *RasterSurface) Pen() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("#%02X%02X%02X", s.color.R, s.color.G, s.color.B), int(s.width)
}

// Stroke draws a polyline through pts with the current pen. A single point is a dot.
func (s *RasterSurface) Stroke(pts []Point) error {
	if len(pts) == 0 {
		return ErrBadPoint
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.img.Bounds()
	for _, p := range pts {
		// negated so NaN is rejected
		if !(p.X >= 0 && p.Y >= 0 && p.X <= float64(b.Dx()) && p.Y <= float64(b.Dy())) {
			return ErrBadPoint
		}
	}
	if len(pts) == 1 {
		pts = append(pts, Point{X: pts[0].X + 0.01, Y: pts[0].Y})
	}

	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), s.img, b)
	d := rasterx.NewDasher(b.Dx(), b.Dy(), scanner)
	d.SetStroke(fixed.Int26_6(s.width*64), 4<<6, rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.Round, nil, 0)
	d.SetColor(s.color)
	d.Start(rasterx.ToFixedP(pts[0].X, pts[0].Y))
	for _, p := range pts[1:] {
		d.Line(rasterx.ToFixedP(p.X, p.Y))
	}
	d.Stop(false)
	d.Draw()
	return nil
}

func (s *RasterSurface) Clear() {
	s.mu.Lock()
	s.fillWhite()
	s.mu.Unlock()
}

// Snapshot encodes the board as PNG.
func (s *RasterSurface) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodePNG(s.img)
}

// Load replaces the board with a PNG, scaled to fit.
func (s *RasterSurface) Load(blob []byte) error {
	src, err := png.Decode(bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fillWhite()
	xdraw.CatmullRom.Scale(s.img, s.img.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return nil
}

// Export renders the board with a caption strip underneath.
func (s *RasterSurface) Export(caption string) ([]byte, error) {
	s.mu.Lock()
	b := s.img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+captionHeight))
	imagedraw.Draw(out, b, s.img, b.Min, imagedraw.Src)
	s.mu.Unlock()

	strip := image.Rect(0, b.Dy(), b.Dx(), b.Dy()+captionHeight)
	imagedraw.Draw(out, strip, image.NewUniform(color.RGBA{R: 0xFF, G: 0xE4, B: 0xEC, A: 0xFF}), image.Point{}, imagedraw.Src)
	if caption = strings.TrimSpace(caption); caption != "" {
		face := basicfont.Face7x13
		drawer := &font.Drawer{Dst: out, Src: image.NewUniform(color.RGBA{R: 0x6B, G: 0x3F, B: 0xA0, A: 0xFF}), Face: face}
		w := drawer.MeasureString(caption).Round()
		x := (b.Dx() - w) / 2
		if x < 4 {
			x = 4
		}
		m := face.Metrics()
		baseline := b.Dy() + (captionHeight+m.Ascent.Ceil()-m.Descent.Ceil())/2
		drawer.Dot = fixed.P(x, baseline)
		drawer.DrawString(caption)
	}
	return encodePNG(out)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func parseHex(hex string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return color.RGBA{}, ErrBadColor
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, ErrBadColor
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// ParsePoints reads "x,y" tokens. NaN and infinities are rejected.
func ParsePoints(args []string) ([]Point, error) {
	pts := make([]Point, 0, len(args))
	for _, a := range args {
		xs, ys, ok := strings.Cut(strings.TrimSpace(a), ",")
		if !ok {
			return nil, ErrBadPoint
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, ErrBadPoint
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, ErrBadPoint
		}
		if !finite(x) || !finite(y) {
			return nil, ErrBadPoint
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	if len(pts) == 0 {
		return nil, ErrBadPoint
	}
	return pts, nil
}
