// Package avatar draws a character record as a small PNG portrait.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"
	"sync"
	"text/template"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/playdate-bot/internal/domain"
)

const DefaultSize = 160

var portrait = template.Must(template.New("avatar").Parse(`<svg viewBox="0 0 80 80" xmlns="http://www.w3.org/2000/svg">
<path d="M 30,50 A 10,15 0 0 0 50,50 V 70 A 10,10 0 0 1 30,70 Z" fill="{{.Outfit}}"/>
<rect x="38" y="45" width="4" height="5" fill="{{.Skin}}"/>
<circle cx="40" cy="35" r="15" fill="{{.Skin}}"/>
<path d="M 25,35 A 15,15 0 0 1 55,35 V 25 A 15,15 0 0 0 25,25 Z" fill="{{.Hair}}"/>
<circle cx="35" cy="35" r="2" fill="#333333"/>
<circle cx="45" cy="35" r="2" fill="#333333"/>
{{- if eq .Emotion "surprised"}}
<circle cx="40" cy="42" r="2" fill="none" stroke="#333333" stroke-width="1.5"/>
{{- else}}
<path d="{{.Mouth}}" fill="none" stroke="#333333" stroke-width="1.5"/>
{{- end}}
{{- if eq .Accessory "glasses"}}
<circle cx="35" cy="35" r="5" fill="none" stroke="#333333" stroke-width="1.5"/>
<circle cx="45" cy="35" r="5" fill="none" stroke="#333333" stroke-width="1.5"/>
<line x1="40" y1="35" x2="35" y2="35" stroke="#333333" stroke-width="1.5"/>
<line x1="45" y1="35" x2="50" y2="35" stroke="#333333" stroke-width="1.5"/>
{{- else if eq .Accessory "hat"}}
<path d="M 25,25 H 55 L 50,18 H 30 Z" fill="{{.Outfit}}"/>
<line x1="25" y1="25" x2="55" y2="25" stroke="#333333" stroke-width="1"/>
{{- else if eq .Accessory "bowtie"}}
<path d="M 35,55 L 30,50 L 35,45 L 40,45 L 45,50 L 40,55 Z" fill="#333333"/>
{{- else if eq .Accessory "necklace"}}
<path d="M 35,50 Q 40,55 45,50" fill="none" stroke="#FFD700" stroke-width="1.5"/>
<circle cx="40" cy="53" r="1.5" fill="#FFD700"/>
{{- end}}
{{- if .Speaking}}
<circle cx="58" cy="35" r="3" fill="#333333" fill-opacity="0.8"/>
<circle cx="65" cy="30" r="2" fill="#333333" fill-opacity="0.6"/>
<circle cx="70" cy="25" r="1.5" fill="#333333" fill-opacity="0.4"/>
{{- end}}
</svg>`))

var mouths = map[domain.Emotion]string{
	domain.EmotionHappy:    "M 35,40 Q 40,45 45,40",
	domain.EmotionSad:      "M 35,45 Q 40,40 45,45",
	domain.EmotionThinking: "M 35,42 L 45,42",
}

type cacheKey struct {
	c        domain.Character
	emotion  domain.Emotion
	speaking bool
	size     int
}

// Renderer rasterizes portraits and keeps the results.
type Renderer struct {
	size int

	mu    sync.RWMutex
	cache map[cacheKey]image.Image
}

func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{size: size, cache: make(map[cacheKey]image.Image)}
}

// SVG is the portrait source. Invalid colors fall back to the seat's defaults.
func (r *Renderer) SVG(c domain.Character, emo domain.Emotion, speaking bool) ([]byte, error) {
	def := domain.DefaultCharacter(c.ID)
	mouth, ok := mouths[emo]
	if !ok {
		mouth = mouths[domain.EmotionHappy]
	}
	data := struct {
		Hair, Skin, Outfit, Mouth string
		Emotion                   domain.Emotion
		Accessory                 domain.Accessory
		Speaking                  bool
	}{
		Hair:      colorOr(c.HairColor, def.HairColor),
		Skin:      colorOr(c.SkinColor, def.SkinColor),
		Outfit:    colorOr(c.OutfitColor, def.OutfitColor),
		Mouth:     mouth,
		Emotion:   emo,
		Accessory: c.Accessory,
		Speaking:  speaking,
	}
	var buf bytes.Buffer
	if err := portrait.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("avatar template: %w", err)
	}
	return buf.Bytes(), nil
}

func colorOr(c, fallback string) string {
	if domain.ValidColor(c) != nil {
		return fallback
	}
	return strings.ToUpper(strings.TrimSpace(c))
}

// Image rasterizes the portrait at the renderer size on a transparent background.
func (r *Renderer) Image(c domain.Character, emo domain.Emotion, speaking bool) (image.Image, error) {
	key := cacheKey{c: c, emotion: emo, speaking: speaking, size: r.size}
	r.mu.RLock()
	if img, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return img, nil
	}
	r.mu.RUnlock()

	src, err := r.SVG(c, emo, speaking)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse avatar svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(r.size), float64(r.size))

	img := image.NewRGBA(image.Rect(0, 0, r.size, r.size))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, imagedraw.Src)
	scanner := rasterx.NewScannerGV(r.size, r.size, img, img.Bounds())
	raster := rasterx.NewDasher(r.size, r.size, scanner)
	icon.Draw(raster, 1.0)

	r.mu.Lock()
	r.cache[key] = img
	r.mu.Unlock()
	return img, nil
}

func (r *Renderer) PNG(c domain.Character, emo domain.Emotion, speaking bool) ([]byte, error) {
	img, err := r.Image(c, emo, speaking)
	if err != nil {
		return nil, err
	}
	return encode(img)
}

var (
	cardColor = color.RGBA{R: 0xFF, G: 0xF0, B: 0xF5, A: 0xFF}
	nameColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
)

// Duo draws both characters side by side with their names. A player who speaks in
// lines is drawn speaking with the emotion of their last line.
func (r *Renderer) Duo(cast domain.Cast, lines []domain.DialogueLine) ([]byte, error) {
	const nameStrip = 22
	w, h := r.size*2, r.size+nameStrip
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	imagedraw.Draw(out, out.Bounds(), image.NewUniform(cardColor), image.Point{}, imagedraw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: out, Src: image.NewUniform(nameColor), Face: face}
	for i, p := range domain.Players {
		emo, speaking := domain.EmotionHappy, false
		for _, l := range lines {
			if l.Speaker == p {
				emo, speaking = l.Emotion, true
			}
		}
		img, err := r.Image(cast.Of(p), emo, speaking)
		if err != nil {
			return nil, err
		}
		origin := image.Pt(i*r.size, 0)
		imagedraw.Draw(out, img.Bounds().Add(origin), img, image.Point{}, imagedraw.Over)

		name := cast.Name(p)
		tw := drawer.MeasureString(name).Round()
		x := origin.X + (r.size-tw)/2
		if x < origin.X {
			x = origin.X
		}
		drawer.Dot = fixed.P(x, r.size+nameStrip-6)
		drawer.DrawString(name)
	}
	return encode(out)
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
