package screenshot

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/techub/techub/internal/core/profile"
)

// Renderer draws cards directly, without a browser. It is the capture
// fallback: hosts without a headless browser still get images, just without
// the HTML preview's styling.
type Renderer struct {
	titleFace font.Face
	bodyFace  font.Face
}

// cardPalette maps an archetype hash to a background color.
var cardPalette = []color.NRGBA{
	{0x1F, 0x29, 0x37, 0xFF}, // slate
	{0x31, 0x1B, 0x3A, 0xFF}, // violet
	{0x0F, 0x2E, 0x2A, 0xFF}, // pine
	{0x33, 0x20, 0x14, 0xFF}, // bronze
	{0x11, 0x22, 0x44, 0xFF}, // navy
	{0x3A, 0x14, 0x1E, 0xFF}, // wine
}

var accent = color.NRGBA{0xFF, 0x73, 0x00, 0xFF}

// NewRenderer creates a native card renderer. fontPath may name a TTF file;
// when empty (or unloadable) gg's built-in face is used.
func NewRenderer(fontPath string) *Renderer {
	r := &Renderer{}
	if fontPath == "" {
		return r
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return r
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return r
	}
	r.titleFace = truetype.NewFace(f, &truetype.Options{Size: 64})
	r.bodyFace = truetype.NewFace(f, &truetype.Options{Size: 28})
	return r
}

// Name identifies the backend in asset records.
func (r *Renderer) Name() string { return "native" }

// Render draws card at exactly width x height into outPath (PNG).
// avatarPath, when non-empty and readable, is composited top-right.
func (r *Renderer) Render(card *profile.Card, avatarPath string, width, height int, outPath string) error {
	if card == nil {
		return fmt.Errorf("no card to render")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create render dir: %w", err)
	}

	dc := gg.NewContext(width, height)

	bg := cardPalette[hashString(card.Archetype)%uint32(len(cardPalette))]
	dc.SetColor(bg)
	dc.Clear()

	// Scale layout off the smaller axis so extreme aspect ratios
	// (banner 1500x500, portrait 1080x1350) stay readable.
	unit := float64(minInt(width, height)) / 20.0
	margin := unit

	if r.titleFace != nil {
		dc.SetFontFace(r.titleFace)
	}
	dc.SetColor(color.White)
	dc.DrawString(card.Login, margin, margin*2)

	if r.bodyFace != nil {
		dc.SetFontFace(r.bodyFace)
	}
	dc.SetColor(accent)
	dc.DrawString(card.Archetype, margin, margin*3)
	dc.SetColor(color.NRGBA{0xC0, 0xC0, 0xC0, 0xFF})
	dc.DrawString("spirit animal: "+card.SpiritAnimal, margin, margin*3.8)

	// Stat bars.
	stats := []struct {
		label string
		value int
	}{
		{"ATK", card.Attack},
		{"DEF", card.Defense},
		{"SPD", card.Speed},
	}
	barTop := margin * 5
	barMax := float64(width) - margin*6
	for i, s := range stats {
		y := barTop + float64(i)*unit*1.2
		dc.SetColor(color.White)
		dc.DrawString(s.label, margin, y+unit*0.5)
		dc.SetColor(color.NRGBA{0x44, 0x44, 0x44, 0xFF})
		dc.DrawRectangle(margin*3, y, barMax, unit*0.6)
		dc.Fill()
		dc.SetColor(accent)
		dc.DrawRectangle(margin*3, y, barMax*float64(clampStat(s.value))/100.0, unit*0.6)
		dc.Fill()
	}

	if len(card.Tags) > 0 {
		dc.SetColor(color.NRGBA{0x90, 0x90, 0x90, 0xFF})
		dc.DrawString(strings.Join(card.Tags, " · "), margin, barTop+4*unit*1.2)
	}

	if card.FlavorText != "" {
		dc.SetColor(color.NRGBA{0xE0, 0xE0, 0xE0, 0xFF})
		dc.DrawStringWrapped(card.FlavorText, margin, float64(height)-margin*3,
			0, 0, float64(width)-margin*2, 1.4, gg.AlignLeft)
	}

	if avatarPath != "" {
		if img, err := gg.LoadImage(avatarPath); err == nil {
			size := int(unit * 4)
			scaled := scaleImage(img, size, size)
			dc.DrawImage(scaled, width-size-int(margin), int(margin))
		}
	}

	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("failed to save rendered card: %w", err)
	}
	return nil
}

// scaleImage resizes img to w x h with bilinear interpolation.
func scaleImage(img image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(s)))
	return h.Sum32()
}

func clampStat(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
