package gpgpu

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextOverlay rasterizes text into RGBA images, anchored at the top-left of each line.
type TextOverlay struct {
	Face font.Face
}

// NewTextOverlay parses fontPath, or the embedded Go Regular face when empty.
func NewTextOverlay(fontPath string, size float64) (*TextOverlay, error) {
	fontBytes := goregular.TTF
	if fontPath != "" {
		data, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		fontBytes = data
	}

	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	return &TextOverlay{Face: face}, nil
}

// BasicTextOverlay uses the fixed 7x13 bitmap face.
func BasicTextOverlay() *TextOverlay {
	return &TextOverlay{Face: basicfont.Face7x13}
}

func (t *TextOverlay) LineHeight() int {
	return t.Face.Metrics().Height.Ceil()
}

// Measure returns the pixel size of text; lines are split on '\n'.
func (t *TextOverlay) Measure(text string) (int, int) {
	lines := strings.Split(text, "\n")
	maxW := 0
	for _, line := range lines {
		if w := font.MeasureString(t.Face, line).Ceil(); w > maxW {
			maxW = w
		}
	}
	return maxW, t.LineHeight() * len(lines)
}

// Draw writes text with its top-left corner at (x, y).
func (t *TextOverlay) Draw(dst *image.RGBA, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: t.Face,
	}
	ascent := t.Face.Metrics().Ascent.Ceil()
	for i, line := range strings.Split(text, "\n") {
		d.Dot = fixed.P(x, y+ascent+i*t.LineHeight())
		d.DrawString(line)
	}
}

// DrawCentered centers text on (cx, cy).
func (t *TextOverlay) DrawCentered(dst *image.RGBA, text string, cx, cy int, col color.Color) {
	w, h := t.Measure(text)
	t.Draw(dst, text, cx-w/2, cy-h/2, col)
}
