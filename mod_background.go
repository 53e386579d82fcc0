package gpgpu

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const (
	overlayX = 20
	overlayY = 20
)

// Background is the CPU canvas composited under the particles: a base layer,
// the frame rate and optional notice and profiler text.
type Background struct {
	Texture AssetId
	// Notice is drawn centered when set.
	Notice    string
	ShowStats bool

	base   *image.RGBA
	canvas *image.RGBA
	text   *TextOverlay
}

type BackgroundModule struct {
	Width  int
	Height int
	Config BackgroundConfig
	Debug  bool
}

// NewBackground builds a width×height canvas registered as a texture asset.
// base may be nil for a black base layer; otherwise it is scaled to the canvas.
func NewBackground(width, height int, base image.Image, text *TextOverlay, assets *AssetServer) *Background {
	rect := image.Rect(0, 0, width, height)
	b := &Background{
		base:   image.NewRGBA(rect),
		canvas: image.NewRGBA(rect),
		text:   text,
	}
	draw.Draw(b.base, rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	if base != nil {
		draw.ApproxBiLinear.Scale(b.base, rect, base, base.Bounds(), draw.Src, nil)
	}
	draw.Draw(b.canvas, rect, b.base, image.Point{}, draw.Src)
	b.Texture = assets.CreateTexture(b.canvas)
	return b
}

func (b *Background) Canvas() *image.RGBA {
	return b.canvas
}

// Redraw restores the base layer and draws the overlay text.
func (b *Background) Redraw(fps float64, stats []string) {
	rect := b.canvas.Bounds()
	draw.Draw(b.canvas, rect, b.base, image.Point{}, draw.Src)

	y := overlayY
	b.text.Draw(b.canvas, fmt.Sprintf("%.3f", fps), overlayX, y, color.White)
	for _, line := range stats {
		y += b.text.LineHeight()
		b.text.Draw(b.canvas, line, overlayX, y, color.White)
	}
	if b.Notice != "" {
		b.text.DrawCentered(b.canvas, b.Notice, rect.Dx()/2, rect.Dy()/2, color.White)
	}
}

func (m BackgroundModule) Install(app *App, cmd *Commands) {
	log := app.Logger()
	assets, ok := Resource[AssetServer](app)
	if !ok {
		panic("BackgroundModule requires AssetServerModule")
	}

	text, err := NewTextOverlay(m.Config.Font, m.Config.FontSize)
	if err != nil {
		log.Warnf("background: %v, using the bitmap face", err)
		text = BasicTextOverlay()
	}

	var base image.Image
	if m.Config.Image != "" {
		id, err := assets.LoadTexture(m.Config.Image)
		if err != nil {
			panic(fmt.Errorf("background image: %w", err))
		}
		tex, _ := assets.Texture(id)
		base = tex.Image
		assets.RemoveTexture(id)
	}

	bg := NewBackground(m.Width, m.Height, base, text, assets)
	bg.ShowStats = m.Debug
	app.addResources(bg)

	app.UseSystem(
		System(backgroundSystem).
			InStage(PreRender).
			RunAlways(),
	)
}

func backgroundSystem(bg *Background, t *Time, input *Input, prof *Profiler, assets *AssetServer) {
	if input.JustPressed[KeyD] {
		bg.ShowStats = !bg.ShowStats
	}
	var stats []string
	if bg.ShowStats {
		stats = prof.StatsLines()
	}
	bg.Redraw(t.FPS, stats)
	if err := assets.UpdateTexture(bg.Texture, bg.canvas); err != nil {
		panic(err)
	}
}
