package gpgpu

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/gekko3d/gpgpu/particlert/rt/gpu"
)

// Exporter saves the visible framebuffer as JPEG when the left button is released,
// at most once per Debounce.
type Exporter struct {
	Dir      string
	Debounce time.Duration
	Quality  int

	last time.Time
	now  func() time.Time
}

type ExportModule struct {
	Config ExportConfig
}

func NewExporter(cfg ExportConfig, now func() time.Time) *Exporter {
	if now == nil {
		now = time.Now
	}
	return &Exporter{
		Dir:      cfg.Dir,
		Debounce: cfg.Debounce,
		Quality:  cfg.Quality,
		// a release right after start is ignored as well
		last: now(),
		now:  now,
	}
}

// ExportFileName formats t without zero padding, e.g. img_3-7_9-5-2.jpg.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("img_%d-%d_%d-%d-%d.jpg", int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// Ready reports whether strictly more than Debounce has passed since the last capture.
func (e *Exporter) Ready() bool {
	return e.now().Sub(e.last) > e.Debounce
}

// Capture writes the current width×height framebuffer and returns the file path.
// It does nothing and returns "" while debounced.
func (e *Exporter) Capture(dev gpu.Device, width, height int) (string, error) {
	now := e.now()
	if now.Sub(e.last) <= e.Debounce {
		return "", nil
	}
	e.last = now

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	path := filepath.Join(e.Dir, ExportFileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	img := dev.ReadPixels(width, height)
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: e.Quality}); err != nil {
		f.Close()
		return "", fmt.Errorf("export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export %s: %w", path, err)
	}
	return path, nil
}

func (m ExportModule) Install(app *App, cmd *Commands) {
	if !m.Config.Enabled {
		return
	}
	cmd.AddResources(NewExporter(m.Config, nil))
	app.UseSystem(
		System(exportSystem).
			InStage(PostRender).
			RunAlways(),
	)
}

func exportSystem(e *Exporter, input *Input, g *Graphics, cmd *Commands) {
	if !input.JustReleased[MouseButtonLeft] {
		return
	}
	path, err := e.Capture(g.Device, g.Width, g.Height)
	if err != nil {
		cmd.Logger().Errorf("%v", err)
		return
	}
	if path != "" {
		cmd.Logger().Infof("export: saved %s", path)
	}
}
