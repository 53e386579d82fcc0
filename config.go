package gpgpu

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gekko3d/gpgpu/particlert/rt/sim"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Debug      bool             `yaml:"debug"`
	Window     WindowConfig     `yaml:"window"`
	Simulation SimulationConfig `yaml:"simulation"`
	Background BackgroundConfig `yaml:"background"`
	Export     ExportConfig     `yaml:"export"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

type SimulationConfig struct {
	// Side is the state texture edge; the particle count is Side².
	Side  int     `yaml:"side"`
	Decay float32 `yaml:"decay"`
}

type BackgroundConfig struct {
	// Image is an optional PNG or JPEG drawn under the overlay text.
	Image    string  `yaml:"image"`
	Font     string  `yaml:"font"`
	FontSize float64 `yaml:"font_size"`
}

type ExportConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Dir      string        `yaml:"dir"`
	Debounce time.Duration `yaml:"debounce"`
	Quality  int           `yaml:"quality"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Width:  1112,
			Height: 834,
			Title:  "GPGPU particles",
			VSync:  true,
		},
		Simulation: SimulationConfig{
			Side:  512,
			Decay: sim.DefaultDecay,
		},
		Background: BackgroundConfig{
			FontSize: 16,
		},
		Export: ExportConfig{
			Enabled:  true,
			Dir:      ".",
			Debounce: 400 * time.Millisecond,
			Quality:  90,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := sim.NewLayout(c.Simulation.Side); err != nil {
		return fmt.Errorf("simulation.side: %v: %w", err, ErrInvalidConfig)
	}
	if c.Simulation.Decay <= 0 || c.Simulation.Decay >= 1 {
		return fmt.Errorf("simulation.decay %v: must be in (0, 1): %w", c.Simulation.Decay, ErrInvalidConfig)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window %dx%d: %w", c.Window.Width, c.Window.Height, ErrInvalidConfig)
	}
	if c.Background.FontSize <= 0 {
		return fmt.Errorf("background.font_size %v: %w", c.Background.FontSize, ErrInvalidConfig)
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export.quality %d: must be in [1, 100]: %w", c.Export.Quality, ErrInvalidConfig)
	}
	if c.Export.Debounce < 0 {
		return fmt.Errorf("export.debounce %v: %w", c.Export.Debounce, ErrInvalidConfig)
	}
	return nil
}

// ConfigModule publishes the configuration as a resource.
type ConfigModule struct {
	Config Config
}

func (m ConfigModule) Install(app *App, cmd *Commands) {
	cfg := m.Config
	app.addResources(&cfg)
}
