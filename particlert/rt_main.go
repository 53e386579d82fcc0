package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/gpgpu"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	debug := flag.Bool("debug", false, "Enable debug logging and the profiler overlay")
	side := flag.Int("side", 0, "State texture edge, a power of two (particles = side^2)")
	exportDir := flag.String("export-dir", "", "Directory for exported JPEG frames")
	flag.Parse()

	cfg, err := gpgpu.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *debug {
		cfg.Debug = true
	}
	if *side != 0 {
		cfg.Simulation.Side = *side
	}
	if *exportDir != "" {
		cfg.Export.Dir = *exportDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	gpgpu.NewAppBuilder().
		UseStates(gpgpu.StateStartup, gpgpu.StateExit).
		UseModule(
			gpgpu.LoggingModule{Prefix: "gpgpu", Debug: cfg.Debug},
			gpgpu.ConfigModule{Config: cfg},
			gpgpu.InputModule{},
			gpgpu.NewPlatformWindow(cfg.Window),
			gpgpu.TimeModule{},
			gpgpu.ProfilerModule{},
			gpgpu.AssetServerModule{},
			gpgpu.BackgroundModule{
				Width:  cfg.Window.Width,
				Height: cfg.Window.Height,
				Config: cfg.Background,
				Debug:  cfg.Debug,
			},
			gpgpu.ParticlesModule{
				Side:  cfg.Simulation.Side,
				Decay: cfg.Simulation.Decay,
			},
			gpgpu.ExportModule{Config: cfg.Export},
		).
		Build().
		Run()
}
