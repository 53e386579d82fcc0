package gpgpu

import (
	"reflect"
)

// PlatformWindowModule creates the GLFW window with an OpenGL 4.1 core context and
// publishes WindowState and Graphics. It requires InputModule for the escape key.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
	VSync  bool
}

// NewPlatformWindow creates the module from the window config. Zero sizes fall back
// to the defaults.
func NewPlatformWindow(cfg WindowConfig) *PlatformWindowModule {
	def := DefaultConfig().Window
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.Title == "" {
		cfg.Title = def.Title
	}
	return &PlatformWindowModule{
		Width:  cfg.Width,
		Height: cfg.Height,
		Title:  cfg.Title,
		VSync:  cfg.VSync,
	}
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	// single window per app
	if _, ok := app.resources[reflect.TypeOf((*WindowState)(nil)).Elem()]; ok {
		return
	}

	log := app.Logger()
	ws, err := createWindowState(m.Width, m.Height, m.Title, m.VSync)
	if err != nil {
		panic(err)
	}
	g, err := createGraphics(ws, log)
	if err != nil {
		ws.Destroy()
		panic(err)
	}
	app.addResources(ws, g)

	app.UseSystem(
		System(windowPresentSystem).
			InStage(Finale).
			RunAlways(),
	)
	app.UseSystem(
		System(windowDestroySystem).
			InStage(Finale).
			InState(OnEnter(StateExit)),
	)
}

func windowPresentSystem(s *WindowState, input *Input, cmd *Commands) {
	s.SwapBuffers()
	if s.ShouldClose() || input.JustPressed[KeyEscape] {
		cmd.ChangeState(StateExit)
	}
}

func windowDestroySystem(s *WindowState, g *Graphics) {
	g.Release()
	s.Destroy()
}
