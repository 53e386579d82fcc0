package gpgpu

import (
	"fmt"
	"runtime"

	"github.com/gekko3d/gpgpu/particlert/rt/gpu"
	"github.com/gekko3d/gpgpu/particlert/rt/gpu/glctx"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

// Graphics is the rendering context shared by every render module.
type Graphics struct {
	Device gpu.Device
	// Width and Height are the drawable size in pixels.
	Width  int
	Height int

	release func()
}

func (g *Graphics) Release() {
	if g.release != nil {
		g.release()
		g.release = nil
	}
}

func createWindowState(width, height int, title string, vsync bool) (*WindowState, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()
	if vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  width,
		WindowHeight: height,
		windowTitle:  title,
	}, nil
}

func createGraphics(s *WindowState, log Logger) (*Graphics, error) {
	dev, err := glctx.New(log)
	if err != nil {
		return nil, err
	}
	fbw, fbh := s.windowGlfw.GetFramebufferSize()
	log.Infof("graphics: %s, drawable %dx%d", dev.Version(), fbw, fbh)
	return &Graphics{
		Device:  dev,
		Width:   fbw,
		Height:  fbh,
		release: dev.Release,
	}, nil
}

func (s *WindowState) Title() string {
	return s.windowTitle
}

func (s *WindowState) SetTitle(title string) {
	s.windowTitle = title
	s.windowGlfw.SetTitle(title)
}

func (s *WindowState) ShouldClose() bool {
	return s.windowGlfw.ShouldClose()
}

func (s *WindowState) SwapBuffers() {
	s.windowGlfw.SwapBuffers()
}

func (s *WindowState) Destroy() {
	if s.windowGlfw == nil {
		return
	}
	s.windowGlfw.Destroy()
	s.windowGlfw = nil
	glfw.Terminate()
}
