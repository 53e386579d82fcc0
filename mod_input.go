package gpgpu

import (
	"github.com/gekko3d/gpgpu/particlert/rt/sim"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	KeyEscape int = iota
	KeyD
	KeySpace
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle

	buttonCount
)

type InputModule struct{}

type Input struct {
	Pressed      [buttonCount]bool
	JustPressed  [buttonCount]bool
	JustReleased [buttonCount]bool

	MouseX, MouseY            float64
	WindowWidth, WindowHeight int

	// Pointer is the cursor in simulation space, see sim.NormalizePointer.
	Pointer mgl32.Vec2
	// Engaged is true while the left mouse button is held.
	Engaged bool
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// SetButton records the polled state of one key or button for this frame.
func (in *Input) SetButton(button int, down bool) {
	in.JustPressed[button] = down && !in.Pressed[button]
	in.JustReleased[button] = !down && in.Pressed[button]
	in.Pressed[button] = down
	if button == MouseButtonLeft {
		in.Engaged = down
	}
}

// SetCursor stores the cursor position in window coordinates and derives Pointer.
func (in *Input) SetCursor(mx, my float64, width, height int) {
	in.MouseX, in.MouseY = mx, my
	in.WindowWidth, in.WindowHeight = width, height
	in.Pointer = sim.NormalizePointer(mx, my, width, height)
}

var keyToGlfw = map[int]glfw.Key{
	KeyEscape: glfw.KeyEscape,
	KeyD:      glfw.KeyD,
	KeySpace:  glfw.KeySpace,
}

var buttonToGlfw = map[int]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}

func inputSystem(s *WindowState, input *Input) {
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		input.SetButton(key, s.windowGlfw.GetKey(glfwKey) == glfw.Press)
	}
	for btn, glfwBtn := range buttonToGlfw {
		input.SetButton(btn, s.windowGlfw.GetMouseButton(glfwBtn) == glfw.Press)
	}

	mx, my := s.windowGlfw.GetCursorPos()
	w, h := s.windowGlfw.GetSize()
	input.SetCursor(mx, my, w, h)
}
