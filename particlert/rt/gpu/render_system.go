package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// RenderSystem owns one shader program, its topologies and its cached uniform locations.
type RenderSystem struct {
	name       string
	dev        Device
	program    ProgramID
	topologies map[string]*Topology
	uniforms   map[string]int32
	warn       *warnOnce
}

// NewRenderSystem wraps a linked program. The program becomes current on dev.
func NewRenderSystem(dev Device, name string, program ProgramID, log Logger) *RenderSystem {
	dev.UseProgram(program)
	return &RenderSystem{
		name:       name,
		dev:        dev,
		program:    program,
		topologies: make(map[string]*Topology),
		uniforms:   make(map[string]int32),
		warn:       newWarnOnce(log),
	}
}

func (s *RenderSystem) Name() string {
	return s.name
}

func (s *RenderSystem) Program() ProgramID {
	return s.program
}

func (s *RenderSystem) use() {
	s.dev.UseProgram(s.program)
}

// RegisterTopology creates the named topology on first use.
func (s *RenderSystem) RegisterTopology(name string) *Topology {
	if t, ok := s.topologies[name]; ok {
		return t
	}
	t := newTopology(name, s.warn)
	s.topologies[name] = t
	return t
}

func (s *RenderSystem) Topology(name string) (*Topology, error) {
	t, ok := s.topologies[name]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", s.name, name, ErrUnknownTopology)
	}
	return t, nil
}

func (s *RenderSystem) TopologyCount() int {
	return len(s.topologies)
}

// RegisterUniformLocation resolves and caches a uniform location.
// A name the compiler optimized out is cached as -1 and reported once.
func (s *RenderSystem) RegisterUniformLocation(name string) int32 {
	if loc, ok := s.uniforms[name]; ok {
		return loc
	}
	loc := s.dev.UniformLocation(s.program, name)
	if loc < 0 {
		s.warn.warn("uniform:"+name, "render system %s: uniform %q is not active in the program", s.name, name)
	}
	s.uniforms[name] = loc
	return loc
}

// UniformLocation returns the cached location without resolving it.
func (s *RenderSystem) UniformLocation(name string) (int32, bool) {
	loc, ok := s.uniforms[name]
	return loc, ok
}

// BindTexture binds tex on the given unit and points the sampler uniform at that unit.
func (s *RenderSystem) BindTexture(uniform string, tex TextureID, unit uint32) {
	s.dev.ActiveTexture(unit)
	s.dev.BindTexture(tex)
	if loc := s.RegisterUniformLocation(uniform); loc >= 0 {
		s.dev.Uniform1i(loc, int32(unit))
	}
}

// SetUniform sends value to the named uniform of the current program.
func (s *RenderSystem) SetUniform(name string, value any) error {
	loc := s.RegisterUniformLocation(name)
	if loc < 0 {
		return nil
	}
	d := s.dev
	switch v := value.(type) {
	case float32:
		d.Uniform1f(loc, v)
	case float64:
		d.Uniform1f(loc, float32(v))
	case int:
		d.Uniform1i(loc, int32(v))
	case int32:
		d.Uniform1i(loc, v)
	case bool:
		var b int32
		if v {
			b = 1
		}
		d.Uniform1i(loc, b)
	case mgl32.Vec2:
		d.Uniform2f(loc, v[0], v[1])
	case mgl32.Vec3:
		d.Uniform3f(loc, v[0], v[1], v[2])
	case mgl32.Vec4:
		d.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case []float32:
		switch len(v) {
		case 1:
			d.Uniform1f(loc, v[0])
		case 2:
			d.Uniform2f(loc, v[0], v[1])
		case 3:
			d.Uniform3f(loc, v[0], v[1], v[2])
		case 4:
			d.Uniform4f(loc, v[0], v[1], v[2], v[3])
		default:
			return fmt.Errorf("%s.%s: %d components: %w", s.name, name, len(v), ErrUnsupportedValue)
		}
	default:
		return fmt.Errorf("%s.%s: %T: %w", s.name, name, value, ErrUnsupportedValue)
	}
	return nil
}

// Release deletes the program and every topology buffer.
func (s *RenderSystem) Release() {
	for _, t := range s.topologies {
		t.release(s.dev)
	}
	s.dev.DeleteProgram(s.program)
}
