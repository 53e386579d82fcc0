package gpu

import (
	"fmt"
	"sort"
)

// RenderNode is the single entry point the frame loop uses to switch pipeline stage.
// It keeps a cursor on the active RenderSystem and Topology; every draw-adjacent call
// works on that cursor.
type RenderNode struct {
	dev     Device
	log     Logger
	systems map[string]*RenderSystem

	current         *RenderSystem
	currentTopology *Topology
	textureBound    bool
	err             error

	canvasWidth  int
	canvasHeight int
}

func NewRenderNode(dev Device, log Logger) *RenderNode {
	return &RenderNode{
		dev:     dev,
		log:     orNop(log),
		systems: make(map[string]*RenderSystem),
	}
}

func (n *RenderNode) Device() Device {
	return n.dev
}

// SetCanvas records the visible framebuffer size used to restore the viewport
// after offscreen passes.
func (n *RenderNode) SetCanvas(width, height int) {
	n.canvasWidth = width
	n.canvasHeight = height
}

func (n *RenderNode) Canvas() (int, int) {
	return n.canvasWidth, n.canvasHeight
}

// Register adds a RenderSystem for an already linked program.
// Registering an existing name returns the existing system and ignores program.
func (n *RenderNode) Register(name string, program ProgramID) *RenderSystem {
	if s, ok := n.systems[name]; ok {
		return s
	}
	s := NewRenderSystem(n.dev, name, program, n.log)
	n.systems[name] = s
	n.log.Debugf("render node: registered system %s (program %d)", name, program)
	return s
}

// RegisterSource compiles and registers a program only when name is not registered yet.
func (n *RenderNode) RegisterSource(name, vertexSrc, fragmentSrc string) (*RenderSystem, error) {
	if s, ok := n.systems[name]; ok {
		return s, nil
	}
	program, err := n.dev.CreateProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("render system %s: %w", name, err)
	}
	return n.Register(name, program), nil
}

func (n *RenderNode) System(name string) (*RenderSystem, error) {
	s, ok := n.systems[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownSystem)
	}
	return s, nil
}

// Systems lists the registered system names in sorted order.
func (n *RenderNode) Systems() []string {
	names := make([]string, 0, len(n.systems))
	for name := range n.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Use activates a system and its topology, registering the topology on first use.
func (n *RenderNode) Use(systemName, topologyName string) error {
	s, ok := n.systems[systemName]
	if !ok {
		return fmt.Errorf("use %q: %w", systemName, ErrUnknownSystem)
	}
	s.use()
	n.current = s
	n.currentTopology = s.RegisterTopology(topologyName)
	return nil
}

func (n *RenderNode) Current() (*RenderSystem, *Topology) {
	return n.current, n.currentTopology
}

func (n *RenderNode) active() error {
	if n.current == nil || n.currentTopology == nil {
		return ErrNoActiveSystem
	}
	return nil
}

func (n *RenderNode) RegisterAttribute(name string, data []float32, components int32) error {
	if err := n.active(); err != nil {
		return fmt.Errorf("register attribute %q: %w", name, err)
	}
	n.currentTopology.RegisterAttribute(n.dev, n.current.program, name, data, components)
	return nil
}

// SetAttribute binds the active topology for the next draw.
func (n *RenderNode) SetAttribute() error {
	if err := n.active(); err != nil {
		return fmt.Errorf("set attribute: %w", err)
	}
	n.currentTopology.BindForDraw(n.dev)
	return nil
}

func (n *RenderNode) RegisterUniformLocation(name string) error {
	if err := n.active(); err != nil {
		return fmt.Errorf("register uniform %q: %w", name, err)
	}
	n.current.RegisterUniformLocation(name)
	return nil
}

func (n *RenderNode) SetTexture(uniform string, tex TextureID, unit uint32) error {
	if err := n.active(); err != nil {
		return fmt.Errorf("set texture %q: %w", uniform, err)
	}
	n.current.BindTexture(uniform, tex, unit)
	n.textureBound = true
	return nil
}

// SetUniform returns the node so several uniforms can be chained before a draw.
// The first failure is kept and reported by Err and Clear.
func (n *RenderNode) SetUniform(name string, value any) *RenderNode {
	if n.err != nil {
		return n
	}
	if err := n.active(); err != nil {
		n.err = fmt.Errorf("set uniform %q: %w", name, err)
		return n
	}
	if err := n.current.SetUniform(name, value); err != nil {
		n.err = err
	}
	return n
}

func (n *RenderNode) Err() error {
	return n.err
}

// Clear must follow every draw: it releases the topology bindings and, when a texture
// was bound since the previous Clear, unbinds unit 0.
func (n *RenderNode) Clear() error {
	err := n.err
	n.err = nil
	if n.currentTopology != nil {
		n.currentTopology.ReleaseAfterDraw(n.dev)
	}
	if n.textureBound {
		n.dev.ActiveTexture(0)
		n.dev.BindTexture(0)
		n.textureBound = false
	}
	return err
}

// Release deletes every registered program and buffer.
func (n *RenderNode) Release() {
	for _, s := range n.systems {
		s.Release()
	}
	n.systems = make(map[string]*RenderSystem)
	n.current = nil
	n.currentTopology = nil
}
