package sim

import (
	"fmt"
	"image"

	"github.com/gekko3d/gpgpu/particlert/rt/gpu"
	"github.com/gekko3d/gpgpu/particlert/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	TopologyPlane  = "plane"
	TopologyPoints = "points"
)

// planeVertices is a full-screen quad as a triangle strip.
var planeVertices = []float32{
	-1, 1, 0,
	-1, -1, 0,
	1, 1, 0,
	1, -1, 0,
}

type programSource struct {
	stage    Stage
	vertex   string
	fragment string
	topology string
	attrib   string
	data     func(Layout) []float32
	comps    int32
	sampler  bool
}

var programs = []programSource{
	{StageInit, shaders.QuadVert, shaders.SeedFrag, TopologyPlane, "aPosition", plane, 3, false},
	{StageSimulate, shaders.QuadVert, shaders.MoveFrag, TopologyPlane, "aPosition", plane, 3, true},
	{StageCompositeBackground, shaders.QuadVert, shaders.BackgroundFrag, TopologyPlane, "aPosition", plane, 3, true},
	{StageDrawPoints, shaders.PointVert, shaders.PointFrag, TopologyPoints, "aIndex", Layout.Indices, 1, true},
}

func plane(Layout) []float32 {
	return planeVertices
}

// Pipeline owns the render node, the state buffers and the background texture and
// runs the four passes in order.
type Pipeline struct {
	dev    gpu.Device
	log    gpu.Logger
	node   *gpu.RenderNode
	layout Layout
	stages StageMachine

	format  gpu.TextureFormat
	buffers *StateBuffers

	background       gpu.TextureID
	backgroundWidth  int
	backgroundHeight int

	canvasWidth  int
	canvasHeight int
}

// NewPipeline compiles and registers every pass. It allocates no state buffers; see Allocate.
func NewPipeline(dev gpu.Device, side int, log gpu.Logger) (*Pipeline, error) {
	layout, err := NewLayout(side)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = nopLogger{}
	}
	p := &Pipeline{
		dev:    dev,
		log:    log,
		node:   gpu.NewRenderNode(dev, log),
		layout: layout,
	}
	for _, src := range programs {
		name := src.stage.String()
		if _, err := p.node.RegisterSource(name, src.vertex, src.fragment); err != nil {
			p.node.Release()
			return nil, err
		}
		if err := p.node.Use(name, src.topology); err != nil {
			p.node.Release()
			return nil, err
		}
		if err := p.node.RegisterAttribute(src.attrib, src.data(layout), src.comps); err != nil {
			p.node.Release()
			return nil, err
		}
		if src.sampler {
			if err := p.node.RegisterUniformLocation("uTex"); err != nil {
				p.node.Release()
				return nil, err
			}
		}
	}
	return p, nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

func (p *Pipeline) Node() *gpu.RenderNode {
	return p.node
}

func (p *Pipeline) Layout() Layout {
	return p.layout
}

func (p *Pipeline) Stage() Stage {
	return p.stages.Current()
}

// Buffers is nil until Allocate succeeded.
func (p *Pipeline) Buffers() *StateBuffers {
	return p.buffers
}

func (p *Pipeline) Format() gpu.TextureFormat {
	return p.format
}

func (p *Pipeline) Allocated() bool {
	return p.buffers != nil
}

// Allocate checks float texture support and creates the state buffers.
// Without support it returns an error wrapping gpu.ErrCapabilityMissing and creates nothing.
func (p *Pipeline) Allocate() error {
	if p.buffers != nil {
		return nil
	}
	format, err := gpu.FloatTextureFormat(p.dev)
	if err != nil {
		return fmt.Errorf("allocate state buffers: %w", err)
	}
	buffers, err := NewStateBuffers(p.dev, p.layout.Side, format)
	if err != nil {
		return err
	}
	p.format = format
	p.buffers = buffers
	p.log.Debugf("pipeline: %d particles in two %dx%d %s buffers", p.layout.Count(), p.layout.Side, p.layout.Side, format)
	return nil
}

func (p *Pipeline) SetCanvas(width, height int) {
	p.canvasWidth = width
	p.canvasHeight = height
	p.node.SetCanvas(width, height)
}

func (p *Pipeline) Canvas() (int, int) {
	return p.canvasWidth, p.canvasHeight
}

// UploadBackground copies img into the background texture, recreating it on size change.
func (p *Pipeline) UploadBackground(img *image.RGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if p.background != 0 && (w != p.backgroundWidth || h != p.backgroundHeight) {
		p.dev.DeleteTexture(p.background)
		p.background = 0
	}
	if p.background == 0 {
		p.background = p.dev.CreateTexture(w, h, gpu.FormatRGBA8)
		p.backgroundWidth, p.backgroundHeight = w, h
	} else {
		p.dev.BindTexture(p.background)
	}
	p.dev.UploadTexture(p.background, img)
	p.dev.BindTexture(0)
}

func (p *Pipeline) canvasSize() mgl32.Vec2 {
	return mgl32.Vec2{float32(p.canvasWidth), float32(p.canvasHeight)}
}

func (p *Pipeline) requireBuffers(s Stage) error {
	if p.buffers == nil {
		return fmt.Errorf("%s: state buffers not allocated: %w", s, gpu.ErrCapabilityMissing)
	}
	return nil
}

// Seed writes the initial grid into the front buffer. It runs once.
func (p *Pipeline) Seed() error {
	if err := p.requireBuffers(StageInit); err != nil {
		return err
	}
	if err := p.stages.Enter(StageInit); err != nil {
		return err
	}
	return p.node.Pass(StageInit.String(), TopologyPlane).
		Target(p.buffers.Front()).
		ClearTo(mgl32.Vec4{}).
		Uniform("uTexSize", float32(p.layout.Side)).
		Draw(gpu.TriangleStrip, 0, 4)
}

// Simulate reads the front buffer and writes the stepped state into the back buffer.
func (p *Pipeline) Simulate(fs *FrameState) error {
	if err := p.requireBuffers(StageSimulate); err != nil {
		return err
	}
	if err := p.stages.Enter(StageSimulate); err != nil {
		return err
	}
	return p.node.Pass(StageSimulate.String(), TopologyPlane).
		Target(p.buffers.Back()).
		ClearTo(mgl32.Vec4{}).
		Texture("uTex", p.buffers.Front().Texture, 0).
		Uniform("uTexSize", float32(p.layout.Side)).
		Uniform("uAccel", fs.Accel).
		Uniform("uMouseFlag", fs.Engaged).
		Uniform("uMouse", fs.Pointer).
		Draw(gpu.TriangleStrip, 0, 4)
}

func (p *Pipeline) CompositeBackground() error {
	if err := p.stages.Enter(StageCompositeBackground); err != nil {
		return err
	}
	return p.DrawBackground()
}

// DrawBackground composites the background texture onto the visible framebuffer
// outside the stage order. It is the only pass left when state buffers are missing.
func (p *Pipeline) DrawBackground() error {
	if p.background == 0 {
		return nil
	}
	return p.node.Pass(StageCompositeBackground.String(), TopologyPlane).
		Viewport(p.canvasWidth, p.canvasHeight).
		Texture("uTex", p.background, 0).
		Uniform("uResolution", p.canvasSize()).
		Draw(gpu.TriangleStrip, 0, 4)
}

// DrawPoints draws every particle from the back buffer with additive blending,
// flushes and swaps the buffers.
func (p *Pipeline) DrawPoints(fs *FrameState) error {
	if err := p.requireBuffers(StageDrawPoints); err != nil {
		return err
	}
	if err := p.stages.Enter(StageDrawPoints); err != nil {
		return err
	}
	err := p.node.Pass(StageDrawPoints.String(), TopologyPoints).
		Viewport(p.canvasWidth, p.canvasHeight).
		Blend(gpu.BlendAdditive).
		Texture("uTex", p.buffers.Back().Texture, 0).
		Uniform("uTexSize", float32(p.layout.Side)).
		Uniform("uPointScale", fs.Accel).
		Uniform("uAmbient", fs.Color()).
		Uniform("uResolution", p.canvasSize()).
		Draw(gpu.Points, 0, int32(p.layout.Count()))
	if err != nil {
		return err
	}
	p.dev.Flush()
	p.buffers.Swap()
	return nil
}

// Frame runs simulate, background and points, then advances fs.
func (p *Pipeline) Frame(fs *FrameState) error {
	if err := p.Simulate(fs); err != nil {
		return err
	}
	if err := p.CompositeBackground(); err != nil {
		return err
	}
	if err := p.DrawPoints(fs); err != nil {
		return err
	}
	fs.Advance(fs.Engaged)
	return nil
}

func (p *Pipeline) Release() {
	if p.buffers != nil {
		p.buffers.Release(p.dev)
		p.buffers = nil
	}
	if p.background != 0 {
		p.dev.DeleteTexture(p.background)
		p.background = 0
	}
	p.node.Release()
}
