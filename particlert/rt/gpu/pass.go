package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
)

type textureBinding struct {
	uniform string
	texture TextureID
	unit    uint32
}

type uniformValue struct {
	name  string
	value any
}

// Pass collects everything one draw needs and submits it in Draw.
// Bindings made by Draw are released on every return path.
type Pass struct {
	node     *RenderNode
	system   string
	topology string

	target      *Framebuffer
	clear       *mgl32.Vec4
	blend       BlendMode
	hasViewport bool
	viewport    [2]int

	textures []textureBinding
	uniforms []uniformValue
}

// Pass starts a descriptor for the named system and topology.
func (n *RenderNode) Pass(system, topology string) *Pass {
	return &Pass{node: n, system: system, topology: topology}
}

// Target renders into fb with a viewport of its size. The default framebuffer
// and the canvas viewport are restored afterwards.
func (p *Pass) Target(fb *Framebuffer) *Pass {
	p.target = fb
	p.hasViewport = true
	p.viewport = [2]int{fb.Width, fb.Height}
	return p
}

func (p *Pass) Viewport(width, height int) *Pass {
	p.hasViewport = true
	p.viewport = [2]int{width, height}
	return p
}

// ClearTo clears color and depth of the target before drawing.
func (p *Pass) ClearTo(color mgl32.Vec4) *Pass {
	p.clear = &color
	return p
}

func (p *Pass) Blend(mode BlendMode) *Pass {
	p.blend = mode
	return p
}

func (p *Pass) Texture(uniform string, tex TextureID, unit uint32) *Pass {
	p.textures = append(p.textures, textureBinding{uniform: uniform, texture: tex, unit: unit})
	return p
}

func (p *Pass) Uniform(name string, value any) *Pass {
	p.uniforms = append(p.uniforms, uniformValue{name: name, value: value})
	return p
}

// Draw activates the system, binds target, attributes, textures and uniforms,
// issues the draw call and unwinds every binding.
func (p *Pass) Draw(mode Primitive, first, count int32) (err error) {
	n := p.node
	dev := n.dev
	if err := n.Use(p.system, p.topology); err != nil {
		return err
	}

	if p.target != nil {
		dev.BindFramebuffer(p.target.ID)
		defer dev.BindFramebuffer(0)
	}
	if p.hasViewport {
		dev.Viewport(0, 0, p.viewport[0], p.viewport[1])
		if p.target != nil && n.canvasWidth > 0 {
			defer dev.Viewport(0, 0, n.canvasWidth, n.canvasHeight)
		}
	}
	if p.clear != nil {
		c := *p.clear
		dev.Clear(c[0], c[1], c[2], c[3])
	}
	if p.blend != BlendNone {
		dev.SetBlend(p.blend)
		defer dev.SetBlend(BlendNone)
	}

	if err := n.SetAttribute(); err != nil {
		return err
	}
	defer func() {
		if cerr := n.Clear(); err == nil {
			err = cerr
		}
	}()

	for _, t := range p.textures {
		if err := n.SetTexture(t.uniform, t.texture, t.unit); err != nil {
			return err
		}
	}
	for _, u := range p.uniforms {
		n.SetUniform(u.name, u.value)
	}
	if err := n.Err(); err != nil {
		return err
	}

	dev.DrawArrays(mode, first, count)
	return nil
}
