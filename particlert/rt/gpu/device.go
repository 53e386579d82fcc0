package gpu

import (
	"image"
)

// Object handles. Zero always means "none" and unbinds when passed to a Bind* call.
type (
	ProgramID      uint32
	BufferID       uint32
	TextureID      uint32
	RenderbufferID uint32
	FramebufferID  uint32
)

type Primitive int

const (
	TriangleStrip Primitive = iota
	Points
)

func (p Primitive) String() string {
	switch p {
	case TriangleStrip:
		return "TRIANGLE_STRIP"
	case Points:
		return "POINTS"
	default:
		return "UNKNOWN"
	}
}

type TextureFormat int

const (
	FormatRGBA8 TextureFormat = iota
	FormatRGBA16F
	FormatRGBA32F
)

func (f TextureFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA16F:
		return "RGBA16F"
	case FormatRGBA32F:
		return "RGBA32F"
	default:
		return "UNKNOWN"
	}
}

// IsFloat reports whether texels of this format hold unclamped floating point values.
func (f TextureFormat) IsFloat() bool {
	return f == FormatRGBA16F || f == FormatRGBA32F
}

type BlendMode int

const (
	BlendNone BlendMode = iota
	// BlendAdditive is ONE, ONE.
	BlendAdditive
)

// Device is the subset of a GL-style rendering context the pipeline needs.
// Every call must happen on the thread that owns the context.
type Device interface {
	HasExtension(name string) bool

	CreateProgram(vertexSrc, fragmentSrc string) (ProgramID, error)
	UseProgram(p ProgramID)
	DeleteProgram(p ProgramID)
	// AttribLocation and UniformLocation return -1 when the name is not active in the program.
	AttribLocation(p ProgramID, name string) int32
	UniformLocation(p ProgramID, name string) int32

	Uniform1f(loc int32, v float32)
	Uniform1i(loc int32, v int32)
	Uniform2f(loc int32, x, y float32)
	Uniform3f(loc int32, x, y, z float32)
	Uniform4f(loc int32, x, y, z, w float32)

	CreateVertexBuffer(data []float32) BufferID
	BindVertexBuffer(b BufferID)
	// VertexAttribPointer describes the bound buffer as tightly packed floats and enables the slot.
	VertexAttribPointer(slot uint32, components int32)
	DeleteBuffer(b BufferID)

	CreateTexture(width, height int, format TextureFormat) TextureID
	UploadTexture(t TextureID, img *image.RGBA)
	ActiveTexture(unit uint32)
	BindTexture(t TextureID)
	DeleteTexture(t TextureID)

	CreateRenderbuffer(width, height int) RenderbufferID
	DeleteRenderbuffer(r RenderbufferID)
	CreateFramebuffer() FramebufferID
	BindFramebuffer(f FramebufferID)
	AttachColor(f FramebufferID, t TextureID)
	AttachDepth(f FramebufferID, r RenderbufferID)
	FramebufferComplete(f FramebufferID) bool
	DeleteFramebuffer(f FramebufferID)

	Viewport(x, y, width, height int)
	Clear(r, g, b, a float32)
	SetBlend(mode BlendMode)
	DrawArrays(mode Primitive, first, count int32)
	Flush()
	// ReadPixels reads the default framebuffer, top row first.
	ReadPixels(width, height int) *image.RGBA
}
