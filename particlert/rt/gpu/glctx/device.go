// Package glctx implements gpu.Device on an OpenGL 4.1 core context.
package glctx

import (
	"fmt"
	"image"
	"strings"

	"github.com/gekko3d/gpgpu/particlert/rt/gpu"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// Device drives the OpenGL context current on the calling thread.
type Device struct {
	vao        uint32
	extensions map[string]struct{}
	version    string
}

var _ gpu.Device = (*Device)(nil)

// New loads the GL function pointers. A GL context must be current.
func New(log gpu.Logger) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	d := &Device{
		extensions: make(map[string]struct{}),
		version:    gl.GoStr(gl.GetString(gl.VERSION)),
	}

	var count int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &count)
	for i := int32(0); i < count; i++ {
		d.extensions[gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i)))] = struct{}{}
	}
	// Float color attachments are core since 3.0; some drivers stop listing the extension.
	var major int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	if major >= 3 {
		d.extensions["GL_ARB_texture_float"] = struct{}{}
		d.extensions["GL_ARB_half_float_pixel"] = struct{}{}
	}

	// Core profile needs a bound vertex array for any attribute setup.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Disable(gl.DEPTH_TEST)

	if log != nil {
		log.Debugf("OpenGL %s, %d extensions", d.version, count)
	}
	return d, nil
}

func (d *Device) Version() string {
	return d.version
}

func (d *Device) Release() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

func (d *Device) HasExtension(name string) bool {
	_, ok := d.extensions[name]
	return ok
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		stage := "compile vertex"
		if shaderType == gl.FRAGMENT_SHADER {
			stage = "compile fragment"
		}
		return 0, &gpu.CompileError{Stage: stage, Log: strings.TrimRight(log, "\x00")}
	}
	return shader, nil
}

func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (gpu.ProgramID, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, &gpu.CompileError{Stage: "link", Log: strings.TrimRight(log, "\x00")}
	}
	return gpu.ProgramID(program), nil
}

func (d *Device) UseProgram(p gpu.ProgramID) { gl.UseProgram(uint32(p)) }

func (d *Device) DeleteProgram(p gpu.ProgramID) { gl.DeleteProgram(uint32(p)) }

func (d *Device) AttribLocation(p gpu.ProgramID, name string) int32 {
	return gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) UniformLocation(p gpu.ProgramID, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) Uniform1f(loc int32, v float32)          { gl.Uniform1f(loc, v) }
func (d *Device) Uniform1i(loc int32, v int32)            { gl.Uniform1i(loc, v) }
func (d *Device) Uniform2f(loc int32, x, y float32)       { gl.Uniform2f(loc, x, y) }
func (d *Device) Uniform3f(loc int32, x, y, z float32)    { gl.Uniform3f(loc, x, y, z) }
func (d *Device) Uniform4f(loc int32, x, y, z, w float32) { gl.Uniform4f(loc, x, y, z, w) }

func (d *Device) CreateVertexBuffer(data []float32) gpu.BufferID {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return gpu.BufferID(vbo)
}

func (d *Device) BindVertexBuffer(b gpu.BufferID) { gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b)) }

func (d *Device) VertexAttribPointer(slot uint32, components int32) {
	gl.EnableVertexAttribArray(slot)
	gl.VertexAttribPointer(slot, components, gl.FLOAT, false, 0, gl.PtrOffset(0))
}

func (d *Device) DeleteBuffer(b gpu.BufferID) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

func internalFormat(f gpu.TextureFormat) (int32, uint32) {
	switch f {
	case gpu.FormatRGBA32F:
		return gl.RGBA32F, gl.FLOAT
	case gpu.FormatRGBA16F:
		return gl.RGBA16F, gl.HALF_FLOAT
	default:
		return gl.RGBA8, gl.UNSIGNED_BYTE
	}
}

func (d *Device) CreateTexture(width, height int, format gpu.TextureFormat) gpu.TextureID {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	internal, xtype := internalFormat(format)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(width), int32(height), 0, gl.RGBA, xtype, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return gpu.TextureID(tex)
}

func (d *Device) UploadTexture(t gpu.TextureID, img *image.RGBA) {
	b := img.Bounds()
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(b.Dx()), int32(b.Dy()), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (d *Device) ActiveTexture(unit uint32) { gl.ActiveTexture(gl.TEXTURE0 + unit) }

func (d *Device) BindTexture(t gpu.TextureID) { gl.BindTexture(gl.TEXTURE_2D, uint32(t)) }

func (d *Device) DeleteTexture(t gpu.TextureID) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (d *Device) CreateRenderbuffer(width, height int) gpu.RenderbufferID {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT16, int32(width), int32(height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	return gpu.RenderbufferID(rb)
}

func (d *Device) DeleteRenderbuffer(r gpu.RenderbufferID) {
	id := uint32(r)
	gl.DeleteRenderbuffers(1, &id)
}

func (d *Device) CreateFramebuffer() gpu.FramebufferID {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	return gpu.FramebufferID(fbo)
}

func (d *Device) BindFramebuffer(f gpu.FramebufferID) { gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f)) }

// AttachColor and AttachDepth act on the currently bound framebuffer, which must be f.
func (d *Device) AttachColor(f gpu.FramebufferID, t gpu.TextureID) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(t), 0)
}

func (d *Device) AttachDepth(f gpu.FramebufferID, r gpu.RenderbufferID) {
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, uint32(r))
}

func (d *Device) FramebufferComplete(f gpu.FramebufferID) bool {
	return gl.CheckFramebufferStatus(gl.FRAMEBUFFER) == gl.FRAMEBUFFER_COMPLETE
}

func (d *Device) DeleteFramebuffer(f gpu.FramebufferID) {
	id := uint32(f)
	gl.DeleteFramebuffers(1, &id)
}

func (d *Device) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) SetBlend(mode gpu.BlendMode) {
	switch mode {
	case gpu.BlendAdditive:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
	default:
		gl.Disable(gl.BLEND)
	}
}

func (d *Device) DrawArrays(mode gpu.Primitive, first, count int32) {
	switch mode {
	case gpu.Points:
		gl.DrawArrays(gl.POINTS, first, count)
	default:
		gl.DrawArrays(gl.TRIANGLE_STRIP, first, count)
	}
}

func (d *Device) Flush() { gl.Flush() }

func (d *Device) ReadPixels(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	// GL rows start at the bottom.
	row := make([]byte, img.Stride)
	for y := 0; y < height/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(height-1-y)*img.Stride : (height-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
	return img
}
