// Package gputest provides an in-memory gpu.Device for tests.
//
// The fake records every call, counts object creation and can execute full-screen
// triangle strip draws on the CPU: a Kernel registered for a fragment shader source runs
// once per covered pixel and writes into the bound framebuffer's color texture (or into
// Screen when drawing to the default framebuffer).
package gputest

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"regexp"

	"github.com/gekko3d/gpgpu/particlert/rt/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Kernel computes one fragment.
type Kernel func(f Fragment) mgl32.Vec4

// Counts tracks how many objects of each kind were ever created.
type Counts struct {
	Programs      int
	Buffers       int
	Textures      int
	Renderbuffers int
	Framebuffers  int
}

// Texture stores RGBA texels as floats, row 0 at the bottom like GL.
type Texture struct {
	Width  int
	Height int
	Format gpu.TextureFormat
	Pix    []float32
}

func newTexture(w, h int, format gpu.TextureFormat) *Texture {
	return &Texture{Width: w, Height: h, Format: format, Pix: make([]float32, w*h*4)}
}

func (t *Texture) At(x, y int) mgl32.Vec4 {
	i := (y*t.Width + x) * 4
	return mgl32.Vec4{t.Pix[i], t.Pix[i+1], t.Pix[i+2], t.Pix[i+3]}
}

func (t *Texture) set(x, y int, v mgl32.Vec4) {
	if !t.Format.IsFloat() {
		for i := range v {
			v[i] = mgl32.Clamp(v[i], 0, 1)
		}
	}
	i := (y*t.Width + x) * 4
	copy(t.Pix[i:i+4], v[:])
}

// Sample reads with nearest filtering and clamp-to-edge wrapping.
func (t *Texture) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	x := clampInt(int(math.Floor(float64(uv[0]*float32(t.Width)))), 0, t.Width-1)
	y := clampInt(int(math.Floor(float64(uv[1]*float32(t.Height)))), 0, t.Height-1)
	return t.At(x, y)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type program struct {
	vertex   string
	fragment string
	attribs  map[string]int32
	uniforms map[string]int32
	names    map[int32]string
	values   map[int32]any
	samplers map[string]bool
}

type framebuffer struct {
	color gpu.TextureID
	depth gpu.RenderbufferID
}

// Draw is one recorded DrawArrays call.
type Draw struct {
	Program     gpu.ProgramID
	Mode        gpu.Primitive
	First       int32
	Count       int32
	Framebuffer gpu.FramebufferID
	Viewport    [4]int
	Blend       gpu.BlendMode
	// Samplers maps sampler uniform name to the texture bound on its unit.
	Samplers map[string]gpu.TextureID
	Uniforms map[string]any
	Attribs  map[uint32]gpu.BufferID
}

type Device struct {
	// Extensions lists what HasExtension reports; nil means full float support.
	Extensions map[string]bool
	// FailCompile makes CreateProgram fail with a CompileError.
	FailCompile bool
	// Incomplete makes every framebuffer report incomplete.
	Incomplete bool

	Calls   []string
	Created Counts
	Draws   []Draw
	Flushes int
	// FeedbackLoops counts draws that sampled the texture they were writing.
	FeedbackLoops int
	Screen        *Texture

	next          uint32
	programs      map[gpu.ProgramID]*program
	buffers       map[gpu.BufferID][]float32
	textures      map[gpu.TextureID]*Texture
	renderbuffers map[gpu.RenderbufferID]bool
	framebuffers  map[gpu.FramebufferID]*framebuffer
	kernels       map[string]Kernel

	current     gpu.ProgramID
	arrayBuffer gpu.BufferID
	attribs     map[uint32]gpu.BufferID
	activeUnit  uint32
	units       map[uint32]gpu.TextureID
	boundFB     gpu.FramebufferID
	viewport    [4]int
	blend       gpu.BlendMode
}

var _ gpu.Device = (*Device)(nil)

func New() *Device {
	return &Device{
		programs:      make(map[gpu.ProgramID]*program),
		buffers:       make(map[gpu.BufferID][]float32),
		textures:      make(map[gpu.TextureID]*Texture),
		renderbuffers: make(map[gpu.RenderbufferID]bool),
		framebuffers:  make(map[gpu.FramebufferID]*framebuffer),
		kernels:       make(map[string]Kernel),
		attribs:       make(map[uint32]gpu.BufferID),
		units:         make(map[uint32]gpu.TextureID),
	}
}

// WithoutFloatTextures returns a device that reports no float texture extension.
func WithoutFloatTextures() *Device {
	d := New()
	d.Extensions = map[string]bool{}
	return d
}

// Kernel registers k for every program linked from fragmentSrc.
func (d *Device) Kernel(fragmentSrc string, k Kernel) {
	d.kernels[fragmentSrc] = k
}

func (d *Device) id() uint32 {
	d.next++
	return d.next
}

func (d *Device) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

// Texture returns the stored texels of t.
func (d *Device) Texture(t gpu.TextureID) (*Texture, bool) {
	tex, ok := d.textures[t]
	return tex, ok
}

// Live reports how many objects currently exist.
func (d *Device) Live() Counts {
	return Counts{
		Programs:      len(d.programs),
		Buffers:       len(d.buffers),
		Textures:      len(d.textures),
		Renderbuffers: len(d.renderbuffers),
		Framebuffers:  len(d.framebuffers),
	}
}

func (d *Device) CurrentProgram() gpu.ProgramID { return d.current }
func (d *Device) BoundFramebuffer() gpu.FramebufferID { return d.boundFB }
func (d *Device) BoundArrayBuffer() gpu.BufferID { return d.arrayBuffer }
func (d *Device) BoundTexture(unit uint32) gpu.TextureID { return d.units[unit] }
func (d *Device) ViewportRect() [4]int { return d.viewport }
func (d *Device) BlendMode() gpu.BlendMode { return d.blend }

// UniformValue returns the last value sent to a uniform of p.
func (d *Device) UniformValue(p gpu.ProgramID, name string) (any, bool) {
	prog, ok := d.programs[p]
	if !ok {
		return nil, false
	}
	loc, ok := prog.uniforms[name]
	if !ok {
		return nil, false
	}
	v, ok := prog.values[loc]
	return v, ok
}

func (d *Device) HasExtension(name string) bool {
	if d.Extensions == nil {
		return true
	}
	return d.Extensions[name]
}

var (
	uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)\s*;`)
	samplerDecl = regexp.MustCompile(`(?m)^\s*uniform\s+sampler2D\s+(\w+)\s*;`)
	attribDecl  = regexp.MustCompile(`(?m)^\s*(?:in|attribute)\s+\w+\s+(\w+)\s*;`)
)

func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (gpu.ProgramID, error) {
	d.record("CreateProgram")
	if d.FailCompile {
		return 0, &gpu.CompileError{Stage: "link", Log: "forced failure"}
	}
	p := &program{
		vertex:   vertexSrc,
		fragment: fragmentSrc,
		attribs:  make(map[string]int32),
		uniforms: make(map[string]int32),
		names:    make(map[int32]string),
		values:   make(map[int32]any),
		samplers: make(map[string]bool),
	}
	for _, m := range attribDecl.FindAllStringSubmatch(vertexSrc, -1) {
		p.attribs[m[1]] = int32(len(p.attribs))
	}
	for _, src := range []string{vertexSrc, fragmentSrc} {
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			if _, ok := p.uniforms[m[1]]; ok {
				continue
			}
			loc := int32(len(p.uniforms))
			p.uniforms[m[1]] = loc
			p.names[loc] = m[1]
		}
		for _, m := range samplerDecl.FindAllStringSubmatch(src, -1) {
			p.samplers[m[1]] = true
		}
	}
	id := gpu.ProgramID(d.id())
	d.programs[id] = p
	d.Created.Programs++
	return id, nil
}

func (d *Device) UseProgram(p gpu.ProgramID) {
	d.record("UseProgram %d", p)
	d.current = p
}

func (d *Device) DeleteProgram(p gpu.ProgramID) {
	d.record("DeleteProgram %d", p)
	delete(d.programs, p)
}

func (d *Device) AttribLocation(p gpu.ProgramID, name string) int32 {
	if prog, ok := d.programs[p]; ok {
		if loc, ok := prog.attribs[name]; ok {
			return loc
		}
	}
	return -1
}

func (d *Device) UniformLocation(p gpu.ProgramID, name string) int32 {
	if prog, ok := d.programs[p]; ok {
		if loc, ok := prog.uniforms[name]; ok {
			return loc
		}
	}
	return -1
}

func (d *Device) setUniform(loc int32, v any) {
	d.record("Uniform %d %v", loc, v)
	if prog, ok := d.programs[d.current]; ok && loc >= 0 {
		prog.values[loc] = v
	}
}

func (d *Device) Uniform1f(loc int32, v float32)       { d.setUniform(loc, v) }
func (d *Device) Uniform1i(loc int32, v int32)         { d.setUniform(loc, v) }
func (d *Device) Uniform2f(loc int32, x, y float32)    { d.setUniform(loc, mgl32.Vec2{x, y}) }
func (d *Device) Uniform3f(loc int32, x, y, z float32) { d.setUniform(loc, mgl32.Vec3{x, y, z}) }
func (d *Device) Uniform4f(loc int32, x, y, z, w float32) {
	d.setUniform(loc, mgl32.Vec4{x, y, z, w})
}

func (d *Device) CreateVertexBuffer(data []float32) gpu.BufferID {
	id := gpu.BufferID(d.id())
	d.record("CreateVertexBuffer %d len=%d", id, len(data))
	d.buffers[id] = append([]float32(nil), data...)
	d.Created.Buffers++
	return id
}

func (d *Device) BindVertexBuffer(b gpu.BufferID) {
	d.record("BindVertexBuffer %d", b)
	d.arrayBuffer = b
}

func (d *Device) VertexAttribPointer(slot uint32, components int32) {
	d.record("VertexAttribPointer %d %d", slot, components)
	d.attribs[slot] = d.arrayBuffer
}

func (d *Device) DeleteBuffer(b gpu.BufferID) {
	d.record("DeleteBuffer %d", b)
	delete(d.buffers, b)
}

// Buffer returns the uploaded contents of b.
func (d *Device) Buffer(b gpu.BufferID) ([]float32, bool) {
	data, ok := d.buffers[b]
	return data, ok
}

func (d *Device) CreateTexture(width, height int, format gpu.TextureFormat) gpu.TextureID {
	id := gpu.TextureID(d.id())
	d.record("CreateTexture %d %dx%d %s", id, width, height, format)
	d.textures[id] = newTexture(width, height, format)
	d.units[d.activeUnit] = id
	d.Created.Textures++
	return id
}

func (d *Device) UploadTexture(t gpu.TextureID, img *image.RGBA) {
	d.record("UploadTexture %d", t)
	tex, ok := d.textures[t]
	if !ok {
		return
	}
	b := img.Bounds()
	// Image rows are top-down; the upload keeps that order so row 0 of the texture is
	// the image's top row, matching what the background shader flips back.
	for y := 0; y < tex.Height && y < b.Dy(); y++ {
		for x := 0; x < tex.Width && x < b.Dx(); x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			tex.set(x, y, mgl32.Vec4{
				float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255,
			})
		}
	}
}

func (d *Device) ActiveTexture(unit uint32) {
	d.record("ActiveTexture %d", unit)
	d.activeUnit = unit
}

func (d *Device) BindTexture(t gpu.TextureID) {
	d.record("BindTexture %d", t)
	if t == 0 {
		delete(d.units, d.activeUnit)
		return
	}
	d.units[d.activeUnit] = t
}

func (d *Device) DeleteTexture(t gpu.TextureID) {
	d.record("DeleteTexture %d", t)
	delete(d.textures, t)
}

func (d *Device) CreateRenderbuffer(width, height int) gpu.RenderbufferID {
	id := gpu.RenderbufferID(d.id())
	d.record("CreateRenderbuffer %d %dx%d", id, width, height)
	d.renderbuffers[id] = true
	d.Created.Renderbuffers++
	return id
}

func (d *Device) DeleteRenderbuffer(r gpu.RenderbufferID) {
	d.record("DeleteRenderbuffer %d", r)
	delete(d.renderbuffers, r)
}

func (d *Device) CreateFramebuffer() gpu.FramebufferID {
	id := gpu.FramebufferID(d.id())
	d.record("CreateFramebuffer %d", id)
	d.framebuffers[id] = &framebuffer{}
	d.Created.Framebuffers++
	return id
}

func (d *Device) BindFramebuffer(f gpu.FramebufferID) {
	d.record("BindFramebuffer %d", f)
	d.boundFB = f
}

func (d *Device) AttachColor(f gpu.FramebufferID, t gpu.TextureID) {
	d.record("AttachColor %d %d", f, t)
	if fb, ok := d.framebuffers[f]; ok {
		fb.color = t
	}
}

func (d *Device) AttachDepth(f gpu.FramebufferID, r gpu.RenderbufferID) {
	d.record("AttachDepth %d %d", f, r)
	if fb, ok := d.framebuffers[f]; ok {
		fb.depth = r
	}
}

func (d *Device) FramebufferComplete(f gpu.FramebufferID) bool {
	fb, ok := d.framebuffers[f]
	return ok && !d.Incomplete && fb.color != 0 && fb.depth != 0
}

func (d *Device) DeleteFramebuffer(f gpu.FramebufferID) {
	d.record("DeleteFramebuffer %d", f)
	delete(d.framebuffers, f)
}

func (d *Device) Viewport(x, y, width, height int) {
	d.record("Viewport %d %d %d %d", x, y, width, height)
	d.viewport = [4]int{x, y, width, height}
}

func (d *Device) target() *Texture {
	if fb, ok := d.framebuffers[d.boundFB]; ok && d.boundFB != 0 {
		return d.textures[fb.color]
	}
	w, h := d.viewport[0]+d.viewport[2], d.viewport[1]+d.viewport[3]
	if d.Screen == nil || d.Screen.Width != w || d.Screen.Height != h {
		d.Screen = newTexture(w, h, gpu.FormatRGBA8)
	}
	return d.Screen
}

func (d *Device) Clear(r, g, b, a float32) {
	d.record("Clear %v %v %v %v", r, g, b, a)
	t := d.target()
	if t == nil {
		return
	}
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			t.set(x, y, mgl32.Vec4{r, g, b, a})
		}
	}
}

func (d *Device) SetBlend(mode gpu.BlendMode) {
	d.record("SetBlend %d", mode)
	d.blend = mode
}

func (d *Device) DrawArrays(mode gpu.Primitive, first, count int32) {
	d.record("DrawArrays %s %d %d", mode, first, count)
	prog := d.programs[d.current]
	draw := Draw{
		Program:     d.current,
		Mode:        mode,
		First:       first,
		Count:       count,
		Framebuffer: d.boundFB,
		Viewport:    d.viewport,
		Blend:       d.blend,
		Samplers:    make(map[string]gpu.TextureID),
		Uniforms:    make(map[string]any),
		Attribs:     make(map[uint32]gpu.BufferID),
	}
	for slot, b := range d.attribs {
		draw.Attribs[slot] = b
	}
	var writing gpu.TextureID
	if fb, ok := d.framebuffers[d.boundFB]; ok {
		writing = fb.color
	}
	if prog != nil {
		for loc, v := range prog.values {
			name := prog.names[loc]
			draw.Uniforms[name] = v
		}
		for name := range draw.Uniforms {
			if tex, ok := d.samplerTexture(prog, name); ok {
				draw.Samplers[name] = tex
				if writing != 0 && tex == writing {
					d.FeedbackLoops++
				}
			}
		}
	}
	d.Draws = append(d.Draws, draw)

	if prog == nil || mode != gpu.TriangleStrip {
		return
	}
	k, ok := d.kernels[prog.fragment]
	if !ok {
		return
	}
	out := d.target()
	// Snapshot the target so a kernel never observes its own writes.
	src := &Texture{Width: out.Width, Height: out.Height, Format: out.Format, Pix: append([]float32(nil), out.Pix...)}
	vx, vy, vw, vh := d.viewport[0], d.viewport[1], d.viewport[2], d.viewport[3]
	for y := vy; y < vy+vh && y < out.Height; y++ {
		for x := vx; x < vx+vw && x < out.Width; x++ {
			v := k(Fragment{
				Coord: mgl32.Vec2{float32(x) + 0.5, float32(y) + 0.5},
				dev:   d,
				prog:  prog,
			})
			if d.blend == gpu.BlendAdditive {
				v = v.Add(src.At(x, y))
			}
			out.set(x, y, v)
		}
	}
}

// samplerTexture resolves the texture a sampler uniform points at through its unit.
func (d *Device) samplerTexture(prog *program, name string) (gpu.TextureID, bool) {
	if !prog.samplers[name] {
		return 0, false
	}
	loc, ok := prog.uniforms[name]
	if !ok {
		return 0, false
	}
	unit, ok := prog.values[loc].(int32)
	if !ok {
		return 0, false
	}
	tex, ok := d.units[uint32(unit)]
	if !ok || tex == 0 {
		return 0, false
	}
	return tex, true
}

func (d *Device) Flush() {
	d.record("Flush")
	d.Flushes++
}

func (d *Device) ReadPixels(width, height int) *image.RGBA {
	d.record("ReadPixels %d %d", width, height)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if d.Screen == nil {
		return img
	}
	for y := 0; y < height && y < d.Screen.Height; y++ {
		for x := 0; x < width && x < d.Screen.Width; x++ {
			v := d.Screen.At(x, y)
			img.SetRGBA(x, height-1-y, color.RGBA{
				R: uint8(mgl32.Clamp(v[0], 0, 1) * 255),
				G: uint8(mgl32.Clamp(v[1], 0, 1) * 255),
				B: uint8(mgl32.Clamp(v[2], 0, 1) * 255),
				A: uint8(mgl32.Clamp(v[3], 0, 1) * 255),
			})
		}
	}
	return img
}

// Fragment is the input of one kernel invocation.
type Fragment struct {
	// Coord is gl_FragCoord.xy.
	Coord mgl32.Vec2

	dev  *Device
	prog *program
}

func (f Fragment) value(name string) any {
	loc, ok := f.prog.uniforms[name]
	if !ok {
		return nil
	}
	return f.prog.values[loc]
}

func (f Fragment) Float(name string) float32 {
	v, _ := f.value(name).(float32)
	return v
}

func (f Fragment) Bool(name string) bool {
	v, _ := f.value(name).(int32)
	return v != 0
}

func (f Fragment) Vec2(name string) mgl32.Vec2 {
	v, _ := f.value(name).(mgl32.Vec2)
	return v
}

func (f Fragment) Vec4(name string) mgl32.Vec4 {
	v, _ := f.value(name).(mgl32.Vec4)
	return v
}

// Sample reads the texture bound to the unit the sampler uniform points at.
func (f Fragment) Sample(sampler string, uv mgl32.Vec2) mgl32.Vec4 {
	tex, ok := f.dev.samplerTexture(f.prog, sampler)
	if !ok {
		return mgl32.Vec4{}
	}
	return f.dev.textures[tex].Sample(uv)
}
