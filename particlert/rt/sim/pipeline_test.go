package sim

import (
	"image"
	"image/color"
	"testing"

	"github.com/gekko3d/gpgpu/particlert/rt/gpu"
	"github.com/gekko3d/gpgpu/particlert/rt/gpu/gputest"
	"github.com/gekko3d/gpgpu/particlert/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installKernels mirrors the full-screen fragment shaders on the CPU.
func installKernels(dev *gputest.Device) {
	dev.Kernel(shaders.SeedFrag, func(f gputest.Fragment) mgl32.Vec4 {
		p := f.Coord.Mul(1 / f.Float("uTexSize"))
		pos := p.Sub(mgl32.Vec2{0.5, 0.5}).Mul(2)
		return mgl32.Vec4{pos[0], pos[1], 0, 0}
	})
	dev.Kernel(shaders.MoveFrag, func(f gputest.Fragment) mgl32.Vec4 {
		p := f.Coord.Mul(1 / f.Float("uTexSize"))
		cur := FromTexel(f.Sample("uTex", p))
		return Step(cur, f.Vec2("uMouse"), f.Bool("uMouseFlag"), f.Float("uAccel")).Texel()
	})
	dev.Kernel(shaders.BackgroundFrag, func(f gputest.Fragment) mgl32.Vec4 {
		res := f.Vec2("uResolution")
		p := mgl32.Vec2{f.Coord[0] / res[0], 1 - f.Coord[1]/res[1]}
		return f.Sample("uTex", p)
	})
}

func newTestPipeline(t *testing.T, dev *gputest.Device, side int) *Pipeline {
	t.Helper()
	installKernels(dev)
	p, err := NewPipeline(dev, side, nil)
	require.NoError(t, err)
	p.SetCanvas(8, 6)
	return p
}

func particleAt(t *testing.T, dev *gputest.Device, fb *gpu.Framebuffer, l Layout, index int) Particle {
	t.Helper()
	tex, ok := dev.Texture(fb.Texture)
	require.True(t, ok)
	return FromTexel(tex.At(l.Texel(index)))
}

func TestPipeline_RegistersFourSystems(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, 4)

	assert.ElementsMatch(t, []string{"init", "simulate", "background", "points"}, p.Node().Systems())
	assert.Equal(t, 4, dev.Created.Programs)
	assert.Zero(t, dev.Created.Framebuffers, "buffers wait for Allocate")

	points, err := p.Node().System("points")
	require.NoError(t, err)
	topo, err := points.Topology(TopologyPoints)
	require.NoError(t, err)
	attr, ok := topo.Attribute("aIndex")
	require.True(t, ok)
	data, ok := dev.Buffer(attr.Buffer)
	require.True(t, ok)
	assert.Len(t, data, 16)
	assert.Equal(t, float32(15), data[15])
}

func TestPipeline_SeedWritesGrid(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, 4)
	require.NoError(t, p.Allocate())
	require.NoError(t, p.Seed())

	got := particleAt(t, dev, p.Buffers().Front(), p.Layout(), 5)
	assert.InDelta(t, -0.25, got.Position[0], 1e-6)
	assert.InDelta(t, -0.25, got.Position[1], 1e-6)
	assert.Equal(t, mgl32.Vec2{}, got.Velocity)

	for i := 0; i < p.Layout().Count(); i++ {
		want := p.Layout().SeedPosition(p.Layout().Texel(i))
		got := particleAt(t, dev, p.Buffers().Front(), p.Layout(), i)
		assert.InDelta(t, want[0], got.Position[0], 1e-6)
		assert.InDelta(t, want[1], got.Position[1], 1e-6)
	}

	assert.Equal(t, [4]int{0, 0, 8, 6}, dev.ViewportRect(), "canvas viewport restored")
	assert.Zero(t, dev.BoundFramebuffer())
	assert.ErrorIs(t, p.Seed(), ErrStageOrder, "init runs once")
}

func TestPipeline_FramesFollowReference(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, 4)
	require.NoError(t, p.Allocate())
	require.NoError(t, p.Seed())

	l := p.Layout()
	want := make([]Particle, l.Count())
	for i := range want {
		want[i] = Particle{Position: l.SeedPosition(l.Texel(i))}
	}

	fs := NewFrameState(DefaultDecay)
	fs.Pointer = mgl32.Vec2{0.1, -0.2}
	inputs := []bool{true, true, false, false, true, false}
	for frame, engaged := range inputs {
		fs.Engaged = engaged
		for i := range want {
			want[i] = Step(want[i], fs.Pointer, fs.Engaged, fs.Accel)
		}
		require.NoError(t, p.Frame(&fs))

		for i := range want {
			got := particleAt(t, dev, p.Buffers().Front(), l, i)
			assert.InDelta(t, want[i].Position[0], got.Position[0], 1e-5, "frame %d particle %d", frame, i)
			assert.InDelta(t, want[i].Position[1], got.Position[1], 1e-5, "frame %d particle %d", frame, i)
			assert.InDelta(t, want[i].Velocity[0], got.Velocity[0], 1e-5, "frame %d particle %d", frame, i)
			assert.InDelta(t, want[i].Velocity[1], got.Velocity[1], 1e-5, "frame %d particle %d", frame, i)
		}
	}
	assert.Equal(t, uint64(len(inputs)), fs.Frame)
	assert.Equal(t, len(inputs), dev.Flushes)
	assert.Zero(t, dev.FeedbackLoops)
}

func TestPipeline_FirstEngagedFrameTurnsWithoutMoving(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, 4)
	require.NoError(t, p.Allocate())
	require.NoError(t, p.Seed())

	fs := NewFrameState(DefaultDecay)
	fs.Engaged = true
	require.NoError(t, p.Frame(&fs))

	got := particleAt(t, dev, p.Buffers().Front(), p.Layout(), 5)
	assert.InDelta(t, -0.25, got.Position[0], 1e-6)
	assert.InDelta(t, 0.70710677, got.Velocity[0], 1e-5)
	assert.InDelta(t, 0.70710677, got.Velocity[1], 1e-5)
	assert.Equal(t, float32(1), fs.Accel)

	require.NoError(t, p.Frame(&fs))
	got = particleAt(t, dev, p.Buffers().Front(), p.Layout(), 5)
	assert.InDelta(t, -0.25+0.70710677*Speed, got.Position[0], 1e-5)
	assert.InDelta(t, -0.25+0.70710677*Speed, got.Position[1], 1e-5)
}

func TestPipeline_PassOrderAndBindings(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, 4)
	require.NoError(t, p.Allocate())
	p.UploadBackground(image.NewRGBA(image.Rect(0, 0, 8, 6)))
	require.NoError(t, p.Seed())

	fs := NewFrameState(DefaultDecay)
	fs.Engaged = true
	front := p.Buffers().Front()
	back := p.Buffers().Back()
	require.NoError(t, p.Frame(&fs))

	require.Len(t, dev.Draws, 4)
	init, move, bg, points := dev.Draws[0], dev.Draws[1], dev.Draws[2], dev.Draws[3]

	assert.Equal(t, front.ID, init.Framebuffer)
	assert.Empty(t, init.Samplers)

	assert.Equal(t, back.ID, move.Framebuffer)
	assert.Equal(t, front.Texture, move.Samplers["uTex"])
	assert.Equal(t, [4]int{0, 0, 4, 4}, move.Viewport)
	assert.Equal(t, int32(1), move.Uniforms["uMouseFlag"])

	assert.Zero(t, bg.Framebuffer)
	assert.Equal(t, [4]int{0, 0, 8, 6}, bg.Viewport)
	assert.Equal(t, gpu.BlendNone, bg.Blend)

	assert.Zero(t, points.Framebuffer)
	assert.Equal(t, gpu.Points, points.Mode)
	assert.Equal(t, int32(16), points.Count)
	assert.Equal(t, gpu.BlendAdditive, points.Blend)
	assert.Equal(t, back.Texture, points.Samplers["uTex"])
	assert.Equal(t, float32(0), points.Uniforms["uPointScale"])
	assert.Equal(t, HueColor(0), points.Uniforms["uAmbient"])
	assert.Equal(t, mgl32.Vec2{8, 6}, points.Uniforms["uResolution"])

	assert.Equal(t, gpu.BlendNone, dev.BlendMode())
	assert.Same(t, back, p.Buffers().Front(), "buffers swap after the point pass")
	assert.Equal(t, StageDrawPoints, p.Stage())
}

func TestPipeline_RejectsOutOfOrderPasses(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, 4)
	require.NoError(t, p.Allocate())

	fs := NewFrameState(DefaultDecay)
	assert.ErrorIs(t, p.Simulate(&fs), ErrStageOrder)
	require.NoError(t, p.Seed())
	assert.ErrorIs(t, p.DrawPoints(&fs), ErrStageOrder)
	assert.ErrorIs(t, p.CompositeBackground(), ErrStageOrder)
	assert.Empty(t, dev.Draws[1:])
}

func TestPipeline_CapabilityMissing(t *testing.T) {
	dev := gputest.WithoutFloatTextures()
	p := newTestPipeline(t, dev, 4)

	err := p.Allocate()
	require.ErrorIs(t, err, gpu.ErrCapabilityMissing)
	assert.False(t, p.Allocated())
	assert.Zero(t, dev.Created.Framebuffers)
	assert.Zero(t, dev.Created.Textures)

	fs := NewFrameState(DefaultDecay)
	assert.ErrorIs(t, p.Seed(), gpu.ErrCapabilityMissing)
	assert.ErrorIs(t, p.Frame(&fs), gpu.ErrCapabilityMissing)
	assert.Empty(t, dev.Draws)

	// the background keeps compositing
	p.UploadBackground(image.NewRGBA(image.Rect(0, 0, 8, 6)))
	require.NoError(t, p.DrawBackground())
	require.Len(t, dev.Draws, 1)
	assert.Zero(t, dev.Draws[0].Framebuffer)
}

func TestPipeline_BackgroundKeepsImageOrientation(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, 4)

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			if y < 3 {
				img.SetRGBA(x, y, red)
			} else {
				img.SetRGBA(x, y, blue)
			}
		}
	}
	p.UploadBackground(img)
	require.NoError(t, p.DrawBackground())

	out := dev.ReadPixels(8, 6)
	assert.Equal(t, red, out.RGBAAt(0, 0))
	assert.Equal(t, red, out.RGBAAt(7, 2))
	assert.Equal(t, blue, out.RGBAAt(0, 3))
	assert.Equal(t, blue, out.RGBAAt(7, 5))
	assert.Zero(t, dev.BoundTexture(0))
}

func TestPipeline_UploadBackgroundReusesTexture(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, 4)

	p.UploadBackground(image.NewRGBA(image.Rect(0, 0, 8, 6)))
	p.UploadBackground(image.NewRGBA(image.Rect(0, 0, 8, 6)))
	assert.Equal(t, 1, dev.Created.Textures)

	p.UploadBackground(image.NewRGBA(image.Rect(0, 0, 16, 12)))
	assert.Equal(t, 2, dev.Created.Textures)
	assert.Equal(t, 1, dev.Live().Textures)
}

func TestPipeline_ReleaseFreesEverything(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev, 4)
	require.NoError(t, p.Allocate())
	p.UploadBackground(image.NewRGBA(image.Rect(0, 0, 8, 6)))

	p.Release()
	assert.Equal(t, gputest.Counts{}, dev.Live())
	assert.False(t, p.Allocated())
}
