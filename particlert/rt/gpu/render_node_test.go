package gpu_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gekko3d/gpgpu/particlert/rt/gpu"
	"github.com/gekko3d/gpgpu/particlert/rt/gpu/gputest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVert = `#version 410 core
in vec3 aPosition;
uniform float uScale;
void main() {
    gl_Position = vec4(aPosition * uScale, 1.0);
}
`

const testFrag = `#version 410 core
uniform sampler2D uTex;
uniform vec4 uColor;
out vec4 fragColor;
void main() {
    fragColor = uColor;
}
`

var quad = []float32{-1, 1, 0, -1, -1, 0, 1, 1, 0, 1, -1, 0}

type captureLogger struct {
	warnings []string
}

func (l *captureLogger) Debugf(format string, args ...any) {}
func (l *captureLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func TestRenderNode_RegisterIsIdempotent(t *testing.T) {
	dev := gputest.New()
	node := gpu.NewRenderNode(dev, nil)

	first, err := node.RegisterSource("move", testVert, testFrag)
	require.NoError(t, err)
	second, err := node.RegisterSource("move", testVert, testFrag)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, []string{"move"}, node.Systems())
	assert.Equal(t, 1, dev.Created.Programs, "second registration must not compile again")

	again := node.Register("move", 999)
	assert.Same(t, first, again)
	assert.Equal(t, first.Program(), again.Program())
}

func TestRenderNode_RegisterMakesProgramCurrent(t *testing.T) {
	dev := gputest.New()
	node := gpu.NewRenderNode(dev, nil)

	s, err := node.RegisterSource("data", testVert, testFrag)
	require.NoError(t, err)
	assert.Equal(t, s.Program(), dev.CurrentProgram())
}

func TestRenderNode_UseUnknownSystemFails(t *testing.T) {
	node := gpu.NewRenderNode(gputest.New(), nil)

	err := node.Use("missing", "plane")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gpu.ErrUnknownSystem))

	_, err = node.System("missing")
	assert.ErrorIs(t, err, gpu.ErrUnknownSystem)
}

func TestRenderNode_CallsBeforeUseFail(t *testing.T) {
	node := gpu.NewRenderNode(gputest.New(), nil)

	assert.ErrorIs(t, node.RegisterAttribute("aPosition", quad, 3), gpu.ErrNoActiveSystem)
	assert.ErrorIs(t, node.SetAttribute(), gpu.ErrNoActiveSystem)
	assert.ErrorIs(t, node.RegisterUniformLocation("uTex"), gpu.ErrNoActiveSystem)
	assert.ErrorIs(t, node.SetTexture("uTex", 1, 0), gpu.ErrNoActiveSystem)
	assert.ErrorIs(t, node.SetUniform("uScale", float32(1)).Err(), gpu.ErrNoActiveSystem)
	assert.ErrorIs(t, node.Clear(), gpu.ErrNoActiveSystem)
	assert.NoError(t, node.Clear(), "clear resets the sticky error")
}

func TestRenderNode_UseSwitchesProgramAndTopology(t *testing.T) {
	dev := gputest.New()
	node := gpu.NewRenderNode(dev, nil)
	a, err := node.RegisterSource("a", testVert, testFrag)
	require.NoError(t, err)
	b, err := node.RegisterSource("b", testVert, testFrag)
	require.NoError(t, err)

	require.NoError(t, node.Use("a", "plane"))
	sys, topo := node.Current()
	assert.Same(t, a, sys)
	assert.Equal(t, "plane", topo.Name())
	assert.Equal(t, a.Program(), dev.CurrentProgram())

	require.NoError(t, node.Use("b", "points"))
	sys, topo = node.Current()
	assert.Same(t, b, sys)
	assert.Equal(t, "points", topo.Name())
	assert.Equal(t, b.Program(), dev.CurrentProgram())

	require.NoError(t, node.Use("a", "plane"))
	assert.Equal(t, 1, a.TopologyCount())
}

func TestRenderNode_RegisterAttributeOnce(t *testing.T) {
	dev := gputest.New()
	node := gpu.NewRenderNode(dev, nil)
	_, err := node.RegisterSource("bg", testVert, testFrag)
	require.NoError(t, err)
	require.NoError(t, node.Use("bg", "plane"))

	require.NoError(t, node.RegisterAttribute("aPosition", quad, 3))
	require.NoError(t, node.RegisterAttribute("aPosition", quad, 3))
	assert.Equal(t, 1, dev.Created.Buffers)

	_, topo := node.Current()
	attr, ok := topo.Attribute("aPosition")
	require.True(t, ok)
	assert.Equal(t, int32(0), attr.Slot)
	assert.Equal(t, int32(3), attr.Components)
	data, ok := dev.Buffer(attr.Buffer)
	require.True(t, ok)
	assert.Equal(t, quad, data)
}

func TestRenderNode_MissingNamesWarnOnce(t *testing.T) {
	dev := gputest.New()
	log := &captureLogger{}
	node := gpu.NewRenderNode(dev, log)
	_, err := node.RegisterSource("bg", testVert, testFrag)
	require.NoError(t, err)
	require.NoError(t, node.Use("bg", "plane"))

	require.NoError(t, node.RegisterUniformLocation("uTypo"))
	require.NoError(t, node.RegisterUniformLocation("uTypo"))
	node.SetUniform("uTypo", float32(2)).SetUniform("uTypo", float32(3))
	require.NoError(t, node.Err())

	require.NoError(t, node.RegisterAttribute("aMissing", []float32{1}, 1))
	require.NoError(t, node.SetAttribute())

	assert.Len(t, log.warnings, 2)
	assert.Contains(t, log.warnings[0], "uTypo")
	assert.Contains(t, log.warnings[1], "aMissing")

	sys, _ := node.Current()
	loc, ok := sys.UniformLocation("uTypo")
	assert.True(t, ok)
	assert.Equal(t, int32(-1), loc)
}

func TestRenderNode_SetUniformChains(t *testing.T) {
	dev := gputest.New()
	node := gpu.NewRenderNode(dev, nil)
	s, err := node.RegisterSource("point", testVert, testFrag)
	require.NoError(t, err)
	require.NoError(t, node.Use("point", "points"))

	ret := node.
		SetUniform("uScale", float32(0.5)).
		SetUniform("uColor", mgl32.Vec4{1, 0, 0, 1})
	assert.Same(t, node, ret)
	require.NoError(t, node.Err())

	v, ok := dev.UniformValue(s.Program(), "uScale")
	require.True(t, ok)
	assert.Equal(t, float32(0.5), v)
	v, ok = dev.UniformValue(s.Program(), "uColor")
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, v)
}

func TestRenderNode_SetUniformRejectsUnknownTypes(t *testing.T) {
	node := gpu.NewRenderNode(gputest.New(), nil)
	_, err := node.RegisterSource("point", testVert, testFrag)
	require.NoError(t, err)
	require.NoError(t, node.Use("point", "points"))

	node.SetUniform("uScale", "big").SetUniform("uColor", mgl32.Vec4{})
	assert.ErrorIs(t, node.Err(), gpu.ErrUnsupportedValue)
	assert.ErrorIs(t, node.Clear(), gpu.ErrUnsupportedValue)
	assert.NoError(t, node.Err())
}

func TestRenderNode_ClearUnbindsTextureOnlyWhenUsed(t *testing.T) {
	dev := gputest.New()
	node := gpu.NewRenderNode(dev, nil)
	_, err := node.RegisterSource("bg", testVert, testFrag)
	require.NoError(t, err)
	require.NoError(t, node.Use("bg", "plane"))
	require.NoError(t, node.RegisterAttribute("aPosition", quad, 3))
	tex := dev.CreateTexture(4, 4, gpu.FormatRGBA8)
	dev.BindTexture(0)

	require.NoError(t, node.SetAttribute())
	require.NoError(t, node.SetTexture("uTex", tex, 0))
	assert.Equal(t, tex, dev.BoundTexture(0))
	assert.NotZero(t, dev.BoundArrayBuffer())

	require.NoError(t, node.Clear())
	assert.Zero(t, dev.BoundTexture(0))
	assert.Zero(t, dev.BoundArrayBuffer())

	calls := len(dev.Calls)
	require.NoError(t, node.Clear())
	assert.Equal(t, []string{"BindVertexBuffer 0"}, dev.Calls[calls:], "no texture unbind without a bound texture")
}

func TestRenderSystem_BindTextureSetsSamplerUnit(t *testing.T) {
	dev := gputest.New()
	node := gpu.NewRenderNode(dev, nil)
	s, err := node.RegisterSource("move", testVert, testFrag)
	require.NoError(t, err)
	tex := dev.CreateTexture(2, 2, gpu.FormatRGBA32F)

	s.BindTexture("uTex", tex, 3)
	assert.Equal(t, tex, dev.BoundTexture(3))
	v, ok := dev.UniformValue(s.Program(), "uTex")
	require.True(t, ok)
	assert.Equal(t, int32(3), v)
}

func TestRenderNode_ReleaseDeletesObjects(t *testing.T) {
	dev := gputest.New()
	node := gpu.NewRenderNode(dev, nil)
	_, err := node.RegisterSource("bg", testVert, testFrag)
	require.NoError(t, err)
	require.NoError(t, node.Use("bg", "plane"))
	require.NoError(t, node.RegisterAttribute("aPosition", quad, 3))

	node.Release()
	assert.Equal(t, gputest.Counts{}, dev.Live())
	assert.Empty(t, node.Systems())
}
