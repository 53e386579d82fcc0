package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
)

func assertColor(t *testing.T, want, got mgl32.Vec4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func TestHSBA_CanonicalHues(t *testing.T) {
	assertColor(t, mgl32.Vec4{0.8, 0, 0, 1}, HSBA(0, 100, 80, 1))
	assertColor(t, mgl32.Vec4{0, 0.8, 0.8, 1}, HSBA(50, 100, 80, 1))
	assertColor(t, mgl32.Vec4{1, 1, 0, 0.5}, HSBA(100.0/6, 100, 100, 0.5))
}

func TestHSBA_ZeroSaturationIsGray(t *testing.T) {
	assert.Equal(t, mgl32.Vec4{0.6, 0.6, 0.6, 1}, HSBA(42, 0, 60, 1))
}

func TestHueColor_MatchesHSV(t *testing.T) {
	for frame := uint64(0); frame < 720; frame += 7 {
		got := HueColor(frame)
		want := colorful.Hsv(float64(frame%360), 1, 0.8)
		assertColor(t, mgl32.Vec4{float32(want.R), float32(want.G), float32(want.B), 1}, got)
	}
}

func TestHueColor_RangeAndPeriod(t *testing.T) {
	for frame := uint64(0); frame < 360; frame++ {
		c := HueColor(frame)
		for i := 0; i < 3; i++ {
			assert.True(t, c[i] >= 0 && c[i] <= 0.8+1e-6, "frame %d: %v", frame, c)
		}
		assert.Equal(t, float32(1), c[3])
		assert.Equal(t, c, HueColor(frame+360))
	}
}
