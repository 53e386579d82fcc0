package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_RejectsInvalidSides(t *testing.T) {
	for _, side := range []int{0, 1, 3, 100, 8192} {
		_, err := NewLayout(side)
		assert.Error(t, err, "side %d", side)
	}
	l, err := NewLayout(512)
	require.NoError(t, err)
	assert.Equal(t, 512*512, l.Count())
}

func TestLayout_IndexTexelBijection(t *testing.T) {
	l, err := NewLayout(16)
	require.NoError(t, err)

	seen := make(map[[2]int]bool, l.Count())
	for i := 0; i < l.Count(); i++ {
		x, y := l.Texel(i)
		require.True(t, x >= 0 && x < l.Side && y >= 0 && y < l.Side)
		assert.Equal(t, i, l.Index(x, y))
		assert.False(t, seen[[2]int{x, y}], "texel (%d,%d) reused", x, y)
		seen[[2]int{x, y}] = true
	}
	assert.Len(t, seen, l.Count())
}

func TestLayout_TexelCenter(t *testing.T) {
	l := Layout{Side: 4}
	assert.Equal(t, mgl32.Vec2{0.125, 0.125}, l.TexelCenter(0))
	assert.Equal(t, mgl32.Vec2{0.375, 0.375}, l.TexelCenter(5))
	assert.Equal(t, mgl32.Vec2{0.875, 0.875}, l.TexelCenter(15))
}

func TestLayout_SeedPosition(t *testing.T) {
	l := Layout{Side: 4}
	x, y := l.Texel(5)
	p := l.SeedPosition(x, y)
	assert.InDelta(t, -0.25, p[0], 1e-6)
	assert.InDelta(t, -0.25, p[1], 1e-6)

	for i := 0; i < l.Count(); i++ {
		p := l.SeedPosition(l.Texel(i))
		assert.True(t, p[0] > -1 && p[0] < 1 && p[1] > -1 && p[1] < 1)
	}
}

func TestLayout_Indices(t *testing.T) {
	idx := Layout{Side: 2}.Indices()
	assert.Equal(t, []float32{0, 1, 2, 3}, idx)
}
