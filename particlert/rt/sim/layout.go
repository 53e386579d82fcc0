package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	MinSide = 2
	MaxSide = 4096
)

// Layout maps particle indices to texels of a Side×Side state texture.
type Layout struct {
	Side int
}

// NewLayout validates side: it must be a power of two in [MinSide, MaxSide].
func NewLayout(side int) (Layout, error) {
	if side < MinSide || side > MaxSide || side&(side-1) != 0 {
		return Layout{}, fmt.Errorf("side %d: must be a power of two in [%d, %d]", side, MinSide, MaxSide)
	}
	return Layout{Side: side}, nil
}

// Count is the particle population, Side².
func (l Layout) Count() int {
	return l.Side * l.Side
}

// Texel returns the texel coordinate that stores particle index.
func (l Layout) Texel(index int) (x, y int) {
	return index % l.Side, index / l.Side
}

func (l Layout) Index(x, y int) int {
	return y*l.Side + x
}

// TexelCenter is the normalized sampling coordinate of particle index.
func (l Layout) TexelCenter(index int) mgl32.Vec2 {
	x, y := l.Texel(index)
	s := float32(l.Side)
	return mgl32.Vec2{(float32(x) + 0.5) / s, (float32(y) + 0.5) / s}
}

// SeedPosition is the initial position of the particle stored at texel (x, y).
func (l Layout) SeedPosition(x, y int) mgl32.Vec2 {
	s := float32(l.Side)
	return mgl32.Vec2{
		((float32(x)+0.5)/s - 0.5) * 2,
		((float32(y)+0.5)/s - 0.5) * 2,
	}
}

// Indices is the content of the per-point index attribute.
func (l Layout) Indices() []float32 {
	out := make([]float32, l.Count())
	for i := range out {
		out[i] = float32(i)
	}
	return out
}
