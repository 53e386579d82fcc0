package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// AttractionStrength scales the unit vector toward the pointer.
	AttractionStrength = 0.2
	// Speed scales the per-frame displacement.
	Speed = 0.05
)

// Particle is one decoded state texel.
type Particle struct {
	Position mgl32.Vec2
	Velocity mgl32.Vec2
}

// FromTexel decodes an RGBA state texel.
func FromTexel(t mgl32.Vec4) Particle {
	return Particle{
		Position: mgl32.Vec2{t[0], t[1]},
		Velocity: mgl32.Vec2{t[2], t[3]},
	}
}

func (p Particle) Texel() mgl32.Vec4 {
	return mgl32.Vec4{p.Position[0], p.Position[1], p.Velocity[0], p.Velocity[1]}
}

// normalize returns the zero vector for a zero-length input.
func normalize(v mgl32.Vec2) mgl32.Vec2 {
	l := v.Len()
	if l == 0 {
		return mgl32.Vec2{}
	}
	return v.Mul(1 / l)
}

// Step is the CPU rendition of the simulate pass for a single particle.
// The position always advances along the steered direction; velocity only changes
// while the pointer is engaged.
func Step(p Particle, pointer mgl32.Vec2, engaged bool, accel float32) Particle {
	toward := normalize(pointer.Sub(p.Position)).Mul(AttractionStrength)
	w := normalize(p.Velocity.Add(toward))
	next := Particle{
		Position: p.Position.Add(w.Mul(Speed * accel)),
		Velocity: w,
	}
	if !engaged {
		next.Velocity = p.Velocity
	}
	return next
}

// NormalizePointer maps window pixel coordinates (origin top-left) to simulation space:
// the shorter canvas side spans [-1, 1], y points up.
func NormalizePointer(mx, my float64, width, height int) mgl32.Vec2 {
	if width <= 0 || height <= 0 {
		return mgl32.Vec2{}
	}
	w, h := float64(width), float64(height)
	size := math.Min(w, h)
	return mgl32.Vec2{
		float32(((mx/w - 0.5) * 2 * w) / size),
		float32((-(my/h - 0.5) * 2 * h) / size),
	}
}
