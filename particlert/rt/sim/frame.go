package sim

import (
	"github.com/go-gl/mathgl/mgl32"
)

const DefaultDecay = 0.95

// FrameState carries the per-frame scalars between frames.
type FrameState struct {
	// Accel scales displacement and point size. 1 while the pointer is engaged,
	// decaying geometrically afterwards.
	Accel   float32
	Decay   float32
	Frame   uint64
	Pointer mgl32.Vec2
	Engaged bool
}

func NewFrameState(decay float32) FrameState {
	if decay <= 0 || decay >= 1 {
		decay = DefaultDecay
	}
	return FrameState{Decay: decay}
}

// Advance runs after a frame was drawn with the current state.
func (f *FrameState) Advance(engaged bool) {
	f.Frame++
	if engaged {
		f.Accel = 1
	} else {
		f.Accel *= f.Decay
	}
}

func (f *FrameState) Color() mgl32.Vec4 {
	return HueColor(f.Frame)
}
