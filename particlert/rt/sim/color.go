package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	hueCycle   = 360
	saturation = 100
	brightness = 80
)

// HSBA converts hue, saturation and brightness given on a 0..100 scale to RGBA in [0, 1].
func HSBA(h, s, b, a float64) mgl32.Vec4 {
	hue := h * 6 / 100
	sat := s / 100
	val := b / 100

	if sat == 0 {
		return mgl32.Vec4{float32(val), float32(val), float32(val), float32(a)}
	}

	sector := math.Floor(hue)
	tint1 := val * (1 - sat)
	tint2 := val * (1 - sat*(hue-sector))
	tint3 := val * (1 - sat*(1+sector-hue))

	var r, g, bl float64
	switch int(sector) {
	case 1:
		r, g, bl = tint2, val, tint1
	case 2:
		r, g, bl = tint1, val, tint3
	case 3:
		r, g, bl = tint1, tint2, val
	case 4:
		r, g, bl = tint3, tint1, val
	case 5:
		r, g, bl = val, tint1, tint2
	default:
		r, g, bl = val, tint3, tint1
	}
	return mgl32.Vec4{float32(r), float32(g), float32(bl), float32(a)}
}

// HueColor is the point color of the given frame: the hue walks the full circle every
// 360 frames at fixed saturation and brightness.
func HueColor(frame uint64) mgl32.Vec4 {
	return HSBA(float64(frame%hueCycle)/3.6, saturation, brightness, 1)
}
