package sim

import (
	"fmt"

	"github.com/gekko3d/gpgpu/particlert/rt/gpu"
)

// StateBuffers is the front/back pair of particle state targets.
// The front buffer holds the last written state; the back buffer is the next target.
type StateBuffers struct {
	fbs   [2]*gpu.Framebuffer
	front int
}

func NewStateBuffers(dev gpu.Device, side int, format gpu.TextureFormat) (*StateBuffers, error) {
	if !format.IsFloat() {
		return nil, fmt.Errorf("state buffers need a float format, got %s: %w", format, gpu.ErrCapabilityMissing)
	}
	b := &StateBuffers{}
	for i := range b.fbs {
		fb, err := gpu.NewFramebuffer(dev, side, side, format)
		if err != nil {
			b.Release(dev)
			return nil, fmt.Errorf("state buffer %d: %w", i, err)
		}
		b.fbs[i] = fb
	}
	return b, nil
}

func (b *StateBuffers) Front() *gpu.Framebuffer {
	return b.fbs[b.front]
}

func (b *StateBuffers) Back() *gpu.Framebuffer {
	return b.fbs[1-b.front]
}

// Swap exchanges the roles of front and back.
func (b *StateBuffers) Swap() {
	b.front = 1 - b.front
}

func (b *StateBuffers) Release(dev gpu.Device) {
	for i, fb := range b.fbs {
		if fb != nil {
			fb.Release(dev)
			b.fbs[i] = nil
		}
	}
}
