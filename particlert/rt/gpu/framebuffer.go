package gpu

import (
	"fmt"
)

// Framebuffer is a color texture plus a depth renderbuffer usable as a render target
// and, through Texture, as a sampler input.
type Framebuffer struct {
	ID      FramebufferID
	Depth   RenderbufferID
	Texture TextureID
	Width   int
	Height  int
	Format  TextureFormat
}

func NewFramebuffer(dev Device, width, height int, format TextureFormat) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("framebuffer %dx%d: invalid size", width, height)
	}

	fb := &Framebuffer{Width: width, Height: height, Format: format}
	fb.ID = dev.CreateFramebuffer()
	dev.BindFramebuffer(fb.ID)

	fb.Depth = dev.CreateRenderbuffer(width, height)
	dev.AttachDepth(fb.ID, fb.Depth)

	fb.Texture = dev.CreateTexture(width, height, format)
	dev.AttachColor(fb.ID, fb.Texture)

	complete := dev.FramebufferComplete(fb.ID)
	dev.BindTexture(0)
	dev.BindFramebuffer(0)

	if !complete {
		fb.Release(dev)
		return nil, fmt.Errorf("framebuffer %dx%d %s: incomplete", width, height, format)
	}
	return fb, nil
}

func (fb *Framebuffer) Release(dev Device) {
	if fb.ID != 0 {
		dev.DeleteFramebuffer(fb.ID)
		fb.ID = 0
	}
	if fb.Depth != 0 {
		dev.DeleteRenderbuffer(fb.Depth)
		fb.Depth = 0
	}
	if fb.Texture != 0 {
		dev.DeleteTexture(fb.Texture)
		fb.Texture = 0
	}
}
