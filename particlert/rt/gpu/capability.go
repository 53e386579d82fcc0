package gpu

import (
	"fmt"
)

// Extension names checked in order; full float precision wins over half float.
var floatTextureExtensions = []struct {
	name   string
	format TextureFormat
}{
	{"GL_ARB_texture_float", FormatRGBA32F},
	{"OES_texture_float", FormatRGBA32F},
	{"GL_ARB_half_float_pixel", FormatRGBA16F},
	{"OES_texture_half_float", FormatRGBA16F},
}

// FloatTextureFormat picks the texture format for particle state.
// It returns ErrCapabilityMissing when the context has no float texture support.
func FloatTextureFormat(dev Device) (TextureFormat, error) {
	for _, ext := range floatTextureExtensions {
		if dev.HasExtension(ext.name) {
			return ext.format, nil
		}
	}
	names := make([]string, len(floatTextureExtensions))
	for i, ext := range floatTextureExtensions {
		names[i] = ext.name
	}
	return FormatRGBA8, fmt.Errorf("none of %v available: %w", names, ErrCapabilityMissing)
}
