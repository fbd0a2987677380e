package renderer

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/df07/go-tile-pathtracer/pkg/core"
)

func TestFramebuffer_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		sum      float64
		samples  int
		expected uint8
	}{
		{"black", 0, 1, 0},
		{"white clamps to 255", 1, 1, 255},
		{"overexposed", 50, 1, 255},
		{"quarter is gamma corrected to half", 0.25, 1, 128},
		{"averaged over samples", 1, 4, 128},
		{"negative", -1, 1, 0},
		{"NaN", math.NaN(), 1, 0},
		{"positive infinity", math.Inf(1), 1, 255},
		{"no samples", 1, 0, 0},
		{"dim", 0.01, 1, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := NewFramebuffer(1, 1, tt.samples)
			fb.Pixels[0] = core.NewVec3(tt.sum, tt.sum, tt.sum)
			r, g, b := fb.Resolve(0)
			assert.Equal(t, tt.expected, r)
			assert.Equal(t, tt.expected, g)
			assert.Equal(t, tt.expected, b)
		})
	}
}

func TestFramebuffer_ResolveChannelsIndependent(t *testing.T) {
	fb := NewFramebuffer(1, 1, 1)
	fb.Pixels[0] = core.NewVec3(1, 0.25, 0)
	r, g, b := fb.Resolve(0)
	assert.Equal(t, []uint8{255, 128, 0}, []uint8{r, g, b})
}

func TestFramebuffer_ToImageFlipsRows(t *testing.T) {
	fb := NewFramebuffer(2, 3, 1)
	// Bottom-left red, top-right blue
	fb.Pixels[fb.Index(0, 0)] = core.NewVec3(1, 0, 0)
	fb.Pixels[fb.Index(1, 2)] = core.NewVec3(0, 0, 1)

	img := fb.ToImage()
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(0, 2))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(0, 0))
}

func TestFramebuffer_Index(t *testing.T) {
	fb := NewFramebuffer(4, 3, 1)
	assert.Equal(t, 0, fb.Index(0, 0))
	assert.Equal(t, 3, fb.Index(3, 0))
	assert.Equal(t, 4, fb.Index(0, 1))
	assert.Equal(t, 11, fb.Index(3, 2))
	assert.Len(t, fb.Pixels, 12)
}
