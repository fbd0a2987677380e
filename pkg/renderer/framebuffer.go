package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-tile-pathtracer/pkg/core"
)

// Framebuffer holds the summed color samples of every pixel.
// Pixels is row-major with row 0 at the bottom of the image.
type Framebuffer struct {
	Width   int
	Height  int
	Samples int         // Samples summed into each pixel
	Pixels  []core.Vec3 // Unnormalized sample sums
}

// NewFramebuffer allocates a black framebuffer
func NewFramebuffer(width, height, samples int) *Framebuffer {
	return &Framebuffer{
		Width:   width,
		Height:  height,
		Samples: samples,
		Pixels:  make([]core.Vec3, width*height),
	}
}

// Index returns the flattened index of (col, row), row 0 being the bottom row
func (fb *Framebuffer) Index(col, row int) int {
	return row*fb.Width + col
}

// Resolve converts a pixel sum into 8-bit gamma-2 color:
// floor(256 * clamp(sqrt(sum/samples), 0, 0.999)) per channel.
func (fb *Framebuffer) Resolve(index int) (r, g, b uint8) {
	if fb.Samples <= 0 {
		return 0, 0, 0
	}
	c := fb.Pixels[index].Divide(float64(fb.Samples))
	return quantize(c.X), quantize(c.Y), quantize(c.Z)
}

func quantize(v float64) uint8 {
	// NaN and negative sums both resolve to black
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	v = math.Min(math.Sqrt(v), 0.999)
	return uint8(256 * v)
}

// ToImage converts the framebuffer to an RGBA image with the top row first
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for row := 0; row < fb.Height; row++ {
		y := fb.Height - 1 - row
		for col := 0; col < fb.Width; col++ {
			r, g, b := fb.Resolve(fb.Index(col, row))
			img.SetRGBA(col, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
