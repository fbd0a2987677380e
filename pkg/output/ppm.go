package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/df07/go-tile-pathtracer/pkg/renderer"
)

// WritePPM writes the framebuffer as an ASCII P3 image, top row first
func WritePPM(w io.Writer, fb *renderer.Framebuffer) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", fb.Width, fb.Height); err != nil {
		return err
	}

	for row := fb.Height - 1; row >= 0; row-- {
		for col := 0; col < fb.Width; col++ {
			r, g, b := fb.Resolve(fb.Index(col, row))
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", r, g, b); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}
