// Package render implements the tinyraster software pipeline: transform,
// barycentric triangle fill, depth test, texturing and Lambert shading.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/taigrr/tinyraster/pkg/imageio"
)

// ErrInvalidSize is returned when a frame is requested with a non-positive
// width or height.
var ErrInvalidSize = errors.New("invalid frame size")

// Framebuffer is a fixed-size grid of pixels. Row 0 is the bottom row until
// FlipVertically is called, which turns it into a top-down image.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []color.RGBA // Row-major pixel data, y*Width+x

	flipped bool
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Clear fills the framebuffer with a solid color and restores the
// bottom-left origin.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
	fb.flipped = false
}

// offset returns the slice index of (x, y). Out-of-range coordinates are a
// caller bug and panic.
func (fb *Framebuffer) offset(x, y int) int {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		panic(fmt.Sprintf("render: pixel (%d,%d) outside %dx%d framebuffer", x, y, fb.Width, fb.Height))
	}
	return y*fb.Width + x
}

// SetPixel sets a pixel at (x, y) to the given color.
// Coordinates outside the buffer are ignored.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DrawLine draws a line from (x0, y0) to (x1, y1), clipping at the edges.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	ClippedLine(x0, y0, x1, y1, fb.Width, fb.Height, func(x, y int) {
		fb.SetPixel(x, y, c)
	})
}

// FlipVertically swaps rows top to bottom in place. It is called once,
// after rendering, to turn the bottom-left origin into image order.
func (fb *Framebuffer) FlipVertically() {
	for top, bot := 0, fb.Height-1; top < bot; top, bot = top+1, bot-1 {
		a := fb.Pixels[top*fb.Width : (top+1)*fb.Width]
		b := fb.Pixels[bot*fb.Width : (bot+1)*fb.Width]
		for x := range a {
			a[x], b[x] = b[x], a[x]
		}
	}
	fb.flipped = !fb.flipped
}

// Flipped reports whether rows are stored top-down.
func (fb *Framebuffer) Flipped() bool {
	return fb.flipped
}

// ToImage converts the framebuffer to a standard Go image.RGBA, copying
// rows in storage order.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// Save writes the framebuffer to path. The format follows the extension.
func (fb *Framebuffer) Save(path string) error {
	return imageio.Save(path, fb.ToImage())
}
