package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// DepthBuffer stores one depth key per pixel. Larger values are closer to
// the viewer; cleared cells hold -Inf so any finite depth wins.
type DepthBuffer struct {
	Width  int
	Height int
	Values []float64
}

// NewDepthBuffer creates a cleared depth buffer.
func NewDepthBuffer(width, height int) *DepthBuffer {
	d := &DepthBuffer{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
	d.Clear()
	return d
}

// Clear resets every cell to -Inf.
func (d *DepthBuffer) Clear() {
	// Use copy-doubling for faster clearing
	n := len(d.Values)
	if n == 0 {
		return
	}
	d.Values[0] = math.Inf(-1)
	for i := 1; i < n; i *= 2 {
		copy(d.Values[i:], d.Values[:i])
	}
}

func (d *DepthBuffer) offset(x, y int) int {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		panic(fmt.Sprintf("render: depth (%d,%d) outside %dx%d buffer", x, y, d.Width, d.Height))
	}
	return y*d.Width + x
}

// At returns the stored depth at (x, y).
func (d *DepthBuffer) At(x, y int) float64 {
	return d.Values[d.offset(x, y)]
}

// TestAndSet stores z at (x, y) if it is strictly greater than the current
// value and reports whether it did. Equal depths keep the first writer.
func (d *DepthBuffer) TestAndSet(x, y int, z float64) bool {
	i := d.offset(x, y)
	if z > d.Values[i] {
		d.Values[i] = z
		return true
	}
	return false
}

// ToImage renders the buffer as grayscale, mapping [0, depth] to [0, 255]
// with the bottom row last. Empty cells are black.
func (d *DepthBuffer) ToImage(depth float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, d.Width, d.Height))
	if depth <= 0 {
		return img
	}
	for y := range d.Height {
		for x := range d.Width {
			z := d.Values[y*d.Width+x]
			if math.IsInf(z, -1) {
				continue
			}
			v := math.Max(0, math.Min(255, z/depth*255))
			img.SetGray(x, d.Height-1-y, color.Gray{Y: uint8(v)})
		}
	}
	return img
}
