package render

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/taigrr/tinyraster/pkg/imageio"
)

func TestNewFrame(t *testing.T) {
	tests := []struct {
		w, h int
		ok   bool
	}{
		{1, 1, true},
		{800, 600, true},
		{0, 10, false},
		{10, -1, false},
	}
	for _, tc := range tests {
		f, err := NewFrame(tc.w, tc.h)
		if tc.ok {
			if err != nil {
				t.Errorf("NewFrame(%d, %d): %v", tc.w, tc.h, err)
				continue
			}
			if len(f.Color.Pixels) != tc.w*tc.h || len(f.Depth.Values) != tc.w*tc.h {
				t.Errorf("NewFrame(%d, %d) allocated wrong sizes", tc.w, tc.h)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidSize) {
			t.Errorf("NewFrame(%d, %d) error = %v, want ErrInvalidSize", tc.w, tc.h, err)
		}
	}
}

func TestFramebufferSetPixelClips(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	for _, p := range [][2]int{{-1, 0}, {3, 0}, {0, -1}, {0, 2}} {
		fb.SetPixel(p[0], p[1], ColorRed)
	}
	for i, c := range fb.Pixels {
		if c != (Color{}) {
			t.Errorf("pixel %d written by out-of-range SetPixel", i)
		}
	}
	if fb.GetPixel(5, 5) != (Color{}) {
		t.Error("out-of-range GetPixel should be transparent")
	}
}

func TestFramebufferOffsetPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range offset")
		}
	}()
	NewFramebuffer(2, 2).offset(2, 0)
}

func TestFramebufferFlipVertically(t *testing.T) {
	fb := NewFramebuffer(2, 3)
	fb.SetPixel(0, 0, ColorRed)
	fb.SetPixel(1, 2, ColorBlue)

	fb.FlipVertically()
	if !fb.Flipped() {
		t.Error("Flipped = false after flip")
	}
	if fb.GetPixel(0, 2) != ColorRed || fb.GetPixel(1, 0) != ColorBlue {
		t.Error("rows not swapped")
	}

	fb.FlipVertically()
	if fb.Flipped() || fb.GetPixel(0, 0) != ColorRed {
		t.Error("second flip should restore the original order")
	}

	fb.FlipVertically()
	fb.Clear(ColorBlack)
	if fb.Flipped() {
		t.Error("Clear should restore the bottom-left origin")
	}
	if fb.GetPixel(1, 1) != ColorBlack {
		t.Error("Clear did not fill")
	}
}

func TestScreenRow(t *testing.T) {
	fb := NewFramebuffer(1, 4)
	if got := fb.screenRow(0); got != 3 {
		t.Errorf("unflipped top row reads storage row %d, want 3", got)
	}
	fb.FlipVertically()
	if got := fb.screenRow(0); got != 0 {
		t.Errorf("flipped top row reads storage row %d, want 0", got)
	}
}

func TestFramebufferSave(t *testing.T) {
	fb := NewFramebuffer(4, 2)
	fb.Clear(ColorGray)
	fb.SetPixel(3, 0, ColorGreen)
	fb.FlipVertically()

	path := filepath.Join(t.TempDir(), "out.tga")
	if err := fb.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	img, err := imageio.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("saved bounds %v", b)
	}
	r, g, b, _ := img.At(3, 1).RGBA()
	if r != 0 || g>>8 != 255 || b != 0 {
		t.Errorf("bottom-right pixel = (%d,%d,%d), want green", r>>8, g>>8, b>>8)
	}

	img2 := fb.ToImage()
	if img2.RGBAAt(0, 0) != ColorGray {
		t.Errorf("ToImage(0,0) = %v", img2.RGBAAt(0, 0))
	}
}

func TestDepthBuffer(t *testing.T) {
	d := NewDepthBuffer(3, 3)
	for i, v := range d.Values {
		if !math.IsInf(v, -1) {
			t.Fatalf("cell %d = %v after clear, want -Inf", i, v)
		}
	}

	tests := []struct {
		z    float64
		want bool
	}{
		{-1e300, true},
		{5, true},
		{5, false},
		{4.9, false},
		{5.1, true},
	}
	for _, tc := range tests {
		if got := d.TestAndSet(1, 2, tc.z); got != tc.want {
			t.Errorf("TestAndSet(%v) = %v, want %v", tc.z, got, tc.want)
		}
	}
	if d.At(1, 2) != 5.1 {
		t.Errorf("At = %v, want 5.1", d.At(1, 2))
	}

	d.Clear()
	if !math.IsInf(d.At(1, 2), -1) {
		t.Error("Clear did not reset")
	}
}

func TestDepthBufferToImage(t *testing.T) {
	d := NewDepthBuffer(2, 2)
	d.TestAndSet(0, 0, 255)
	d.TestAndSet(1, 0, 127.5)
	d.TestAndSet(0, 1, 1000)

	img := d.ToImage(255)
	tests := []struct {
		x, y int
		want uint8
	}{
		{0, 1, 255}, // storage row 0 is the image's bottom row
		{1, 1, 127},
		{0, 0, 255}, // clamped
		{1, 0, 0},   // empty
	}
	for _, tc := range tests {
		if got := img.GrayAt(tc.x, tc.y).Y; got != tc.want {
			t.Errorf("GrayAt(%d,%d) = %d, want %d", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestDepthBufferOffsetPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range depth access")
		}
	}()
	NewDepthBuffer(2, 2).At(-1, 0)
}

func BenchmarkDepthClear(b *testing.B) {
	d := NewDepthBuffer(800, 600)
	for b.Loop() {
		d.Clear()
	}
}
