package render

import (
	"fmt"
	"image"
	"math"

	"github.com/taigrr/tinyraster/pkg/imageio"
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapClamp  WrapMode = iota // Clamp to the nearest edge texel
	WrapRepeat                 // Tile the texture
)

// ParseWrapMode maps "clamp" or "repeat" to a WrapMode.
func ParseWrapMode(s string) (WrapMode, error) {
	switch s {
	case "", "clamp":
		return WrapClamp, nil
	case "repeat":
		return WrapRepeat, nil
	default:
		return 0, fmt.Errorf("unknown wrap mode %q", s)
	}
}

func (m WrapMode) String() string {
	if m == WrapRepeat {
		return "repeat"
	}
	return "clamp"
}

// Sampler returns a color for normalized texture coordinates.
type Sampler interface {
	Sample(u, v float64) Color
}

// SolidColor is a Sampler that ignores UV and returns one color.
type SolidColor Color

// Sample implements Sampler.
func (s SolidColor) Sample(_, _ float64) Color {
	return Color(s)
}

// Texture holds a 2D color grid sampled with nearest-neighbour lookup.
// Row 0 is addressed by v=0 once the texture has been flipped at load.
type Texture struct {
	Width  int
	Height int
	Pixels []Color // Row-major pixel data
	Wrap   WrapMode
}

// NewTexture creates an empty texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
		Wrap:   WrapClamp,
	}
}

// LoadTexture reads an image file and flips it so that v=0 is the bottom
// row, matching the framebuffer origin.
func LoadTexture(path string) (*Texture, error) {
	img, err := imageio.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load texture: %w", err)
	}
	tex := TextureFromImage(img)
	tex.FlipVertically()
	return tex, nil
}

// TextureFromImage copies img into a texture in image row order.
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tex := NewTexture(width, height)

	for y := range height {
		for x := range width {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b, a := c.RGBA()
			// RGBA returns 16-bit values, scale to 8-bit
			tex.SetPixel(x, y, Color{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(a >> 8),
			})
		}
	}

	return tex
}

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 Color) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			if (x/checkSize+y/checkSize)%2 == 0 {
				tex.SetPixel(x, y, c1)
			} else {
				tex.SetPixel(x, y, c2)
			}
		}
	}
	return tex
}

// SetPixel sets a pixel in the texture.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// GetPixel returns the pixel at (x, y) with bounds checking.
func (t *Texture) GetPixel(x, y int) Color {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return Color{}
	}
	return t.Pixels[y*t.Width+x]
}

// FlipVertically swaps texture rows top to bottom in place.
func (t *Texture) FlipVertically() {
	for top, bot := 0, t.Height-1; top < bot; top, bot = top+1, bot-1 {
		a := t.Pixels[top*t.Width : (top+1)*t.Width]
		b := t.Pixels[bot*t.Width : (bot+1)*t.Width]
		for x := range a {
			a[x], b[x] = b[x], a[x]
		}
	}
}

// Sample returns the texel at (int(u*W), int(v*H)). Coordinates past the
// edge are clamped or tiled according to Wrap.
func (t *Texture) Sample(u, v float64) Color {
	if t.Width == 0 || t.Height == 0 {
		return Color{}
	}
	x := texelCoord(u, t.Width, t.Wrap)
	y := texelCoord(v, t.Height, t.Wrap)
	return t.Pixels[y*t.Width+x]
}

func texelCoord(c float64, size int, mode WrapMode) int {
	scaled := c * float64(size)
	if mode == WrapRepeat {
		// Floor keeps the tiling continuous across zero.
		i := int(math.Floor(scaled)) % size
		if i < 0 {
			i += size
		}
		return i
	}
	// Compare before converting: out-of-range float to int is undefined.
	if !(scaled > 0) {
		return 0
	}
	if scaled >= float64(size) {
		return size - 1
	}
	return int(scaled)
}
