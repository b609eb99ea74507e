// Package imageio reads and writes raster images for tinyraster. The
// output format is chosen from the file extension.
package imageio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for an unknown image extension.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format identifies an image file format.
type Format int

const (
	FormatPNG Format = iota
	FormatTGA
	FormatWebP
	FormatBMP
	FormatJPEG
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatTGA:
		return "tga"
	case FormatWebP:
		return "webp"
	case FormatBMP:
		return "bmp"
	case FormatJPEG:
		return "jpeg"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return FormatPNG, nil
	case ".tga":
		return FormatTGA, nil
	case ".webp":
		return FormatWebP, nil
	case ".bmp":
		return FormatBMP, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	default:
		return 0, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatTGA:
		err = tga.Encode(w, img)
	case FormatWebP:
		err = nativewebp.Encode(w, img, nil)
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("encode %v: %w", f, ErrUnsupportedFormat)
	}
	if err != nil {
		return fmt.Errorf("encode %v: %w", f, err)
	}
	return nil
}

// Save writes img to path in the format implied by its extension.
func Save(path string, img image.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Decode reads png, jpeg, bmp, webp or tga. TGA has no signature, so it
// is assumed when no other magic number matches.
func Decode(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(12)

	var (
		img image.Image
		err error
	)
	switch sniff(head) {
	case FormatPNG:
		img, err = png.Decode(br)
	case FormatJPEG:
		img, err = jpeg.Decode(br)
	case FormatBMP:
		img, err = bmp.Decode(br)
	case FormatWebP:
		img, err = webp.Decode(br)
	default:
		img, err = tga.Decode(br)
	}
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func sniff(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG
	case bytes.HasPrefix(head, []byte{0xff, 0xd8}):
		return FormatJPEG
	case bytes.HasPrefix(head, []byte("BM")):
		return FormatBMP
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")):
		return FormatWebP
	default:
		return FormatTGA
	}
}

// Load reads and decodes the image at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Scale enlarges img by an integer factor with nearest-neighbour sampling,
// so each source pixel becomes a factor×factor block. Factors below 2
// return img unchanged.
func Scale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
