package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"path"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrUnsupportedFormat is returned when no decoder recognizes the data.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Formats understood by image.Decode once the decoders above are registered.
var stdFormats = map[string]bool{
	"png":  true,
	"jpg":  true,
	"bmp":  true,
	"webp": true,
}

// Decode detects the format of data by its magic bytes and decodes it into
// an RGBA image. TGA has no magic number, so it is tried when sniffing fails
// or when name ends in ".tga".
func Decode(data []byte, name string) (*image.RGBA, error) {
	kind, _ := filetype.Match(data)

	if stdFormats[kind.Extension] {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s as %s: %w", name, kind.Extension, err)
		}
		return ImageToRGBA(img), nil
	}

	if kind != filetype.Unknown && !strings.EqualFold(path.Ext(name), ".tga") {
		return nil, fmt.Errorf("%s (%s): %w", name, kind.MIME.Value, ErrUnsupportedFormat)
	}

	img, err := DecodeTGA(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrUnsupportedFormat, err)
	}
	return ImageToRGBA(img), nil
}

// ImageToRGBA converts any image.Image to *image.RGBA with its origin at (0,0).
// An *image.RGBA that already starts at the origin is returned as is.
func ImageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// Solid returns a 1x1 image of the given color.
func Solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)
	return img
}
