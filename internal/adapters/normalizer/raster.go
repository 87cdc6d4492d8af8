package normalizer

import (
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	// extra source formats on top of what imaging registers
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Raster is the decode/resize/re-encode capability the Normalizer relies on.
type Raster interface {
	// DecodeConfig reads only the header of an encoded image.
	DecodeConfig(r io.Reader) (image.Config, error)
	Decode(r io.Reader) (image.Image, error)
	// Resize renders src onto an opaque surface of the given size.
	Resize(src image.Image, width, height int) image.Image
	// Encode writes img as a lossy image; quality is on a 0-1 scale.
	Encode(w io.Writer, img image.Image, quality float64) error
}

// Software implements Raster in pure Go.
type Software struct{}

func (Software) DecodeConfig(r io.Reader) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(r)
	return cfg, err
}

func (Software) Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r, imaging.AutoOrientation(true))
}

func (Software) Resize(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
		return dst
	}

	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

func (Software) Encode(w io.Writer, img image.Image, quality float64) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality(quality)})
}

func jpegQuality(quality float64) int {
	q := int(math.Round(quality * 100))
	switch {
	case q < 1:
		return 1
	case q > 100:
		return 100
	}
	return q
}
