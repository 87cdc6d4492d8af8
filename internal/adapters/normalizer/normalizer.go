package normalizer

import (
	"artcritic/internal/core/domain"
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"
)

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// DefaultMaxPixels bounds the decoded size of a source image, roughly 200MB
// of RGBA.
const DefaultMaxPixels = 50_000_000

type Normalizer struct {
	raster          Raster
	quality         float64
	defaultMaxWidth int
	maxPixels       int
}

type Option func(*Normalizer)

// WithMaxPixels overrides DefaultMaxPixels.
func WithMaxPixels(n int) Option {
	return func(nm *Normalizer) {
		if n > 0 {
			nm.maxPixels = n
		}
	}
}

func New(raster Raster, quality float64, defaultMaxWidth int, opts ...Option) *Normalizer {
	if quality <= 0 || quality > 1 {
		quality = domain.DefaultQuality
	}
	if defaultMaxWidth <= 0 {
		defaultMaxWidth = domain.DefaultMaxWidth
	}

	n := &Normalizer{
		raster:          raster,
		quality:         quality,
		defaultMaxWidth: defaultMaxWidth,
		maxPixels:       DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize downsamples asset to at most maxWidth pixels wide and re-encodes it
// as JPEG. Images that already fit keep their dimensions.
func (n *Normalizer) Normalize(ctx context.Context, asset domain.ImageAsset, maxWidth int) (domain.NormalizedImage,
	error) {
	if maxWidth <= 0 {
		maxWidth = n.defaultMaxWidth
	}

	// header first so oversized images are refused before pixel buffers exist
	cfg, err := n.raster.DecodeConfig(bytes.NewReader(asset.Data))
	if err != nil {
		return domain.NormalizedImage{}, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return domain.NormalizedImage{}, fmt.Errorf("%w: image has no pixels", domain.ErrDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(n.maxPixels) {
		return domain.NormalizedImage{}, fmt.Errorf("%w: %dx%d exceeds %d pixels",
			domain.ErrDecode, cfg.Width, cfg.Height, n.maxPixels)
	}

	src, err := n.raster.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		return domain.NormalizedImage{}, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return domain.NormalizedImage{}, fmt.Errorf("%w: image has no pixels", domain.ErrDecode)
	}

	if err := ctx.Err(); err != nil {
		return domain.NormalizedImage{}, err
	}

	width, height := TargetSize(bounds.Dx(), bounds.Dy(), maxWidth)
	surface := n.raster.Resize(src, width, height)

	if err := ctx.Err(); err != nil {
		return domain.NormalizedImage{}, err
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	if err := n.raster.Encode(buf, surface, n.quality); err != nil {
		return domain.NormalizedImage{}, fmt.Errorf("error encoding image: %w", err)
	}

	log.Debug().
		Str("source", asset.Source).
		Int("srcWidth", bounds.Dx()).
		Int("srcHeight", bounds.Dy()).
		Int("width", width).
		Int("height", height).
		Int("bytes", buf.Len()).
		Msg("image normalized")

	return domain.NormalizedImage{
		Data:    bytes.Clone(buf.Bytes()),
		Width:   width,
		Height:  height,
		Quality: n.quality,
	}, nil
}

// TargetSize scales width down to maxWidth keeping the aspect ratio. Dimensions
// within bounds are returned unchanged.
func TargetSize(width, height, maxWidth int) (int, int) {
	if width <= maxWidth {
		return width, height
	}

	h := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
	if h < 1 {
		h = 1
	}

	return maxWidth, h
}
