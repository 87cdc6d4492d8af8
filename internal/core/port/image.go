package port

import (
	"artcritic/internal/core/domain"
	"context"
)

type ImageLoader interface {
	// Load reads the image referenced by a local path or URL.
	Load(ctx context.Context, ref string) (domain.ImageAsset, error)
}

type ImageNormalizer interface {
	// Normalize decodes the asset and re-encodes it bounded by maxWidth. A decode failure wraps domain.ErrDecode.
	Normalize(ctx context.Context, asset domain.ImageAsset, maxWidth int) (domain.NormalizedImage, error)
}

type PayloadEncoder interface {
	Encode(data []byte) domain.TransportPayload
	Decode(payload domain.TransportPayload) ([]byte, error)
}
