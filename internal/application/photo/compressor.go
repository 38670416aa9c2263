package photo

import (
	"context"
	"log/slog"

	"github.com/promo-claim/internal/domain"
)

// Options bounds the compressed artifact.
type Options struct {
	MaxBytes     int64
	MaxDimension int
}

// Compressor shrinks a photo, keeping its media type.
type Compressor interface {
	Compress(ctx context.Context, p *domain.Photo, opts Options) (*domain.Photo, error)
}

// CompressOrOriginal returns the compressed artifact, or the original photo
// when compression fails. Failures are logged, never returned.
func CompressOrOriginal(ctx context.Context, c Compressor, p *domain.Photo, opts Options) *domain.Photo {
	out, err := c.Compress(ctx, p, opts)
	if err != nil || out == nil || len(out.Data) == 0 {
		slog.Warn("compression failed, using original photo",
			"type", p.MediaType, "size", p.Size(), "err", err)
		return p
	}
	if out.Size() > opts.MaxBytes && opts.MaxBytes > 0 {
		slog.Info("compressed photo still above target", "size", out.Size(), "target", opts.MaxBytes)
	}
	return out
}
