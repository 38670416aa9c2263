// Package imaging implements photo compression with golang.org/x/image.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // registers the webp decoder

	"github.com/promo-claim/internal/application/photo"
	"github.com/promo-claim/internal/domain"
)

// ErrEncodeUnsupported is returned for media types that can be decoded but
// not re-encoded (webp).
var ErrEncodeUnsupported = errors.New("no encoder for media type")

// ErrTooManyPixels is returned, before any pixel data is decoded, for images
// whose declared dimensions exceed MaxPixels.
var ErrTooManyPixels = errors.New("image dimensions too large")

// MaxPixels caps width*height, read from the image header before decoding.
const MaxPixels = 50_000_000

// jpegQualities is tried in order until the output fits MaxBytes.
var jpegQualities = []int{90, 80, 70, 60, 50, 40}

// Compressor downsizes photos so the long edge fits MaxDimension and
// re-encodes them in their original media type.
type Compressor struct{}

func NewCompressor() *Compressor { return &Compressor{} }

func (c *Compressor) Compress(ctx context.Context, p *domain.Photo, opts photo.Options) (*domain.Photo, error) {
	mt := photo.Normalize(p.MediaType)
	if mt != "image/jpeg" && mt != "image/jpg" && mt != "image/png" {
		return nil, fmt.Errorf("%s: %w", mt, ErrEncodeUnsupported)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(p.Data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooManyPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img = fit(img, opts.MaxDimension)

	var out []byte
	if mt == "image/png" {
		out, err = encodePNG(img)
	} else {
		out, err = encodeJPEG(ctx, img, opts.MaxBytes)
	}
	if err != nil {
		return nil, err
	}

	if len(out) >= len(p.Data) {
		out = p.Data
	}
	return &domain.Photo{Filename: p.Filename, MediaType: p.MediaType, Data: out}, nil
}

// fit scales img down so neither side exceeds maxDim. Smaller images are
// returned untouched.
func fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	nw, nh := maxDim, h*maxDim/w
	if h > w {
		nw, nh = w*maxDim/h, maxDim
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func encodeJPEG(ctx context.Context, img image.Image, maxBytes int64) ([]byte, error) {
	var buf bytes.Buffer
	for _, q := range jpegQualities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		if maxBytes <= 0 || int64(buf.Len()) <= maxBytes {
			break
		}
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
