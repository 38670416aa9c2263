package photo

import (
	"context"
	"errors"
	"testing"

	"github.com/promo-claim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCompressor struct{ mock.Mock }

func (m *mockCompressor) Compress(ctx context.Context, p *domain.Photo, opts Options) (*domain.Photo, error) {
	args := m.Called(ctx, p, opts)
	if out, _ := args.Get(0).(*domain.Photo); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

var opts = Options{MaxBytes: 1 << 20, MaxDimension: 1280}

func TestCompressOrOriginal_Success(t *testing.T) {
	orig := &domain.Photo{MediaType: "image/jpeg", Data: make([]byte, 2<<20)}
	small := &domain.Photo{MediaType: "image/jpeg", Data: make([]byte, 300<<10)}
	c := &mockCompressor{}
	c.On("Compress", mock.Anything, orig, opts).Return(small, nil)

	assert.Same(t, small, CompressOrOriginal(context.Background(), c, orig, opts))
	c.AssertExpectations(t)
}

func TestCompressOrOriginal_FailureFallsBackToOriginal(t *testing.T) {
	orig := &domain.Photo{MediaType: "image/png", Data: []byte("png-bytes")}
	c := &mockCompressor{}
	c.On("Compress", mock.Anything, orig, opts).Return(nil, errors.New("decode: boom"))

	got := CompressOrOriginal(context.Background(), c, orig, opts)
	assert.Same(t, orig, got)
	assert.NotEmpty(t, got.Data)
}

func TestCompressOrOriginal_EmptyResultFallsBack(t *testing.T) {
	orig := &domain.Photo{MediaType: "image/png", Data: []byte("png-bytes")}
	c := &mockCompressor{}
	c.On("Compress", mock.Anything, orig, opts).Return(&domain.Photo{MediaType: "image/png"}, nil)

	assert.Same(t, orig, CompressOrOriginal(context.Background(), c, orig, opts))
}
