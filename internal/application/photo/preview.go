package photo

import (
	"errors"
	"sync"

	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/pkg/id"
)

// PreviewStore hands out transient references to a selected photo. Every
// reference must be revoked once superseded.
type PreviewStore interface {
	Create(p *domain.Photo) (string, error)
	Revoke(ref string)
}

var errEmptyPhoto = errors.New("empty photo")

// MemoryPreviews keeps preview bytes in memory keyed by ULID.
type MemoryPreviews struct {
	mu    sync.RWMutex
	blobs map[string]*domain.Photo
}

func NewMemoryPreviews() *MemoryPreviews {
	return &MemoryPreviews{blobs: make(map[string]*domain.Photo)}
}

func (m *MemoryPreviews) Create(p *domain.Photo) (string, error) {
	if p == nil || len(p.Data) == 0 {
		return "", errEmptyPhoto
	}
	ref := id.New()
	m.mu.Lock()
	m.blobs[ref] = p
	m.mu.Unlock()
	return ref, nil
}

func (m *MemoryPreviews) Revoke(ref string) {
	if ref == "" {
		return
	}
	m.mu.Lock()
	delete(m.blobs, ref)
	m.mu.Unlock()
}

// Get returns the photo behind ref.
func (m *MemoryPreviews) Get(ref string) (*domain.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.blobs[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// Len is the number of live previews.
func (m *MemoryPreviews) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
