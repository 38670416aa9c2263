package http

import (
	"github.com/promo-claim/internal/application/registration"
	"github.com/promo-claim/internal/application/result"
	"github.com/promo-claim/internal/domain"
)

// PreviewStore is the minimal interface the router requires from the preview store.
type PreviewStore interface {
	Get(ref string) (*domain.Photo, error)
}

// HandoffProvider signs and verifies the result handoff token.
type HandoffProvider interface {
	Sign(deviceID string, result domain.ClaimResult) (string, error)
	Verify(token, deviceID string) (*domain.ClaimResult, error)
}

// Deps holds the application services the router exposes.
type Deps struct {
	Forms    *registration.Registry
	Previews PreviewStore
	Results  result.Service
	Handoff  HandoffProvider
}
