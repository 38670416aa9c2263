package handler

import (
	"log/slog"
	"net/http"

	"github.com/promo-claim/internal/application/result"
	"github.com/promo-claim/internal/domain"
)

type handoffVerifier interface {
	Verify(token, deviceID string) (*domain.ClaimResult, error)
}

// ResultHandler renders the result view.
type ResultHandler struct {
	svc     result.Service
	handoff handoffVerifier
}

func NewResultHandler(svc result.Service, handoff handoffVerifier) *ResultHandler {
	return &ResultHandler{svc: svc, handoff: handoff}
}

// Get reads the signed handoff in ?state=. A missing, expired or forged
// token, or one issued to another tablet, falls back to the recovery slot of
// the requesting tablet.
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	dev := requestDevice(r)
	var transient *domain.ClaimResult
	if token := r.URL.Query().Get("state"); token != "" {
		res, err := h.handoff.Verify(token, dev)
		if err != nil {
			slog.Info("ignoring result handoff", "err", err)
		} else {
			transient = res
		}
	}
	writeJSON(w, http.StatusOK, h.svc.Load(r.Context(), dev, transient))
}
