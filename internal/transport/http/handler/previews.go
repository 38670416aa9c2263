package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/promo-claim/internal/domain"
)

type previewSource interface {
	Get(ref string) (*domain.Photo, error)
}

// PreviewHandler serves the transient preview of a selected photo.
type PreviewHandler struct {
	previews previewSource
}

func NewPreviewHandler(previews previewSource) *PreviewHandler {
	return &PreviewHandler{previews: previews}
}

func (h *PreviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.previews.Get(chi.URLParam(r, "previewID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}
	w.Header().Set("Content-Type", p.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(p.Data)
}
