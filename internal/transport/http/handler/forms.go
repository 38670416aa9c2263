package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/promo-claim/internal/application/photo"
	"github.com/promo-claim/internal/application/registration"
	"github.com/promo-claim/internal/domain"
)

// maxUploadBody leaves room above the photo ceiling so oversize files reach
// the validator and get its message.
const maxUploadBody = photo.MaxOriginalBytes + 1<<20

type formRegistry interface {
	Open(storeID, deviceID string) (string, *registration.Flow)
	Get(formID string) (*registration.Flow, error)
	Close(formID string) error
}

type handoffSigner interface {
	Sign(deviceID string, result domain.ClaimResult) (string, error)
}

// FormHandler drives registration forms.
type FormHandler struct {
	forms   formRegistry
	handoff handoffSigner
}

func NewFormHandler(forms formRegistry, handoff handoffSigner) *FormHandler {
	return &FormHandler{forms: forms, handoff: handoff}
}

// Open starts a form for the requesting tablet. A tablet without a device id
// is given one in a cookie.
func (h *FormHandler) Open(w http.ResponseWriter, r *http.Request) {
	dev := ensureDevice(w, r)
	formID, f := h.forms.Open(chi.URLParam(r, "storeID"), dev)
	writeJSON(w, http.StatusCreated, FormEnvelope{FormID: formID, DeviceID: dev, Form: f.Snapshot()})
}

func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	formID, f, ok := h.flow(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, FormEnvelope{FormID: formID, Form: f.Snapshot()})
}

func (h *FormHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	formID, f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := f.SetFields(req); err != nil {
		h.fail(w, formID, f, err)
		return
	}
	writeJSON(w, http.StatusOK, FormEnvelope{FormID: formID, Form: f.Snapshot()})
}

// UploadPhoto replaces the selected photo with multipart field "photo". An
// absent or empty part clears the selection.
func (h *FormHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	formID, f, ok := h.flow(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, photo.MsgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	p, err := readPhoto(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable photo")
		return
	}
	if err := f.SelectFile(r.Context(), p); err != nil {
		h.fail(w, formID, f, err)
		return
	}
	writeJSON(w, http.StatusOK, FormEnvelope{FormID: formID, Form: f.Snapshot()})
}

func readPhoto(r *http.Request) (*domain.Photo, error) {
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &domain.Photo{Filename: header.Filename, MediaType: partType(header, data), Data: data}, nil
}

// partType trusts the part's declared type unless it is missing or generic,
// in which case the bytes are sniffed.
func partType(header *multipart.FileHeader, data []byte) string {
	ct := header.Header.Get("Content-Type")
	if ct == "" || photo.Normalize(ct) == "application/octet-stream" {
		return mimetype.Detect(data).String()
	}
	return ct
}

func (h *FormHandler) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	formID, f, ok := h.flow(w, r)
	if !ok {
		return
	}
	f.AcceptTerms()
	writeJSON(w, http.StatusOK, FormEnvelope{FormID: formID, Form: f.Snapshot()})
}

// Submit runs the claim. The attempt outlives a dropped tablet connection:
// an in-flight upload is never cancelled by the client.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	formID, f, ok := h.flow(w, r)
	if !ok {
		return
	}
	out, err := f.Submit(context.WithoutCancel(r.Context()))
	if err != nil {
		h.fail(w, formID, f, err)
		return
	}
	token, err := h.handoff.Sign(f.DeviceID(), out.State)
	if err != nil {
		slog.Error("sign result handoff", "form", formID, "err", err)
		token = ""
	}
	loc := "/v1/result"
	if token != "" {
		loc += "?state=" + url.QueryEscape(token)
	}
	writeJSON(w, http.StatusOK, SubmitEnvelope{
		PrizeName: out.State.PrizeName,
		PhotoURL:  out.State.PhotoURL,
		Location:  loc,
	})
}

func (h *FormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.forms.Close(chi.URLParam(r, "formID")); err != nil {
		writeError(w, http.StatusNotFound, msgFormNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FormHandler) flow(w http.ResponseWriter, r *http.Request) (string, *registration.Flow, bool) {
	formID := chi.URLParam(r, "formID")
	f, err := h.forms.Get(formID)
	if err != nil {
		writeError(w, http.StatusNotFound, msgFormNotFound)
		return "", nil, false
	}
	return formID, f, true
}

func (h *FormHandler) fail(w http.ResponseWriter, formID string, f *registration.Flow, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Warn("form request failed", "form", formID, "status", status, "err", err)
	}
	writeJSON(w, status, FormEnvelope{FormID: formID, Form: f.Snapshot(), Error: msg})
}
