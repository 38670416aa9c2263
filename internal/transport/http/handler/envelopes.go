package handler

import (
	"encoding/json"
	"net/http"

	"github.com/promo-claim/internal/application/registration"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FormEnvelope wraps a form snapshot.
type FormEnvelope struct {
	FormID   string            `json:"formId"`
	DeviceID string            `json:"deviceId,omitempty"`
	Form     registration.View `json:"form"`
	Error    string            `json:"error,omitempty"`
}

// SubmitEnvelope is the navigation handoff after a successful claim.
// Location is the result view carrying the signed state.
type SubmitEnvelope struct {
	PrizeName string `json:"prizeName"`
	PhotoURL  string `json:"photoUrl,omitempty"`
	Location  string `json:"location"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
