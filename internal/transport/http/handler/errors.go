package handler

import (
	"errors"
	"net/http"

	"github.com/promo-claim/internal/application/claim"
	"github.com/promo-claim/internal/application/photo"
	"github.com/promo-claim/internal/domain"
)

const (
	msgBusy         = "⏳ Espera a que termine el proceso actual."
	msgTermsPending = "Debes aceptar los términos y condiciones."
	msgFormNotFound = "form not found"
)

// errorStatus maps a flow error to the HTTP status and the message shown to
// the participant.
func errorStatus(err error) (int, string) {
	var rej *photo.Rejection
	switch {
	case errors.As(err, &rej):
		return http.StatusBadRequest, rej.Message
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgFormNotFound
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict, msgBusy
	case errors.Is(err, domain.ErrTermsPending):
		return http.StatusBadRequest, msgTermsPending
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrMissingStore):
		return http.StatusBadRequest, claim.Message(err)
	case errors.Is(err, domain.ErrRejected):
		return http.StatusUnprocessableEntity, claim.Message(err)
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout, claim.Message(err)
	case errors.Is(err, domain.ErrUpload), errors.Is(err, domain.ErrNetworkUnreachable), errors.Is(err, domain.ErrServer):
		return http.StatusBadGateway, claim.Message(err)
	default:
		return http.StatusInternalServerError, claim.Message(err)
	}
}
