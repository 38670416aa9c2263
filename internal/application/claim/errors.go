package claim

import (
	"errors"

	"github.com/promo-claim/internal/domain"
)

// Error is a failed submission. Kind is one of the domain claim sentinels and
// Message is what the participant sees.
type Error struct {
	Kind    error
	Message string
	Status  int // HTTP status when the failure came from a response
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Kind.Error()
}

// Unwrap exposes the kind and the cause. A malformed response also counts as
// a server error.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Kind == domain.ErrMalformedResponse {
		errs = append(errs, domain.ErrServer)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Message returns the user-facing text for err, or a generic fallback when
// err is not a *Error.
func Message(err error) string {
	var ce *Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return "❌ Error inesperado. Intente nuevamente."
}
