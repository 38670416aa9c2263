package photo

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/promo-claim/internal/domain"
)

// MaxOriginalBytes is the hard ceiling for a selected photo, applied before
// any compression is attempted.
const MaxOriginalBytes = 15 << 20

// User-facing rejection messages.
const (
	MsgUnsupportedType = "❌ Formato no soportado. Solo se aceptan fotos (JPG, PNG, WEBP). No GIFs ni videos."
	MsgTooLarge        = "❌ La imagen es demasiado pesada (Máx 15MB). Intenta tomar una foto nueva."
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Rejection explains why a candidate photo was refused.
type Rejection struct {
	Reason  error
	Message string
}

func (r *Rejection) Error() string { return r.Reason.Error() }

func (r *Rejection) Unwrap() []error { return []error{r.Reason, domain.ErrValidation} }

var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrTooLarge        = fmt.Errorf("photo exceeds %d bytes", MaxOriginalBytes)
)

// Validate accepts or rejects a candidate by media type and byte size. The
// type check runs first, so a disallowed type is reported regardless of size.
func Validate(mediaType string, size int64) error {
	if !Allowed(mediaType) {
		return &Rejection{Reason: ErrUnsupportedType, Message: MsgUnsupportedType}
	}
	if size > MaxOriginalBytes {
		return &Rejection{Reason: ErrTooLarge, Message: MsgTooLarge}
	}
	return nil
}

// Allowed reports whether mediaType is one of the accepted still-image types.
// Parameters and letter case are ignored.
func Allowed(mediaType string) bool {
	return allowedTypes[Normalize(mediaType)]
}

// Normalize lowercases mediaType and strips any parameters.
func Normalize(mediaType string) string {
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
