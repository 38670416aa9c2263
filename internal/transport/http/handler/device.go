package handler

import (
	"net/http"
	"time"

	"github.com/promo-claim/internal/pkg/id"
)

// A tablet is identified by a long-lived cookie. Clients that cannot keep
// cookies send the same id in the header instead.
const (
	DeviceCookie = "kiosk_device"
	DeviceHeader = "X-Device-ID"

	deviceCookieMaxAge = 5 * 365 * 24 * time.Hour
)

// requestDevice returns the device id the request carries, or "" when it has
// none or it is not a ULID.
func requestDevice(r *http.Request) string {
	if v := r.Header.Get(DeviceHeader); id.Valid(v) {
		return v
	}
	if c, err := r.Cookie(DeviceCookie); err == nil && id.Valid(c.Value) {
		return c.Value
	}
	return ""
}

// ensureDevice returns the request's device id, minting a new one and
// setting the cookie when the request has none.
func ensureDevice(w http.ResponseWriter, r *http.Request) string {
	if dev := requestDevice(r); dev != "" {
		return dev
	}
	dev := id.New()
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceCookie,
		Value:    dev,
		Path:     "/",
		MaxAge:   int(deviceCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return dev
}
