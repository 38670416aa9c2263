package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
)

// Claim pipeline taxonomy. Each failure of a submission is exactly one of these.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUpload             = errors.New("photo upload failed")
	ErrTimeout            = errors.New("claim timed out")
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrServer             = errors.New("server error")
	ErrRejected           = errors.New("claim rejected")
	ErrMalformedResponse  = errors.New("malformed response")
)

// Flow-level guards.
var (
	ErrMissingStore = errors.New("store id not defined")
	ErrBusy         = errors.New("form busy")
	ErrTermsPending = errors.New("terms not accepted")
)
