// Package boundedcall runs one HTTP request under an optional deadline and
// reports the outcome as a tagged result instead of an error chain.
package boundedcall

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

// MaxBody caps how much of a response body is retained.
const MaxBody = 4 << 20

// Kind tags the outcome of a call.
type Kind int

const (
	// OK is a 2xx response with its body fully read.
	OK Kind = iota
	// HTTPError is a non-2xx response with its body fully read.
	HTTPError
	// Timeout means the deadline fired or the caller cancelled.
	Timeout
	// Transport is any other failure to send the request or read the body.
	Transport
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case HTTPError:
		return "http_error"
	case Timeout:
		return "timeout"
	case Transport:
		return "transport"
	default:
		return "unknown"
	}
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is the tagged outcome of Do.
type Result struct {
	Kind       Kind
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
	Err        error // set for Timeout and Transport
}

// Do sends req with doer. When timeout > 0 the request, including reading the
// body, is aborted once it elapses.
func Do(ctx context.Context, doer Doer, req *http.Request, timeout time.Duration) Result {
	start := time.Now()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := doer.Do(req.WithContext(ctx))
	if err != nil {
		return Result{Kind: classify(ctx, err), Err: err, Elapsed: time.Since(start)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBody))
	if err != nil {
		return Result{Kind: classify(ctx, err), StatusCode: resp.StatusCode, Err: err, Elapsed: time.Since(start)}
	}

	kind := OK
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind = HTTPError
	}
	return Result{Kind: kind, StatusCode: resp.StatusCode, Body: body, Elapsed: time.Since(start)}
}

func classify(ctx context.Context, err error) Kind {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Timeout
	}
	return Transport
}
