package registration

import (
	"context"
	"sync"
	"time"

	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/pkg/id"
)

// Registry keeps the open flows of a kiosk process keyed by form id. Flows
// idle for longer than ttl are closed.
type Registry struct {
	mu    sync.Mutex
	forms map[string]*Flow
	deps  Deps
	ttl   time.Duration
}

// NewRegistry creates a Registry and starts its cleanup loop, which stops
// when ctx is done.
func NewRegistry(ctx context.Context, deps Deps, ttl time.Duration) *Registry {
	reg := &Registry{forms: make(map[string]*Flow), deps: deps, ttl: ttl}
	if ttl > 0 {
		go reg.cleanup(ctx, ttl/2)
	}
	return reg
}

// Open starts a flow for storeID on deviceID and returns its form id.
func (r *Registry) Open(storeID, deviceID string) (string, *Flow) {
	formID := id.New()
	f := New(storeID, deviceID, r.deps)
	r.mu.Lock()
	r.forms[formID] = f
	r.mu.Unlock()
	return formID, f
}

func (r *Registry) Get(formID string) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[formID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

// Close removes the flow and releases its resources.
func (r *Registry) Close(formID string) error {
	r.mu.Lock()
	f, ok := r.forms[formID]
	delete(r.forms, formID)
	r.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	f.Close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

func (r *Registry) cleanup(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			r.expire(now)
		}
	}
}

// expire closes flows idle since before now-ttl. Flows mid-submit are kept.
func (r *Registry) expire(now time.Time) int {
	var stale []*Flow
	r.mu.Lock()
	for formID, f := range r.forms {
		if now.Sub(f.LastActive()) > r.ttl && !f.Snapshot().Submitting {
			stale = append(stale, f)
			delete(r.forms, formID)
		}
	}
	r.mu.Unlock()
	for _, f := range stale {
		f.Close()
	}
	return len(stale)
}
