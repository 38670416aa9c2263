// Package registration holds the per-form state of one participant's
// registration and drives it from file selection to the result handoff.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/promo-claim/internal/application/claim"
	"github.com/promo-claim/internal/application/photo"
	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/pkg/redact"
)

// ExitRoute is where a successful claim navigates to.
const ExitRoute = "/exit"

type submitter interface {
	Submit(ctx context.Context, sub claim.Submission, observe func(domain.ClaimState)) (*domain.ClaimResult, error)
}

type recoveryStore interface {
	Set(ctx context.Context, deviceID string, rec domain.RecoveryRecord) error
}

type prizeNotifier interface {
	PrizeAwarded(ctx context.Context, phone string, result domain.ClaimResult) error
}

// Deps are the collaborators shared by every flow. Notifier is optional.
type Deps struct {
	Submitter  submitter
	Compressor photo.Compressor
	Previews   photo.PreviewStore
	Recovery   recoveryStore
	Notifier   prizeNotifier
	Compress   photo.Options
}

// Outcome is the navigation handoff produced by a successful submit.
type Outcome struct {
	Route string             `json:"route"`
	State domain.ClaimResult `json:"state"`
}

// View is a point-in-time copy of a flow's state.
type View struct {
	StoreID       string              `json:"storeId"`
	Fields        domain.Registration `json:"fields"`
	HasPhoto      bool                `json:"hasPhoto"`
	PhotoType     string              `json:"photoType,omitempty"`
	PhotoSize     int64               `json:"photoSize,omitempty"`
	PreviewID     string              `json:"previewId,omitempty"`
	Compressing   bool                `json:"compressing"`
	Submitting    bool                `json:"submitting"`
	TermsAccepted bool                `json:"termsAccepted"`
	State         domain.ClaimState   `json:"state"`
	Message       string              `json:"message,omitempty"`
	CanSubmit     bool                `json:"canSubmit"`
	Outcome       *Outcome            `json:"outcome,omitempty"`
}

// Flow is one registration form instance. All methods are safe for
// concurrent use; at most one submission runs at a time.
type Flow struct {
	deps     Deps
	storeID  string
	deviceID string

	mu            sync.Mutex
	fields        domain.Registration
	working       *domain.Photo
	preview       string
	compressing   bool
	submitting    bool
	termsAccepted bool
	state         domain.ClaimState
	message       string
	outcome       *Outcome
	gen           uint64
	closed        bool
	lastActive    time.Time
}

// New creates a flow for storeID on the device deviceID. Without a store the
// flow shows a blocking message and refuses to submit. Without a device the
// result is not written to any recovery slot.
func New(storeID, deviceID string, deps Deps) *Flow {
	f := &Flow{
		deps:       deps,
		storeID:    strings.TrimSpace(storeID),
		deviceID:   deviceID,
		state:      domain.StateIdle,
		lastActive: time.Now(),
	}
	f.message = f.idleMessage()
	return f
}

func (f *Flow) idleMessage() string {
	if f.storeID == "" {
		return claim.MsgMissingStore
	}
	return ""
}

func (f *Flow) touch() { f.lastActive = time.Now() }

func (f *Flow) busy() bool {
	return f.compressing || f.submitting || f.state.InFlight()
}

// SetFields replaces the text fields. Values are stored as typed and trimmed
// on submit.
func (f *Flow) SetFields(reg domain.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return fmt.Errorf("set fields: %w", domain.ErrBusy)
	}
	f.fields = reg
	f.touch()
	return nil
}

// AcceptTerms dismisses the blocking terms overlay.
func (f *Flow) AcceptTerms() {
	f.mu.Lock()
	f.termsAccepted = true
	f.touch()
	f.mu.Unlock()
}

// SelectFile replaces the candidate photo. nil clears the selection. A rejected
// file clears the selection and sets the message. An accepted file gets a
// preview and is compressed, falling back to the original; a newer selection
// made meanwhile wins and the older result is dropped.
func (f *Flow) SelectFile(ctx context.Context, p *domain.Photo) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return fmt.Errorf("select file: %w", domain.ErrNotFound)
	}
	if f.submitting {
		f.mu.Unlock()
		return fmt.Errorf("select file: %w", domain.ErrBusy)
	}
	f.gen++
	gen := f.gen
	f.touch()
	f.message = f.idleMessage()
	f.clearPhotoLocked()

	if p == nil || len(p.Data) == 0 {
		f.mu.Unlock()
		return nil
	}
	if err := photo.Validate(p.MediaType, p.Size()); err != nil {
		var rej *photo.Rejection
		if errors.As(err, &rej) {
			f.message = rej.Message
		}
		f.mu.Unlock()
		return err
	}

	if ref, err := f.deps.Previews.Create(p); err != nil {
		slog.Warn("preview not created", "err", err)
	} else {
		f.preview = ref
	}
	f.compressing = true
	f.mu.Unlock()

	working := photo.CompressOrOriginal(ctx, f.deps.Compressor, p, f.deps.Compress)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		slog.Debug("dropping superseded compression result")
		return nil
	}
	f.working = working
	f.compressing = false
	return nil
}

// clearPhotoLocked drops the working file and releases its preview.
func (f *Flow) clearPhotoLocked() {
	if f.preview != "" {
		f.deps.Previews.Revoke(f.preview)
		f.preview = ""
	}
	f.working = nil
	f.compressing = false
}

// Submit runs one claim attempt. On success the result is written to the
// device's recovery slot and returned as the navigation outcome. On failure the
// message is set and fields and photo are kept.
func (f *Flow) Submit(ctx context.Context) (*Outcome, error) {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return nil, fmt.Errorf("submit: %w", domain.ErrNotFound)
	case f.storeID == "":
		f.message = claim.MsgMissingStore
		f.mu.Unlock()
		return nil, &claim.Error{Kind: domain.ErrMissingStore, Message: claim.MsgMissingStore}
	case f.busy():
		f.mu.Unlock()
		return nil, fmt.Errorf("submit: %w", domain.ErrBusy)
	case !f.termsAccepted:
		f.mu.Unlock()
		return nil, fmt.Errorf("submit: %w", domain.ErrTermsPending)
	}
	f.submitting = true
	f.message = ""
	f.touch()
	sub := claim.Submission{StoreID: f.storeID, Fields: f.fields, Photo: f.working}
	f.mu.Unlock()

	observe := func(st domain.ClaimState) {
		f.mu.Lock()
		f.state = st
		f.mu.Unlock()
	}
	result, err := f.deps.Submitter.Submit(ctx, sub, observe)

	f.mu.Lock()
	f.submitting = false
	f.touch()
	if err != nil {
		f.message = claim.Message(err)
		f.mu.Unlock()
		return nil, err
	}
	out := &Outcome{Route: ExitRoute, State: *result}
	f.outcome = out
	f.mu.Unlock()

	if f.deviceID != "" {
		if err := f.deps.Recovery.Set(ctx, f.deviceID, domain.RecordFromResult(*result)); err != nil {
			slog.Error("recovery slot write failed", "device", f.deviceID, "err", err)
		}
	}
	if f.deps.Notifier != nil {
		phone := strings.TrimSpace(sub.Fields.PhoneNumber)
		if err := f.deps.Notifier.PrizeAwarded(ctx, phone, *result); err != nil {
			slog.Warn("prize notification failed", "phone", redact.Fingerprint(phone), "err", err)
		}
	}
	return out, nil
}

// Snapshot returns the current state.
func (f *Flow) Snapshot() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{
		StoreID:       f.storeID,
		Fields:        f.fields,
		HasPhoto:      f.working != nil,
		PreviewID:     f.preview,
		Compressing:   f.compressing,
		Submitting:    f.submitting,
		TermsAccepted: f.termsAccepted,
		State:         f.state,
		Message:       f.message,
		CanSubmit:     f.storeID != "" && f.termsAccepted && !f.busy() && !f.closed,
	}
	if f.working != nil {
		v.PhotoType = f.working.MediaType
		v.PhotoSize = f.working.Size()
	}
	if f.outcome != nil {
		o := *f.outcome
		v.Outcome = &o
	}
	return v
}

// DeviceID is the device whose recovery slot this flow writes.
func (f *Flow) DeviceID() string { return f.deviceID }

// LastActive is when the flow was last touched.
func (f *Flow) LastActive() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActive
}

// Close releases the preview and drops any in-flight compression.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.clearPhotoLocked()
	f.closed = true
}
