package claim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/pkg/boundedcall"
	"github.com/promo-claim/internal/pkg/redact"
	"github.com/promo-claim/internal/pkg/validate"
)

// Submission is everything one submit attempt needs.
type Submission struct {
	StoreID string
	Fields  domain.Registration
	Photo   *domain.Photo // the working file, compressed or original
}

// Submitter runs Validating → Uploading → Claiming and ends in Succeeded or
// Failed. Only the claim call carries a deadline.
type Submitter struct {
	uploader   Uploader
	client     boundedcall.Doer
	claimURL   string
	campaignID string
	timeout    time.Duration
}

type Deps struct {
	Uploader   Uploader
	Client     boundedcall.Doer
	ClaimURL   string
	CampaignID string
	Timeout    time.Duration
}

func NewSubmitter(deps Deps) *Submitter {
	client := deps.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &Submitter{
		uploader:   deps.Uploader,
		client:     client,
		claimURL:   deps.ClaimURL,
		campaignID: deps.CampaignID,
		timeout:    deps.Timeout,
	}
}

// Submit performs one attempt. observe, when non-nil, is told every state the
// attempt enters. A validation failure makes no network call; an upload
// failure never reaches the claim endpoint.
func (s *Submitter) Submit(ctx context.Context, sub Submission, observe func(domain.ClaimState)) (*domain.ClaimResult, error) {
	enter := func(st domain.ClaimState) {
		if observe != nil {
			observe(st)
		}
	}

	enter(domain.StateValidating)
	fields, err := ValidateFields(sub.Fields, sub.Photo)
	if err == nil && strings.TrimSpace(sub.StoreID) == "" {
		err = &Error{Kind: domain.ErrMissingStore, Message: MsgMissingStore}
	}
	if err != nil {
		enter(domain.StateIdle)
		return nil, err
	}

	log := slog.With("store", sub.StoreID, "phone", redact.Fingerprint(fields.PhoneNumber))

	enter(domain.StateUploading)
	photoURL, err := s.uploader.Upload(ctx, sub.Photo)
	if err != nil {
		log.Error("photo upload failed", "size", sub.Photo.Size(), "err", err)
		enter(domain.StateFailed)
		return nil, uploadFailure(err)
	}

	enter(domain.StateClaiming)
	result, err := s.claim(ctx, log, domain.ClaimPayload{
		Name:        fields.Name,
		PhoneNumber: fields.PhoneNumber,
		DNI:         fields.DNI,
		StoreID:     sub.StoreID,
		Campaign:    s.campaignID,
		PhotoURL:    photoURL,
	})
	if err != nil {
		enter(domain.StateFailed)
		return nil, err
	}
	log.Info("claim succeeded", "prize", result.PrizeName)
	enter(domain.StateSucceeded)
	return result, nil
}

// ValidateFields trims the fields and checks them in the order the participant
// is told about them: required fields, name length, phone, national ID.
func ValidateFields(reg domain.Registration, p *domain.Photo) (domain.Registration, error) {
	reg = domain.Registration{
		Name:        strings.TrimSpace(reg.Name),
		DNI:         strings.TrimSpace(reg.DNI),
		PhoneNumber: strings.TrimSpace(reg.PhoneNumber),
	}
	fail := func(msg string, cause error) (domain.Registration, error) {
		return reg, &Error{Kind: domain.ErrValidation, Message: msg, Err: cause}
	}
	if reg.Name == "" || reg.PhoneNumber == "" || p == nil || len(p.Data) == 0 {
		return fail(MsgRequiredFields, nil)
	}

	err := validate.Struct(reg)
	if err == nil {
		return reg, nil
	}
	var ve validate.Errors
	if !errors.As(err, &ve) {
		return fail(MsgRequiredFields, err)
	}
	switch {
	case ve.Has("Name"):
		return fail(MsgNameTooLong, err)
	case ve.Has("PhoneNumber"):
		return fail(MsgPhoneFormat, err)
	default:
		return fail(MsgDNIFormat, err)
	}
}

func (s *Submitter) claim(ctx context.Context, log *slog.Logger, payload domain.ClaimPayload) (*domain.ClaimResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal claim: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.claimURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build claim request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res := boundedcall.Do(ctx, s.client, req, s.timeout)
	switch res.Kind {
	case boundedcall.Timeout:
		log.Warn("claim aborted", "elapsed", res.Elapsed, "err", res.Err)
		return nil, &Error{Kind: domain.ErrTimeout, Message: MsgTimeout, Err: res.Err}
	case boundedcall.Transport:
		log.Warn("claim endpoint unreachable", "err", res.Err)
		return nil, &Error{Kind: domain.ErrNetworkUnreachable, Message: MsgOffline, Err: res.Err}
	}

	// Any 5xx is a server failure whatever the body holds; the body is only
	// logged.
	if res.StatusCode >= 500 {
		log.Error("claim server error", "status", res.StatusCode, "body", truncate(string(res.Body), 512))
		return nil, &Error{Kind: domain.ErrServer, Message: MsgServerError, Status: res.StatusCode}
	}

	var resp domain.ClaimResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		log.Error("non-JSON claim response", "status", res.StatusCode, "body", truncate(string(res.Body), 512))
		return nil, &Error{
			Kind:    domain.ErrMalformedResponse,
			Message: fmt.Sprintf(MsgMalformed, res.StatusCode),
			Status:  res.StatusCode,
			Err:     err,
		}
	}

	if res.Kind == boundedcall.HTTPError {
		msg := firstNonEmpty(resp.Message, resp.Error, MsgRejectedDefault)
		log.Info("claim rejected", "status", res.StatusCode, "message", msg)
		return nil, &Error{Kind: domain.ErrRejected, Message: "❌ " + msg, Status: res.StatusCode}
	}

	return &domain.ClaimResult{
		PrizeName: firstNonEmpty(resp.Prize, domain.ThanksForParticipating),
		PhotoURL:  firstNonEmpty(resp.PhotoURL, payload.PhotoURL),
	}, nil
}

func uploadFailure(err error) error {
	var ue *UploadError
	msg := MsgUploadFailed
	status := 0
	if errors.As(err, &ue) && ue.Status != 0 {
		msg = fmt.Sprintf("%s Error en la subida: %d - %s", MsgUploadFailed, ue.Status, ue.Body)
		status = ue.Status
	}
	return &Error{Kind: domain.ErrUpload, Message: msg, Status: status, Err: err}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
