// Package app assembles the registration flow from configuration. Both the
// kiosk server and the register CLI start here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/promo-claim/internal/application/claim"
	"github.com/promo-claim/internal/application/photo"
	"github.com/promo-claim/internal/application/registration"
	"github.com/promo-claim/internal/config"
	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/infrastructure/dynamo"
	"github.com/promo-claim/internal/infrastructure/imaging"
	"github.com/promo-claim/internal/infrastructure/localstore"
	s3infra "github.com/promo-claim/internal/infrastructure/s3"
	"github.com/promo-claim/internal/infrastructure/sns"
)

// RecoveryStore holds the last prize of each device, one slot per device id.
type RecoveryStore interface {
	Get(ctx context.Context, deviceID string) (*domain.RecoveryRecord, error)
	Set(ctx context.Context, deviceID string, rec domain.RecoveryRecord) error
}

// NewRecoveryStore returns the file store, or the DynamoDB table when
// RECOVERY_BACKEND=dynamo. The table is created if missing.
func NewRecoveryStore(ctx context.Context, cfg *config.Config) (RecoveryStore, error) {
	switch cfg.RecoveryBackend {
	case config.RecoveryBackendDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		slog.Info("recovery slots on dynamodb", "table", cfg.DynamoTables.Recovery)
		return dynamo.NewRecoveryRepo(client, cfg.DynamoTables.Recovery), nil
	case config.RecoveryBackendFile, "":
		return localstore.NewStore(cfg.RecoveryDir), nil
	default:
		return nil, fmt.Errorf("unknown recovery backend %q", cfg.RecoveryBackend)
	}
}

// NewUploader returns the HTTP storage uploader, or the S3 one when
// UPLOAD_BACKEND=s3.
func NewUploader(ctx context.Context, cfg *config.Config, client *http.Client) (claim.Uploader, error) {
	switch cfg.UploadBackend {
	case config.UploadBackendS3:
		s3c, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s3infra.NewStore(s3c, cfg.S3BucketName, cfg.S3PublicBaseURL), nil
	case config.UploadBackendHTTP, "":
		return claim.NewHTTPUploader(client, cfg.UploadURL), nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.UploadBackend)
	}
}

// FlowDeps builds the collaborators shared by every registration flow.
func FlowDeps(ctx context.Context, cfg *config.Config, previews photo.PreviewStore, recovery RecoveryStore) (registration.Deps, error) {
	client := &http.Client{}
	uploader, err := NewUploader(ctx, cfg, client)
	if err != nil {
		return registration.Deps{}, err
	}
	deps := registration.Deps{
		Submitter: claim.NewSubmitter(claim.Deps{
			Uploader:   uploader,
			Client:     client,
			ClaimURL:   cfg.ClaimURL(),
			CampaignID: cfg.CampaignID,
			Timeout:    cfg.ClaimTimeout,
		}),
		Compressor: imaging.NewCompressor(),
		Previews:   previews,
		Recovery:   recovery,
		Compress: photo.Options{
			MaxBytes:     cfg.CompressMaxBytes,
			MaxDimension: cfg.CompressMaxDimension,
		},
	}
	if cfg.SNSEnabled {
		snsClient, err := sns.NewClient(ctx, cfg)
		if err != nil {
			slog.Warn("prize sms disabled", "err", err)
		} else {
			deps.Notifier = sns.NewNotifier(snsClient, cfg.SNSCountryCode)
		}
	}
	return deps, nil
}

// ParseLevel maps LOG_LEVEL to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
