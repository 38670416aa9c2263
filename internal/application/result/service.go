package result

import (
	"context"
	"errors"
	"log/slog"

	"github.com/promo-claim/internal/domain"
)

type Service interface {
	// Load resolves the result view for deviceID. A present transient result
	// is also written to the device's recovery slot. Without a device id the
	// slot is neither read nor written.
	Load(ctx context.Context, deviceID string, transient *domain.ClaimResult) View
}

type recoveryStore interface {
	Get(ctx context.Context, deviceID string) (*domain.RecoveryRecord, error)
	Set(ctx context.Context, deviceID string, rec domain.RecoveryRecord) error
}

type service struct {
	repo recoveryStore
}

func NewService(repo recoveryStore) Service {
	return &service{repo: repo}
}

func (s *service) Load(ctx context.Context, deviceID string, transient *domain.ClaimResult) View {
	if transient != nil && transient.PrizeName != "" {
		if deviceID != "" {
			if err := s.repo.Set(ctx, deviceID, domain.RecordFromResult(*transient)); err != nil {
				slog.Warn("recovery slot write failed", "device", deviceID, "err", err)
			}
		}
		return Resolve(transient, nil)
	}
	if deviceID == "" {
		return Resolve(nil, nil)
	}

	rec, err := s.repo.Get(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("recovery slot read failed", "device", deviceID, "err", err)
		}
		return Resolve(nil, nil)
	}
	return Resolve(nil, rec)
}
