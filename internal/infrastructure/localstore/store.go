// Package localstore keeps the last awarded prize of each device in local
// files, one per device.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/pkg/id"
)

// Store is a directory of single-value slots keyed by device id. Set replaces
// the whole file, so fields absent from the new record are gone afterwards.
type Store struct {
	mu  sync.Mutex
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// path maps a device id to its slot file. Only ULIDs are accepted, so the id
// can never escape dir.
func (s *Store) path(deviceID string) (string, error) {
	if !id.Valid(deviceID) {
		return "", fmt.Errorf("device id %q: %w", deviceID, domain.ErrBadRequest)
	}
	return filepath.Join(s.dir, deviceID+".json"), nil
}

// Get returns the record stored for deviceID, or domain.ErrNotFound when
// nothing has been stored yet or the stored record has no prize name.
func (s *Store) Get(_ context.Context, deviceID string) (*domain.RecoveryRecord, error) {
	path, err := s.path(deviceID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("recovery slot empty: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read recovery slot: %w", err)
	}
	var rec domain.RecoveryRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode recovery slot: %w", err)
	}
	if rec.PrizeName == "" {
		return nil, fmt.Errorf("recovery slot empty: %w", domain.ErrNotFound)
	}
	return &rec, nil
}

// Set overwrites the slot of deviceID. The write goes to a temp file renamed
// over the old one, so a crash never leaves a half-written record.
func (s *Store) Set(_ context.Context, deviceID string, rec domain.RecoveryRecord) error {
	path, err := s.path(deviceID)
	if err != nil {
		return err
	}
	b, err := json.Marshal(domain.RecoveryRecord{PrizeName: rec.PrizeName, PhotoURL: rec.PhotoURL})
	if err != nil {
		return fmt.Errorf("encode recovery slot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create recovery dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".last_prize-*")
	if err != nil {
		return fmt.Errorf("create recovery temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write recovery slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close recovery temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace recovery slot: %w", err)
	}
	return nil
}
