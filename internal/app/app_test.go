package app

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/promo-claim/internal/application/claim"
	"github.com/promo-claim/internal/application/photo"
	"github.com/promo-claim/internal/config"
	"github.com/promo-claim/internal/infrastructure/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecoveryStore_File(t *testing.T) {
	cfg := &config.Config{RecoveryBackend: config.RecoveryBackendFile, RecoveryDir: t.TempDir()}
	store, err := NewRecoveryStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &localstore.Store{}, store)
}

func TestNewRecoveryStore_Unknown(t *testing.T) {
	_, err := NewRecoveryStore(context.Background(), &config.Config{RecoveryBackend: "redis"})
	assert.Error(t, err)
}

func TestNewUploader(t *testing.T) {
	up, err := NewUploader(context.Background(), &config.Config{UploadBackend: config.UploadBackendHTTP, UploadURL: "http://x/upload"}, http.DefaultClient)
	require.NoError(t, err)
	assert.IsType(t, &claim.HTTPUploader{}, up)

	_, err = NewUploader(context.Background(), &config.Config{UploadBackend: "ftp"}, http.DefaultClient)
	assert.Error(t, err)
}

func TestFlowDeps_NoNotifierByDefault(t *testing.T) {
	cfg := &config.Config{UploadBackend: config.UploadBackendHTTP, CompressMaxBytes: 1 << 20, CompressMaxDimension: 1280}
	deps, err := FlowDeps(context.Background(), cfg, photo.NewMemoryPreviews(), localstore.NewStore(t.TempDir()))
	require.NoError(t, err)
	assert.Nil(t, deps.Notifier)
	assert.NotNil(t, deps.Submitter)
	assert.Equal(t, 1280, deps.Compress.MaxDimension)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}
