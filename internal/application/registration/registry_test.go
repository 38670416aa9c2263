package registration

import (
	"context"
	"testing"
	"time"

	"github.com/promo-claim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OpenGetClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deps, previews, _ := testDeps(&mockSubmitter{}, &mockRecovery{})
	reg := NewRegistry(ctx, deps, time.Hour)

	formID, f := reg.Open("tienda-01", testDevice)
	got, err := reg.Get(formID)
	require.NoError(t, err)
	assert.Same(t, f, got)
	assert.Equal(t, "tienda-01", got.Snapshot().StoreID)
	assert.Equal(t, testDevice, got.DeviceID())

	require.NoError(t, f.SelectFile(context.Background(), jpegOf("a.jpg", 10)))
	require.NoError(t, reg.Close(formID))
	assert.Equal(t, 0, previews.Len())

	_, err = reg.Get(formID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, reg.Close(formID), domain.ErrNotFound)
}

func TestRegistry_ExpiresIdleForms(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deps, previews, _ := testDeps(&mockSubmitter{}, &mockRecovery{})
	reg := NewRegistry(ctx, deps, time.Minute)

	idle, f := reg.Open("tienda-01", testDevice)
	require.NoError(t, f.SelectFile(context.Background(), jpegOf("a.jpg", 10)))

	assert.Equal(t, 0, reg.expire(time.Now()))
	assert.Equal(t, 1, reg.expire(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, previews.Len())
	_, err := reg.Get(idle)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
