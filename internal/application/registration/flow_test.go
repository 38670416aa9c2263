package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/promo-claim/internal/application/claim"
	"github.com/promo-claim/internal/application/photo"
	"github.com/promo-claim/internal/domain"
	"github.com/promo-claim/internal/infrastructure/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSubmitter struct{ mock.Mock }

func (m *mockSubmitter) Submit(ctx context.Context, sub claim.Submission, observe func(domain.ClaimState)) (*domain.ClaimResult, error) {
	args := m.Called(ctx, sub)
	r, _ := args.Get(0).(*domain.ClaimResult)
	if observe != nil {
		if r != nil {
			observe(domain.StateSucceeded)
		} else {
			observe(domain.StateFailed)
		}
	}
	return r, args.Error(1)
}

type mockRecovery struct{ mock.Mock }

func (m *mockRecovery) Set(ctx context.Context, deviceID string, rec domain.RecoveryRecord) error {
	return m.Called(ctx, deviceID, rec).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) PrizeAwarded(ctx context.Context, phone string, r domain.ClaimResult) error {
	return m.Called(ctx, phone, r).Error(0)
}

// gateCompressor halves photos. Photos named "slow" wait for release.
type gateCompressor struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func newGate() *gateCompressor {
	return &gateCompressor{started: make(chan struct{}, 4), release: make(chan struct{})}
}

func (g *gateCompressor) Compress(ctx context.Context, p *domain.Photo, _ photo.Options) (*domain.Photo, error) {
	if p.Filename == "slow" {
		g.started <- struct{}{}
		<-g.release
	}
	if g.err != nil {
		return nil, g.err
	}
	return &domain.Photo{Filename: p.Filename, MediaType: p.MediaType, Data: p.Data[:len(p.Data)/2]}, nil
}

// --- helpers ---

const testDevice = "01JAXKQ4Z8M5T0Y3B6N2P9R7CD"

func jpegOf(name string, size int) *domain.Photo {
	return &domain.Photo{Filename: name, MediaType: "image/jpeg", Data: bytes.Repeat([]byte{0xFF}, size)}
}

func testDeps(sub submitter, rec recoveryStore) (Deps, *photo.MemoryPreviews, *gateCompressor) {
	previews := photo.NewMemoryPreviews()
	gate := newGate()
	return Deps{
		Submitter:  sub,
		Compressor: gate,
		Previews:   previews,
		Recovery:   rec,
		Compress:   photo.Options{MaxBytes: 1 << 20, MaxDimension: 1280},
	}, previews, gate
}

func readyFlow(t *testing.T, deps Deps) *Flow {
	t.Helper()
	f := New("tienda-01", testDevice, deps)
	f.AcceptTerms()
	require.NoError(t, f.SetFields(domain.Registration{Name: "Juan Perez", PhoneNumber: "987654321"}))
	require.NoError(t, f.SelectFile(context.Background(), jpegOf("voucher.jpg", 2000)))
	return f
}

// --- tests ---

func TestFlow_EndToEnd(t *testing.T) {
	var mu sync.Mutex
	var uploaded int
	var claimBody map[string]any
	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("photo")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(f)
		mu.Lock()
		uploaded = len(b)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"url":"/u/1.jpg"}`))
	}))
	defer upload.Close()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&claimBody)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"prize":"Bola de playa"}`))
	}))
	defer api.Close()

	slot := localstore.NewStore(t.TempDir())
	sub := claim.NewSubmitter(claim.Deps{
		Uploader:   claim.NewHTTPUploader(http.DefaultClient, upload.URL),
		ClaimURL:   api.URL + "/api/v1/claim",
		CampaignID: "verano",
		Timeout:    10 * time.Second,
	})
	deps, _, _ := testDeps(sub, slot)

	f := New("tienda-01", testDevice, deps)
	f.AcceptTerms()
	require.NoError(t, f.SetFields(domain.Registration{Name: "Juan Perez", PhoneNumber: "987654321"}))
	require.NoError(t, f.SelectFile(context.Background(), jpegOf("voucher.jpg", 2<<20)))
	assert.Equal(t, int64(1<<20), f.Snapshot().PhotoSize)

	out, err := f.Submit(context.Background())
	require.NoError(t, err)
	want := domain.ClaimResult{PrizeName: "Bola de playa", PhotoURL: "/u/1.jpg"}
	assert.Equal(t, &Outcome{Route: ExitRoute, State: want}, out)

	rec, err := slot.Get(context.Background(), testDevice)
	require.NoError(t, err)
	assert.Equal(t, want.PrizeName, rec.PrizeName)
	assert.Equal(t, want.PhotoURL, rec.PhotoURL)

	mu.Lock()
	assert.Equal(t, 1<<20, uploaded)
	assert.NotContains(t, claimBody, "dni")
	assert.Equal(t, "tienda-01", claimBody["storeId"])
	assert.Equal(t, "verano", claimBody["campaign"])
	mu.Unlock()

	v := f.Snapshot()
	assert.Equal(t, domain.StateSucceeded, v.State)
	assert.Empty(t, v.Message)
	assert.Equal(t, out, v.Outcome)
}

func TestFlow_MissingStoreBlocks(t *testing.T) {
	sub := &mockSubmitter{}
	deps, _, _ := testDeps(sub, &mockRecovery{})
	f := New("  ", testDevice, deps)
	f.AcceptTerms()

	v := f.Snapshot()
	assert.Equal(t, claim.MsgMissingStore, v.Message)
	assert.False(t, v.CanSubmit)

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrMissingStore)
	require.NoError(t, f.SelectFile(context.Background(), nil))
	assert.Equal(t, claim.MsgMissingStore, f.Snapshot().Message)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestFlow_TermsPending(t *testing.T) {
	sub := &mockSubmitter{}
	deps, _, _ := testDeps(sub, &mockRecovery{})
	f := New("tienda-01", testDevice, deps)

	assert.False(t, f.Snapshot().CanSubmit)
	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrTermsPending)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestFlow_BusyWhileCompressing(t *testing.T) {
	sub := &mockSubmitter{}
	deps, _, gate := testDeps(sub, &mockRecovery{})
	f := New("tienda-01", testDevice, deps)
	f.AcceptTerms()

	done := make(chan error)
	go func() { done <- f.SelectFile(context.Background(), jpegOf("slow", 100)) }()
	<-gate.started

	v := f.Snapshot()
	assert.True(t, v.Compressing)
	assert.False(t, v.CanSubmit)
	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(gate.release)
	require.NoError(t, <-done)
	assert.False(t, f.Snapshot().Compressing)
	assert.True(t, f.Snapshot().CanSubmit)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestFlow_SupersededCompressionDropped(t *testing.T) {
	deps, previews, gate := testDeps(&mockSubmitter{}, &mockRecovery{})
	f := New("tienda-01", testDevice, deps)

	done := make(chan error)
	go func() { done <- f.SelectFile(context.Background(), jpegOf("slow", 100)) }()
	<-gate.started

	require.NoError(t, f.SelectFile(context.Background(), jpegOf("fast", 40)))
	close(gate.release)
	require.NoError(t, <-done)

	v := f.Snapshot()
	assert.Equal(t, int64(20), v.PhotoSize)
	assert.False(t, v.Compressing)
	assert.Equal(t, 1, previews.Len())
}

func TestFlow_CompressionFailureKeepsOriginal(t *testing.T) {
	deps, _, gate := testDeps(&mockSubmitter{}, &mockRecovery{})
	gate.err = errors.New("decoder exploded")
	f := New("tienda-01", testDevice, deps)

	require.NoError(t, f.SelectFile(context.Background(), jpegOf("voucher.jpg", 300)))
	v := f.Snapshot()
	assert.True(t, v.HasPhoto)
	assert.Equal(t, int64(300), v.PhotoSize)
	assert.Empty(t, v.Message)
}

func TestFlow_RejectedFileClearsSelection(t *testing.T) {
	deps, previews, _ := testDeps(&mockSubmitter{}, &mockRecovery{})
	f := New("tienda-01", testDevice, deps)
	require.NoError(t, f.SelectFile(context.Background(), jpegOf("voucher.jpg", 10)))
	require.Equal(t, 1, previews.Len())

	err := f.SelectFile(context.Background(), &domain.Photo{MediaType: "image/gif", Data: []byte("GIF89a")})
	assert.ErrorIs(t, err, photo.ErrUnsupportedType)
	v := f.Snapshot()
	assert.Equal(t, photo.MsgUnsupportedType, v.Message)
	assert.False(t, v.HasPhoto)
	assert.Empty(t, v.PreviewID)
	assert.Equal(t, 0, previews.Len())

	err = f.SelectFile(context.Background(), jpegOf("huge.jpg", photo.MaxOriginalBytes+1))
	assert.ErrorIs(t, err, photo.ErrTooLarge)
	assert.Equal(t, photo.MsgTooLarge, f.Snapshot().Message)
}

func TestFlow_PreviewsReleased(t *testing.T) {
	deps, previews, _ := testDeps(&mockSubmitter{}, &mockRecovery{})
	f := New("tienda-01", testDevice, deps)

	require.NoError(t, f.SelectFile(context.Background(), jpegOf("a.jpg", 10)))
	first := f.Snapshot().PreviewID
	require.NoError(t, f.SelectFile(context.Background(), jpegOf("b.jpg", 10)))
	second := f.Snapshot().PreviewID

	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, previews.Len())
	_, err := previews.Get(first)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.SelectFile(context.Background(), nil))
	assert.Equal(t, 0, previews.Len())

	require.NoError(t, f.SelectFile(context.Background(), jpegOf("c.jpg", 10)))
	f.Close()
	assert.Equal(t, 0, previews.Len())
	assert.ErrorIs(t, f.SelectFile(context.Background(), jpegOf("d.jpg", 10)), domain.ErrNotFound)
}

func TestFlow_FailureKeepsFormState(t *testing.T) {
	sub := &mockSubmitter{}
	rec := &mockRecovery{}
	sub.On("Submit", mock.Anything, mock.Anything).
		Return(nil, &claim.Error{Kind: domain.ErrRejected, Message: "❌ Ya participaste"})
	deps, _, _ := testDeps(sub, rec)
	f := readyFlow(t, deps)

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrRejected)

	v := f.Snapshot()
	assert.Equal(t, "❌ Ya participaste", v.Message)
	assert.Equal(t, domain.StateFailed, v.State)
	assert.Equal(t, "Juan Perez", v.Fields.Name)
	assert.True(t, v.HasPhoto)
	assert.Nil(t, v.Outcome)
	assert.True(t, v.CanSubmit)
	rec.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestFlow_SubmitPassesWorkingFile(t *testing.T) {
	sub := &mockSubmitter{}
	rec := &mockRecovery{}
	sub.On("Submit", mock.Anything, mock.MatchedBy(func(s claim.Submission) bool {
		return s.StoreID == "tienda-01" && s.Photo != nil && s.Photo.Size() == 1000 && s.Fields.PhoneNumber == "987654321"
	})).Return(&domain.ClaimResult{PrizeName: "Vaso", PhotoURL: "/u/2.jpg"}, nil)
	rec.On("Set", mock.Anything, testDevice, domain.RecoveryRecord{PrizeName: "Vaso", PhotoURL: "/u/2.jpg"}).Return(nil)
	deps, _, _ := testDeps(sub, rec)

	out, err := readyFlow(t, deps).Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Vaso", out.State.PrizeName)
	sub.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestFlow_SideEffectFailuresDoNotFailSubmit(t *testing.T) {
	sub := &mockSubmitter{}
	rec := &mockRecovery{}
	notifier := &mockNotifier{}
	result := &domain.ClaimResult{PrizeName: "Visera", PhotoURL: "/x.png"}
	sub.On("Submit", mock.Anything, mock.Anything).Return(result, nil)
	rec.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("read-only fs"))
	notifier.On("PrizeAwarded", mock.Anything, "987654321", *result).Return(errors.New("sms down"))
	deps, _, _ := testDeps(sub, rec)
	deps.Notifier = notifier

	out, err := readyFlow(t, deps).Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, *result, out.State)
	notifier.AssertExpectations(t)
}

func TestFlow_BusyWhileSubmitting(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	sub := &mockSubmitter{}
	sub.On("Submit", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&domain.ClaimResult{PrizeName: "Vaso"}, nil).Once()
	rec := &mockRecovery{}
	rec.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	deps, _, _ := testDeps(sub, rec)
	f := readyFlow(t, deps)

	done := make(chan error)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-entered

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrBusy)
	assert.ErrorIs(t, f.SelectFile(context.Background(), jpegOf("x.jpg", 10)), domain.ErrBusy)
	assert.ErrorIs(t, f.SetFields(domain.Registration{}), domain.ErrBusy)
	assert.True(t, f.Snapshot().Submitting)

	close(release)
	require.NoError(t, <-done)
	sub.AssertNumberOfCalls(t, "Submit", 1)
}

func TestFlow_NoDeviceSkipsRecovery(t *testing.T) {
	sub := &mockSubmitter{}
	rec := &mockRecovery{}
	sub.On("Submit", mock.Anything, mock.Anything).Return(&domain.ClaimResult{PrizeName: "Vaso"}, nil)
	deps, _, _ := testDeps(sub, rec)

	f := New("tienda-01", "", deps)
	f.AcceptTerms()
	require.NoError(t, f.SetFields(domain.Registration{Name: "Juan Perez", PhoneNumber: "987654321"}))
	require.NoError(t, f.SelectFile(context.Background(), jpegOf("voucher.jpg", 2000)))

	out, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Vaso", out.State.PrizeName)
	rec.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}
