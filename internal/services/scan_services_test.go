package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"osintrecon/internal/models"
	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/engine"
	"osintrecon/pkg/testutil"
	"osintrecon/pkg/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// heldDispatcher keeps submitted work until Release is called.
type heldDispatcher struct {
	mu      sync.Mutex
	pending []func() error
	err     error
}

func (h *heldDispatcher) Submit(fn func() error) error {
	if h.err != nil {
		return h.err
	}
	h.mu.Lock()
	h.pending = append(h.pending, fn)
	h.mu.Unlock()
	return nil
}

func (h *heldDispatcher) Release() {
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()
	for _, fn := range pending {
		_ = fn()
	}
}

func newTestService(t *testing.T, d *testutil.MemoryScanDAO, r *testutil.FakeRunner, dispatcher Dispatcher) *scanService {
	t.Helper()
	svc := NewScanService(d, newTestExecutor(t, d, r), dispatcher).(*scanService)
	return svc
}

func TestInitiateScan_ReturnsRunningBeforeExecution(t *testing.T) {
	d := testutil.NewMemoryScanDAO()
	r := testutil.NewFakeRunner()
	dispatcher := &heldDispatcher{}
	svc := newTestService(t, d, r, dispatcher)

	scan, err := svc.InitiateScan(ScanRequest{Domain: "  example.com ", Tool: tools.TheHarvester, Limit: 100})
	require.NoError(t, err)

	assert.NotEmpty(t, scan.ID)
	assert.Equal(t, "example.com", scan.Domain)
	assert.Equal(t, models.StatusRunning, scan.Status)
	assert.Nil(t, scan.EndTime)
	assert.False(t, scan.StartTime.IsZero())
	assert.Empty(t, r.Requests(), "tool must not run on the caller's path")

	stored, err := svc.GetScanByID(scan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, stored.Status)

	dispatcher.Release()

	stored, err = svc.GetScanByID(scan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, []string{"-d", "example.com", "-b", "all", "-l", "100"}, r.Requests()[0].Args)
}

func TestInitiateScan_RejectsBeforePersisting(t *testing.T) {
	tests := []struct {
		name    string
		req     ScanRequest
		wantErr error
	}{
		{name: "empty domain", req: ScanRequest{Domain: "", Tool: tools.Amass}, wantErr: apperrors.ErrBlankDomain},
		{name: "blank domain", req: ScanRequest{Domain: " \t", Tool: tools.Amass}, wantErr: apperrors.ErrBlankDomain},
		{name: "unknown tool", req: ScanRequest{Domain: "example.com", Tool: "NMAP"}, wantErr: apperrors.ErrUnknownTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testutil.NewMemoryScanDAO()
			dispatcher := &heldDispatcher{}
			svc := newTestService(t, d, testutil.NewFakeRunner(), dispatcher)

			scan, err := svc.InitiateScan(tt.req)

			assert.Nil(t, scan)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, 0, d.Saves())
			assert.Empty(t, dispatcher.pending)
		})
	}
}

func TestInitiateScan_DispatchFailureFailsScan(t *testing.T) {
	d := testutil.NewMemoryScanDAO()
	svc := newTestService(t, d, testutil.NewFakeRunner(), &heldDispatcher{err: engine.ErrQueueClosed})

	scan, err := svc.InitiateScan(ScanRequest{Domain: "example.com", Tool: tools.Amass})
	require.NoError(t, err)

	stored, err := svc.GetScanByID(scan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Contains(t, *stored.ErrorMessage, "could not be scheduled")
	assert.NoError(t, stored.CheckInvariants())
}

func TestGetAllScans_NewestFirst(t *testing.T) {
	d := testutil.NewMemoryScanDAO()
	svc := newTestService(t, d, testutil.NewFakeRunner(), &heldDispatcher{})

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now.Add(-2 * time.Hour) }
	oldest, err := svc.InitiateScan(ScanRequest{Domain: "a.example.com", Tool: tools.Amass})
	require.NoError(t, err)
	svc.now = func() time.Time { return now }
	newest, err := svc.InitiateScan(ScanRequest{Domain: "b.example.com", Tool: tools.Amass})
	require.NoError(t, err)
	svc.now = func() time.Time { return now.Add(-time.Hour) }
	middle, err := svc.InitiateScan(ScanRequest{Domain: "c.example.com", Tool: tools.Amass})
	require.NoError(t, err)

	scans, err := svc.GetAllScans()
	require.NoError(t, err)
	require.Len(t, scans, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, []string{scans[0].ID, scans[1].ID, scans[2].ID})
}

func TestGetScanByID_NotFound(t *testing.T) {
	svc := newTestService(t, testutil.NewMemoryScanDAO(), testutil.NewFakeRunner(), &heldDispatcher{})

	_, err := svc.GetScanByID("missing")
	assert.True(t, errors.Is(err, apperrors.ErrScanNotFound))
}

func TestDeleteAllScans(t *testing.T) {
	d := testutil.NewMemoryScanDAO()
	svc := newTestService(t, d, testutil.NewFakeRunner(), &heldDispatcher{})

	_, err := svc.InitiateScan(ScanRequest{Domain: "example.com", Tool: tools.Amass})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAllScans())

	scans, err := svc.GetAllScans()
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestInitiateScan_WithQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := testutil.NewMemoryScanDAO()
	r := testutil.NewFakeRunner()
	r.SetResponse(amassImage, testutil.RunResponse{Output: "[crtsh] www.example.com\n", Delay: 10 * time.Millisecond})
	r.SetResponse(harvesterImage, testutil.RunResponse{Error: errors.New("image pull failed: denied")})

	queue := engine.NewQueue(2, nil)
	svc := newTestService(t, d, r, queue)

	ids := map[tools.ScanTool]string{}
	for _, tool := range tools.AllTools() {
		scan, err := svc.InitiateScan(ScanRequest{Domain: "example.com", Tool: tool})
		require.NoError(t, err)
		ids[tool] = scan.ID
	}

	queue.Shutdown()

	amass, err := svc.GetScanByID(ids[tools.Amass])
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, amass.Status)

	harvester, err := svc.GetScanByID(ids[tools.TheHarvester])
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, harvester.Status)
	assert.Equal(t, "image pull failed: denied", *harvester.ErrorMessage)

	for _, id := range ids {
		assert.Equal(t, 1, d.Updates(id))
	}
}
