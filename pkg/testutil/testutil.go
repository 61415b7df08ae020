// Package testutil provides testing utilities for the osintrecon application
package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"osintrecon/internal/models"
	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/runner"
)

// FakeRunner implements runner.ContainerRunner for testing
type FakeRunner struct {
	mu        sync.RWMutex
	requests  []runner.Request
	responses map[string]RunResponse
	fallback  RunResponse
}

// RunResponse is what FakeRunner returns for one image.
type RunResponse struct {
	Output string
	Error  error
	Delay  time.Duration
	// Panic makes Run panic with this value
	Panic interface{}
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]RunResponse),
	}
}

func (f *FakeRunner) Run(ctx context.Context, req runner.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	response, exists := f.responses[req.Image]
	if !exists {
		response = f.fallback
	}
	f.mu.Unlock()

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if response.Panic != nil {
		panic(response.Panic)
	}
	return response.Output, response.Error
}

// SetResponse configures the result for runs of image.
func (f *FakeRunner) SetResponse(image string, response RunResponse) {
	f.mu.Lock()
	f.responses[image] = response
	f.mu.Unlock()
}

// SetDefault configures the result for images without a specific response.
func (f *FakeRunner) SetDefault(response RunResponse) {
	f.mu.Lock()
	f.fallback = response
	f.mu.Unlock()
}

func (f *FakeRunner) Requests() []runner.Request {
	f.mu.RLock()
	defer f.mu.RUnlock()

	requests := make([]runner.Request, len(f.requests))
	copy(requests, f.requests)
	return requests
}

// MemoryScanDAO is an in-memory dao.ScanDAO that counts writes per scan.
type MemoryScanDAO struct {
	mu      sync.Mutex
	scans   map[string]models.Scan
	updates map[string]int
	saves   int
	// UpdateErr, when set, is returned by every UpdateScan call
	UpdateErr error
}

func NewMemoryScanDAO() *MemoryScanDAO {
	return &MemoryScanDAO{
		scans:   make(map[string]models.Scan),
		updates: make(map[string]int),
	}
}

func (d *MemoryScanDAO) SaveScan(scan *models.Scan) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.scans[scan.ID]; exists {
		return fmt.Errorf("scan %s already exists", scan.ID)
	}
	d.scans[scan.ID] = copyScan(*scan)
	d.saves++
	return nil
}

func (d *MemoryScanDAO) GetScanByID(id string) (*models.Scan, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	scan, ok := d.scans[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrScanNotFound, id)
	}
	out := copyScan(scan)
	return &out, nil
}

func (d *MemoryScanDAO) ListScans() ([]models.Scan, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	scans := make([]models.Scan, 0, len(d.scans))
	for _, s := range d.scans {
		scans = append(scans, copyScan(s))
	}
	sort.Slice(scans, func(i, j int) bool {
		if !scans[i].StartTime.Equal(scans[j].StartTime) {
			return scans[i].StartTime.After(scans[j].StartTime)
		}
		return scans[i].ID < scans[j].ID
	})
	return scans, nil
}

func (d *MemoryScanDAO) UpdateScan(scan *models.Scan) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.UpdateErr != nil {
		return d.UpdateErr
	}
	if _, ok := d.scans[scan.ID]; !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrScanNotFound, scan.ID)
	}
	d.scans[scan.ID] = copyScan(*scan)
	d.updates[scan.ID]++
	return nil
}

func (d *MemoryScanDAO) DeleteAllScans() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scans = make(map[string]models.Scan)
	return nil
}

// Updates returns how many times UpdateScan succeeded for id.
func (d *MemoryScanDAO) Updates(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updates[id]
}

// Saves returns how many scans were created.
func (d *MemoryScanDAO) Saves() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saves
}

func copyScan(s models.Scan) models.Scan {
	if s.EndTime != nil {
		end := *s.EndTime
		s.EndTime = &end
	}
	if s.Results != nil {
		results := *s.Results
		s.Results = &results
	}
	if s.ErrorMessage != nil {
		msg := *s.ErrorMessage
		s.ErrorMessage = &msg
	}
	return s
}

// CreateTestFile creates a test file with the given content
func CreateTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filePath, err)
	}

	return filePath
}

// CaptureOutput captures stdout/stderr during test execution
func CaptureOutput(t *testing.T, fn func()) (string, string) {
	t.Helper()

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stdout pipe: %v", err)
	}
	defer stdoutR.Close()

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stderr pipe: %v", err)
	}
	defer stderrR.Close()

	origStdout := os.Stdout
	origStderr := os.Stderr
	os.Stdout = stdoutW
	os.Stderr = stderrW

	stdoutC := make(chan string, 1)
	stderrC := make(chan string, 1)

	go func() {
		buf, _ := io.ReadAll(stdoutR)
		stdoutC <- string(buf)
	}()

	go func() {
		buf, _ := io.ReadAll(stderrR)
		stderrC <- string(buf)
	}()

	defer func() {
		os.Stdout = origStdout
		os.Stderr = origStderr
	}()
	fn()

	// closing the writers signals EOF to the readers
	stdoutW.Close()
	stderrW.Close()

	return <-stdoutC, <-stderrC
}

// WithTimeout creates a context with timeout for tests
func WithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}
