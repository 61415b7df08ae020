package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"osintrecon/internal/dao"
	"osintrecon/internal/models"
	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/logger"
	"osintrecon/pkg/tools"

	"github.com/google/uuid"
)

// ScanRequest is a validated request to start a scan. Limit and Sources only
// apply to tools whose catalog entry maps them.
type ScanRequest struct {
	Domain  string
	Tool    tools.ScanTool
	Limit   int
	Sources string
}

type ScanServiceMethods interface {
	InitiateScan(req ScanRequest) (*models.Scan, error)
	GetAllScans() ([]models.Scan, error)
	GetScanByID(id string) (*models.Scan, error)
	DeleteAllScans() error
}

// Dispatcher runs work in the background. engine.Queue is the production
// implementation.
type Dispatcher interface {
	Submit(fn func() error) error
}

type scanService struct {
	scanDao    dao.ScanDAO
	executor   *ScanExecutor
	dispatcher Dispatcher
	logger     *logger.Logger
	now        func() time.Time
	newID      func() string
}

func NewScanService(scanDao dao.ScanDAO, executor *ScanExecutor, dispatcher Dispatcher) ScanServiceMethods {
	return &scanService{
		scanDao:    scanDao,
		executor:   executor,
		dispatcher: dispatcher,
		logger:     executor.logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.New().String() },
	}
}

// InitiateScan persists a RUNNING scan, hands it to the dispatcher and
// returns without waiting for the tool.
func (s *scanService) InitiateScan(req ScanRequest) (*models.Scan, error) {
	domain := strings.TrimSpace(req.Domain)
	if domain == "" {
		return nil, apperrors.ErrBlankDomain
	}
	if !req.Tool.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownTool, req.Tool)
	}

	scan := models.NewScan(s.newID(), domain, req.Tool, s.now())
	if err := s.scanDao.SaveScan(scan); err != nil {
		s.logger.WithError(err).WithField("domain", domain).Error("SaveScan failed")
		return nil, fmt.Errorf("save scan: %w", err)
	}

	s.logger.WithScan(scan.ID, scan.Tool.String()).WithField("domain", domain).Info("Scan created")

	opts := tools.Options{Domain: domain, Limit: req.Limit, Sources: req.Sources}
	scanID := scan.ID
	err := s.dispatcher.Submit(func() error {
		return s.executor.Execute(context.Background(), scanID, opts)
	})
	if err != nil {
		// the record must not stay RUNNING when nothing will ever execute it
		s.logger.WithError(err).WithField("scan_id", scanID).Error("Failed to dispatch scan")
		if markErr := s.executor.status.MarkFailed(scan, fmt.Sprintf("scan could not be scheduled: %v", err)); markErr != nil {
			s.logger.WithError(markErr).WithField("scan_id", scanID).Error("Failed to mark undispatched scan")
		}
	}

	return scan, nil
}

func (s *scanService) GetAllScans() ([]models.Scan, error) {
	return s.scanDao.ListScans()
}

func (s *scanService) GetScanByID(id string) (*models.Scan, error) {
	return s.scanDao.GetScanByID(id)
}

func (s *scanService) DeleteAllScans() error {
	if err := s.scanDao.DeleteAllScans(); err != nil {
		return err
	}
	s.logger.Info("Scan history cleared")
	return nil
}
