package services

import (
	"fmt"
	"time"

	"osintrecon/internal/dao"
	"osintrecon/internal/models"
	"osintrecon/pkg/logger"
)

// ScanStatusManager applies terminal transitions and persists them. Each call
// performs exactly one repository write.
type ScanStatusManager struct {
	scanDao dao.ScanDAO
	logger  *logger.Logger
	now     func() time.Time
}

func newScanStatusManager(scanDao dao.ScanDAO, log *logger.Logger, now func() time.Time) *ScanStatusManager {
	return &ScanStatusManager{
		scanDao: scanDao,
		logger:  log,
		now:     now,
	}
}

func (m *ScanStatusManager) MarkCompleted(scan *models.Scan, results string) error {
	if err := scan.Complete(results, m.now()); err != nil {
		return err
	}
	if err := m.persist(scan); err != nil {
		return fmt.Errorf("persist scan completion: %w", err)
	}
	return nil
}

func (m *ScanStatusManager) MarkFailed(scan *models.Scan, reason string) error {
	if err := scan.Fail(reason, m.now()); err != nil {
		return err
	}
	if err := m.persist(scan); err != nil {
		return fmt.Errorf("persist failed scan status: %w", err)
	}

	m.logger.WithScan(scan.ID, scan.Tool.String()).WithField("reason", reason).Warn("Scan marked as failed")
	return nil
}

func (m *ScanStatusManager) persist(scan *models.Scan) error {
	if err := scan.CheckInvariants(); err != nil {
		return err
	}
	return m.scanDao.UpdateScan(scan)
}
