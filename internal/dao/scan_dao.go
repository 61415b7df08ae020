package dao

import (
	"errors"
	"fmt"

	"osintrecon/internal/models"
	apperrors "osintrecon/pkg/errors"

	"gorm.io/gorm"
)

type ScanDAO interface {
	SaveScan(scan *models.Scan) error
	GetScanByID(id string) (*models.Scan, error)
	// ListScans returns every scan, newest start time first.
	ListScans() ([]models.Scan, error)
	UpdateScan(scan *models.Scan) error
	DeleteAllScans() error
}

type scanDAO struct {
	db *gorm.DB
}

func NewScanDAO(db *gorm.DB) ScanDAO {
	return &scanDAO{db: db}
}

func (dao *scanDAO) SaveScan(scan *models.Scan) error {
	return dao.db.Create(scan).Error
}

// UpdateScan writes every column of an existing scan.
func (dao *scanDAO) UpdateScan(scan *models.Scan) error {
	result := dao.db.Model(scan).Select("*").Updates(scan)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrScanNotFound, scan.ID)
	}
	return nil
}

func (dao *scanDAO) GetScanByID(id string) (*models.Scan, error) {
	var scan models.Scan
	if err := dao.db.Where("id = ?", id).First(&scan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrScanNotFound, id)
		}
		return nil, err
	}
	return &scan, nil
}

func (dao *scanDAO) ListScans() ([]models.Scan, error) {
	var scans []models.Scan
	if err := dao.db.Order("start_time desc").Order("id asc").Find(&scans).Error; err != nil {
		return nil, err
	}
	return scans, nil
}

func (dao *scanDAO) DeleteAllScans() error {
	return dao.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Scan{}).Error
}
