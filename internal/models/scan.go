package models

import (
	"fmt"
	"time"

	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/tools"
)

type ScanStatus string

const (
	StatusRunning   ScanStatus = "RUNNING"
	StatusCompleted ScanStatus = "COMPLETED"
	StatusFailed    ScanStatus = "FAILED"
)

type Scan struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Domain       string         `gorm:"not null" json:"domain"`
	Tool         tools.ScanTool `gorm:"type:varchar(32);not null" json:"tool"`
	StartTime    time.Time      `gorm:"index;not null" json:"startTime"`
	EndTime      *time.Time     `json:"endTime"`
	Status       ScanStatus     `gorm:"type:varchar(16);index;not null" json:"status"`
	Results      *string        `gorm:"type:text" json:"results"`
	ErrorMessage *string        `gorm:"type:text" json:"errorMessage"`
}

// NewScan returns a RUNNING scan started at the given time.
func NewScan(id, domain string, tool tools.ScanTool, startedAt time.Time) *Scan {
	return &Scan{
		ID:        id,
		Domain:    domain,
		Tool:      tool,
		StartTime: startedAt,
		Status:    StatusRunning,
	}
}

func (s *Scan) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Complete moves a RUNNING scan to COMPLETED.
func (s *Scan) Complete(results string, at time.Time) error {
	if s.Status != StatusRunning {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, s.Status, StatusCompleted)
	}
	s.Status = StatusCompleted
	s.EndTime = &at
	s.Results = &results
	s.ErrorMessage = nil
	return nil
}

// Fail moves a RUNNING scan to FAILED. FAILED is terminal.
func (s *Scan) Fail(message string, at time.Time) error {
	if s.Status != StatusRunning {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, s.Status, StatusFailed)
	}
	if message == "" {
		message = "scan failed"
	}
	s.Status = StatusFailed
	s.EndTime = &at
	s.ErrorMessage = &message
	s.Results = nil
	return nil
}

// CheckInvariants reports the first field that disagrees with the status.
func (s *Scan) CheckInvariants() error {
	switch s.Status {
	case StatusRunning:
		if s.EndTime != nil || s.Results != nil || s.ErrorMessage != nil {
			return fmt.Errorf("running scan %s has terminal fields set", s.ID)
		}
	case StatusCompleted:
		if s.EndTime == nil || s.Results == nil || s.ErrorMessage != nil {
			return fmt.Errorf("completed scan %s needs endTime and results only", s.ID)
		}
	case StatusFailed:
		if s.EndTime == nil || s.ErrorMessage == nil || s.Results != nil {
			return fmt.Errorf("failed scan %s needs endTime and errorMessage only", s.ID)
		}
	default:
		return fmt.Errorf("scan %s has unknown status %q", s.ID, s.Status)
	}
	return nil
}
