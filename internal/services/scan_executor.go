package services

import (
	"context"
	"fmt"
	"time"

	"osintrecon/internal/dao"
	"osintrecon/internal/models"
	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/logger"
	"osintrecon/pkg/parsers"
	"osintrecon/pkg/runner"
	"osintrecon/pkg/tools"

	"github.com/sirupsen/logrus"
)

// Notifier is told about every scan that reaches a terminal state.
type Notifier interface {
	NotifyScanFinished(scan *models.Scan) error
}

// ScanExecutor runs one attempt of a scan and records its terminal state.
type ScanExecutor struct {
	scanDao  dao.ScanDAO
	runner   runner.ContainerRunner
	catalog  *tools.Catalog
	status   *ScanStatusManager
	notifier Notifier
	logger   *logger.Logger
}

type ExecutorOptFunc func(*ScanExecutor)

func WithNotifier(n Notifier) ExecutorOptFunc {
	return func(e *ScanExecutor) {
		e.notifier = n
	}
}

func WithExecutorLogger(l *logger.Logger) ExecutorOptFunc {
	return func(e *ScanExecutor) {
		e.logger = l
	}
}

// WithClock replaces time.Now for terminal timestamps.
func WithClock(now func() time.Time) ExecutorOptFunc {
	return func(e *ScanExecutor) {
		e.status.now = now
	}
}

func NewScanExecutor(scanDao dao.ScanDAO, r runner.ContainerRunner, catalog *tools.Catalog, opts ...ExecutorOptFunc) *ScanExecutor {
	e := &ScanExecutor{
		scanDao: scanDao,
		runner:  r,
		catalog: catalog,
		logger:  logger.Default(),
	}
	e.status = newScanStatusManager(scanDao, e.logger, func() time.Time { return time.Now().UTC() })
	for _, opt := range opts {
		opt(e)
	}
	e.status.logger = e.logger
	return e
}

// Execute drives a RUNNING scan to COMPLETED or FAILED. The returned error is
// about bookkeeping only; tool failures end up in the record.
func (e *ScanExecutor) Execute(ctx context.Context, scanID string, opts tools.Options) error {
	scan, err := e.scanDao.GetScanByID(scanID)
	if err != nil {
		e.logger.WithError(err).WithField("scan_id", scanID).Error("Executor invoked for a scan that cannot be loaded")
		return fmt.Errorf("load scan %s: %w", scanID, err)
	}
	if scan.Status != models.StatusRunning {
		return fmt.Errorf("%w: scan %s is already %s", apperrors.ErrInvalidTransition, scan.ID, scan.Status)
	}

	entry := e.logger.WithScan(scan.ID, scan.Tool.String()).WithField("domain", scan.Domain)
	entry.Info("Starting scan execution")

	results, runErr := e.run(ctx, entry, scan, opts)
	if runErr != nil {
		entry.WithError(runErr).Error("Scan execution failed")
		err = e.status.MarkFailed(scan, runErr.Error())
	} else {
		entry.Info("Scan completed successfully")
		err = e.status.MarkCompleted(scan, results)
	}
	if err != nil {
		entry.WithError(err).Error("Failed to finalize scan")
		return err
	}

	e.notify(entry, scan)
	return nil
}

// run returns the serialized findings. Panics are turned into errors so a
// single bad scan cannot take the worker down.
func (e *ScanExecutor) run(ctx context.Context, entry *logrus.Entry, scan *models.Scan, opts tools.Options) (results string, err error) {
	defer func() {
		if r := recover(); r != nil {
			entry.WithField("panic", r).Error("panic in background scan")
			results = ""
			err = fmt.Errorf("panic during scan execution: %v", r)
		}
	}()

	opts.Domain = scan.Domain
	invocation, err := e.catalog.Invocation(scan.Tool, opts)
	if err != nil {
		return "", err
	}

	entry.WithFields(logrus.Fields{
		"image": invocation.Image,
		"args":  invocation.Args,
	}).Debug("Running tool container")

	output, err := e.runner.Run(ctx, runner.Request{
		Image:      invocation.Image,
		Args:       invocation.Args,
		Entrypoint: invocation.Entrypoint,
		Labels: map[string]string{
			"osintrecon.scan-id": scan.ID,
			"osintrecon.tool":    scan.Tool.String(),
		},
	})
	if err != nil {
		return "", err
	}

	findings, err := parsers.Parse(scan.Tool, output)
	if err != nil {
		return "", err
	}

	entry.WithFields(logrus.Fields{
		"emails":     len(findings.Emails),
		"hosts":      len(findings.Hosts),
		"subdomains": len(findings.Subdomains),
		"ips":        len(findings.IPs),
	}).Info("Parsed tool output")

	return findings.JSON()
}

func (e *ScanExecutor) notify(entry *logrus.Entry, scan *models.Scan) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyScanFinished(scan); err != nil {
		entry.WithError(err).Warn("Scan notification failed")
	}
}
