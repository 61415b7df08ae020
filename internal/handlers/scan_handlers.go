package handlers

import (
	"errors"
	"net/http"
	"strings"

	"osintrecon/internal/models"
	"osintrecon/internal/services"
	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/logger"
	"osintrecon/pkg/tools"

	"github.com/gin-gonic/gin"
)

type ScanHandler struct {
	scanService services.ScanServiceMethods
	logger      *logger.Logger
}

func NewScanHandler(scanService services.ScanServiceMethods) *ScanHandler {
	return &ScanHandler{scanService: scanService, logger: logger.Default()}
}

func (h *ScanHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "UP",
		Message: "OSINT reconnaissance API is running",
		Endpoints: map[string]string{
			"scans": "/api/scans",
			"tools": "/api/tools",
		},
	})
}

// StartScan validates the request before any record exists; the scan itself
// runs in the background.
func (h *ScanHandler) StartScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Debug("Failed to bind scan request")
		respondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if strings.TrimSpace(req.Domain) == "" {
		respondError(c, http.StatusBadRequest, apperrors.ErrBlankDomain.Error())
		return
	}

	tool, err := tools.ParseScanTool(req.Tool)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	scanReq := services.ScanRequest{
		Domain:  req.Domain,
		Tool:    tool,
		Sources: req.Sources,
	}
	if req.Limit != nil {
		scanReq.Limit = *req.Limit
	}

	scan, err := h.scanService.InitiateScan(scanReq)
	if err != nil {
		if errors.Is(err, apperrors.ErrBlankDomain) || errors.Is(err, apperrors.ErrUnknownTool) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to start scan")
		respondError(c, http.StatusInternalServerError, "Failed to start scan")
		return
	}

	c.JSON(http.StatusCreated, scan)
}

func (h *ScanHandler) ListScans(c *gin.Context) {
	scans, err := h.scanService.GetAllScans()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list scans")
		respondError(c, http.StatusInternalServerError, "Failed to list scans")
		return
	}
	if scans == nil {
		scans = []models.Scan{}
	}
	c.JSON(http.StatusOK, scans)
}

func (h *ScanHandler) GetScanByID(c *gin.Context) {
	scanID := c.Param("id")
	scan, err := h.scanService.GetScanByID(scanID)
	if errors.Is(err, apperrors.ErrScanNotFound) || (err == nil && scan == nil) {
		respondError(c, http.StatusNotFound, "Scan not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("scan_id", scanID).Error("Failed to get scan")
		respondError(c, http.StatusInternalServerError, "Failed to get scan")
		return
	}
	c.JSON(http.StatusOK, scan)
}

func (h *ScanHandler) DeleteAllScans(c *gin.Context) {
	if err := h.scanService.DeleteAllScans(); err != nil {
		h.logger.WithError(err).Error("Failed to clear scan history")
		respondError(c, http.StatusInternalServerError, "Failed to clear scan history")
		return
	}
	c.Status(http.StatusNoContent)
}
