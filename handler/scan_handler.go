package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/Aashish23092/id-document-scanner/middleware"
	"github.com/Aashish23092/id-document-scanner/pkg/logger"
	"github.com/Aashish23092/id-document-scanner/service"
	"github.com/gin-gonic/gin"
)

// DocumentScanner is the part of the scan service the handler needs.
type DocumentScanner interface {
	Scan(ctx context.Context, img []byte) (*service.ScanResult, error)
	Status(ctx context.Context) []dto.BackendStatus
}

// ScanHandler handles identity document scan requests
type ScanHandler struct {
	scanner      DocumentScanner
	pdfProcessor service.PDFProcessor
	maxFileSize  int64
}

// NewScanHandler creates a new ScanHandler instance
func NewScanHandler(scanner DocumentScanner, pdfProcessor service.PDFProcessor, maxFileSize int64) *ScanHandler {
	return &ScanHandler{
		scanner:      scanner,
		pdfProcessor: pdfProcessor,
		maxFileSize:  maxFileSize,
	}
}

// Scan handles the POST /api/v1/scan endpoint
func (h *ScanHandler) Scan(c *gin.Context) {
	ctx := c.Request.Context()

	file, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "A document file is required", dto.ErrFileRequired)
		return
	}

	req := dto.ScanRequest{File: file}
	if err := req.Validate(h.maxFileSize); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), err)
		return
	}

	reader, err := file.Open()
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to open uploaded file", err)
		return
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read uploaded file", err)
		return
	}

	logger.Info(ctx, "processing document", "filename", file.Filename, "size", len(data))

	img := data
	if isPDF(file.Filename, file.Header.Get("Content-Type"), data) {
		images, err := h.pdfProcessor.ExtractImages(data, c.PostForm("password"), "1")
		if err != nil {
			h.sendError(c, http.StatusUnprocessableEntity, "PDF_PROCESSING_FAILED", "Failed to extract page image from PDF", err)
			return
		}
		if len(images) == 0 {
			h.sendError(c, http.StatusUnprocessableEntity, "PDF_PROCESSING_FAILED", "PDF first page has no scannable image", nil)
			return
		}
		img = images[0]
	}

	result, err := h.scanner.Scan(ctx, img)
	if err != nil {
		if errors.Is(err, dto.ErrAllBackendsExhausted) {
			// attempt details stay in the logs
			h.sendError(c, http.StatusUnprocessableEntity, "SCAN_FAILED", "No OCR backend could read the document", nil)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Document scan failed", err)
		return
	}

	c.Set(middleware.ProvenanceKey, result.Provenance)
	c.JSON(http.StatusOK, dto.NewScanResponse(result.Record, result.Provenance))
}

// Backends handles the GET /api/v1/backends endpoint
func (h *ScanHandler) Backends(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"backends": h.scanner.Status(c.Request.Context())})
}

// Health handles the GET /health endpoint
func (h *ScanHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ID Document Scanner",
	})
}

// sendError sends a structured error response
func (h *ScanHandler) sendError(c *gin.Context, statusCode int, code, message string, err error) {
	if err != nil {
		logger.Warn(c.Request.Context(), "request failed", "error_code", code, "error", err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    statusCode,
	})
}

func isPDF(filename, contentType string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") || contentType == "application/pdf" {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
