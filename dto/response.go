package dto

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEngineUnavailable means the engine is not initialized or its
	// credential context is missing.
	ErrEngineUnavailable = errors.New("engine unavailable")
	// ErrEngineCallFailed covers timeouts, transport errors and non-success
	// statuses from a backend call.
	ErrEngineCallFailed = errors.New("engine call failed")
	// ErrLowConfidence means the quality gate rejected the candidate.
	ErrLowConfidence = errors.New("low confidence")
	// ErrDecoderUnavailable means the structured MRZ decoder could not be
	// loaded; manual decode substitutes.
	ErrDecoderUnavailable = errors.New("structured MRZ decoder unavailable")
	// ErrAllBackendsExhausted is the only failure surfaced to callers.
	ErrAllBackendsExhausted = errors.New("all backends exhausted")
	// ErrFileRequired is returned for scan requests without an upload.
	ErrFileRequired = errors.New("file is required")
)

// ExhaustedError is returned when no backend produced an acceptable record.
// Attempts are kept for logging and are not rendered to clients.
type ExhaustedError struct {
	Attempts []BackendAttempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Backend, a.Err))
	}
	if len(parts) == 0 {
		return ErrAllBackendsExhausted.Error() + " (no backends configured)"
	}
	return ErrAllBackendsExhausted.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ExhaustedError) Unwrap() error { return ErrAllBackendsExhausted }

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ScanResponse is the record returned for a successful scan.
type ScanResponse struct {
	Name        *string `json:"name"`
	DateOfBirth *string `json:"date_of_birth"`
	Address     *string `json:"address"`
	IDNumber    *string `json:"id_number"`
	State       *string `json:"state"`
	RawText     string  `json:"raw_text"`
	Provenance  string  `json:"provenance"`
}

// NewScanResponse tags a record with the backend that produced it.
func NewScanResponse(rec ExtractedRecord, provenance string) *ScanResponse {
	return &ScanResponse{
		Name:        rec.Name,
		DateOfBirth: rec.DateOfBirth,
		Address:     rec.Address,
		IDNumber:    rec.IDNumber,
		State:       rec.State,
		RawText:     rec.RawText,
		Provenance:  provenance,
	}
}

// BackendStatus is one entry of the availability report.
type BackendStatus struct {
	Backend   string `json:"backend"`
	Priority  int    `json:"priority"`
	Available bool   `json:"available"`
}
