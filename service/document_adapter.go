package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aashish23092/id-document-scanner/client"
	"github.com/Aashish23092/id-document-scanner/config"
	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/Aashish23092/id-document-scanner/pkg/logger"
	"github.com/Aashish23092/id-document-scanner/utils"
)

// MRZScanner is the specialized document engine: text recognition plus a
// dedicated MRZ zone detector.
type MRZScanner interface {
	Scan(ctx context.Context, img []byte) (*client.MRZServiceResult, error)
	Available(ctx context.Context) bool
}

// DocumentAdapter uses the zone detector's structured fields when it found
// a zone and falls back to heuristic extraction over the recognized text.
type DocumentAdapter struct {
	scanner MRZScanner
}

func NewDocumentAdapter(scanner MRZScanner) *DocumentAdapter {
	return &DocumentAdapter{scanner: scanner}
}

func (a *DocumentAdapter) Name() string { return config.BackendPassportEye }

func (a *DocumentAdapter) Available(ctx context.Context) bool {
	return a.scanner.Available(ctx)
}

func (a *DocumentAdapter) Scan(ctx context.Context, img []byte) (dto.Candidate, error) {
	result, err := a.scanner.Scan(ctx, img)
	if err != nil {
		return dto.Candidate{}, err
	}

	raw := result.RawScanResult()
	if strings.TrimSpace(raw.Text) == "" {
		return dto.Candidate{}, fmt.Errorf("%w: mrz service recognized no text", dto.ErrLowConfidence)
	}
	logger.Debug(ctx, "ocr text recognized", "backend", a.Name(), "raw_text", raw.Text)

	var rec dto.ExtractedRecord
	if fields := zoneFields(result); fields != nil {
		rec = utils.RecordFromMRZ(*fields)
		rec.Address = dto.StringPtr(utils.ExtractAddressOutsideMRZ(raw.Lines))
	} else {
		rec = utils.ParseIDText(strings.Join(raw.Lines, "\n")).Record()
	}
	rec.RawText = raw.Text

	return dto.Candidate{Record: rec, Confidence: raw.ConfidenceScore}, nil
}

func zoneFields(result *client.MRZServiceResult) *dto.MrzFields {
	if result.MRZ == nil {
		return nil
	}
	fields := result.MRZ.Fields()
	if fields.IsEmpty() {
		return nil
	}
	return &fields
}
