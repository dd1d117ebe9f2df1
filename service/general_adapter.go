package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/Aashish23092/id-document-scanner/pkg/logger"
	"github.com/Aashish23092/id-document-scanner/utils"
)

// GeneralAdapter runs a general OCR engine and extracts fields from its
// text: MRZ decode when a zone is present, heuristics otherwise. An
// embedded barcode, when readable, fills fields the text left empty.
type GeneralAdapter struct {
	name    string
	engine  TextEngine
	parser  *utils.MRZParser
	barcode *BarcodeReader
}

// NewGeneralAdapter builds the adapter. barcode may be nil.
func NewGeneralAdapter(name string, engine TextEngine, parser *utils.MRZParser, barcode *BarcodeReader) *GeneralAdapter {
	return &GeneralAdapter{
		name:    name,
		engine:  engine,
		parser:  parser,
		barcode: barcode,
	}
}

func (a *GeneralAdapter) Name() string { return a.name }

func (a *GeneralAdapter) Available(ctx context.Context) bool {
	return a.engine.Available(ctx)
}

func (a *GeneralAdapter) Init(ctx context.Context) error { return a.engine.Init(ctx) }

func (a *GeneralAdapter) Close() error { return a.engine.Close() }

func (a *GeneralAdapter) Scan(ctx context.Context, img []byte) (dto.Candidate, error) {
	raw, err := a.engine.Recognize(ctx, img)
	if err != nil {
		return dto.Candidate{}, err
	}
	if strings.TrimSpace(raw.Text) == "" {
		return dto.Candidate{}, fmt.Errorf("%w: %s recognized no text", dto.ErrLowConfidence, a.name)
	}
	logger.Debug(ctx, "ocr text recognized", "backend", a.name, "raw_text", raw.Text)

	rec := utils.ExtractRecord(ctx, raw, a.parser)

	if a.barcode != nil {
		if fromBarcode, err := a.barcode.Read(img); err == nil {
			rec.FillMissing(&fromBarcode)
		} else {
			logger.Debug(ctx, "no usable barcode", "backend", a.name, "error", err)
		}
	}

	return dto.Candidate{Record: rec, Confidence: raw.ConfidenceScore}, nil
}
