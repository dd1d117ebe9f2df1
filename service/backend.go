package service

import (
	"context"

	"github.com/Aashish23092/id-document-scanner/dto"
)

// Backend is one OCR backend in the fallback chain.
type Backend interface {
	// Name is the provenance tag for records this backend produces.
	Name() string
	// Available is the cheap check consulted before every attempt.
	Available(ctx context.Context) bool
	// Scan recognizes one encoded image. A returned candidate always has
	// non-empty RawText.
	Scan(ctx context.Context, img []byte) (dto.Candidate, error)
}

// Lifecycle is implemented by backends that own engine handles.
type Lifecycle interface {
	Init(ctx context.Context) error
	Close() error
}

// TextEngine is a general-purpose OCR engine (Tesseract, Cloud Vision).
type TextEngine interface {
	Lifecycle
	Available(ctx context.Context) bool
	Recognize(ctx context.Context, img []byte) (dto.RawScanResult, error)
}
