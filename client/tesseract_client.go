package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/otiai10/gosseract/v2"
)

// TesseractClient owns one gosseract client for the process. Tesseract's
// API handle is not safe for concurrent use, so recognition is serialized.
type TesseractClient struct {
	dataPath string
	language string

	mu     sync.Mutex
	client *gosseract.Client
}

func NewTesseractClient(dataPath, language string) *TesseractClient {
	if language == "" {
		language = "eng"
	}
	return &TesseractClient{
		dataPath: dataPath,
		language: language,
	}
}

// Init creates the underlying engine handle.
func (tc *TesseractClient) Init(ctx context.Context) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.client != nil {
		return nil
	}

	client := gosseract.NewClient()
	if tc.dataPath != "" {
		if err := client.SetTessdataPrefix(tc.dataPath); err != nil {
			client.Close()
			return fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(tc.language); err != nil {
		client.Close()
		return fmt.Errorf("failed to set language: %w", err)
	}

	tc.client = client
	slog.Info("tesseract client initialized", "version", gosseract.Version(), "language", tc.language)
	return nil
}

// Available reports whether Init succeeded and Close has not run.
func (tc *TesseractClient) Available(ctx context.Context) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.client != nil
}

// Recognize extracts text and the average word confidence (0-100) from an
// encoded image.
func (tc *TesseractClient) Recognize(ctx context.Context, img []byte) (dto.RawScanResult, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.client == nil {
		return dto.RawScanResult{}, fmt.Errorf("%w: tesseract client not initialized", dto.ErrEngineUnavailable)
	}
	// the lock may have been held for a while
	if err := ctx.Err(); err != nil {
		return dto.RawScanResult{}, fmt.Errorf("%w: %v", dto.ErrEngineCallFailed, err)
	}

	if err := tc.client.SetImageFromBytes(img); err != nil {
		return dto.RawScanResult{}, fmt.Errorf("%w: failed to set image: %v", dto.ErrEngineCallFailed, err)
	}

	text, err := tc.client.Text()
	if err != nil {
		return dto.RawScanResult{}, fmt.Errorf("%w: failed to extract text: %v", dto.ErrEngineCallFailed, err)
	}

	result := dto.RawScanResult{
		Text:  text,
		Lines: splitLines(text),
	}

	// Get bounding boxes to calculate confidence
	boxes, err := tc.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		slog.Debug("tesseract bounding boxes unavailable", "error", err)
		return result, nil
	}
	result.ConfidenceScore = averageConfidence(boxes)

	return result, nil
}

// Close releases the engine handle.
func (tc *TesseractClient) Close() error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.client == nil {
		return nil
	}
	err := tc.client.Close()
	tc.client = nil
	slog.Info("tesseract client closed")
	return err
}

func averageConfidence(boxes []gosseract.BoundingBox) *float64 {
	if len(boxes) == 0 {
		return nil
	}
	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	avg := total / float64(len(boxes))
	return &avg
}

// splitLines returns the trimmed, non-empty lines of text.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
