package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Aashish23092/id-document-scanner/dto"
)

// MRZServiceClient talks to the EasyOCR + PassportEye sidecar over HTTP.
type MRZServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

// MRZServiceLine is one recognized text region; confidence is 0-1.
type MRZServiceLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// PassportEyeMRZ is the zone PassportEye decoded. Dates are YYMMDD.
type PassportEyeMRZ struct {
	MRZType        string `json:"mrz_type"`
	ValidScore     int    `json:"valid_score"`
	Type           string `json:"type"`
	Country        string `json:"country"`
	Number         string `json:"number"`
	DateOfBirth    string `json:"date_of_birth"`
	ExpirationDate string `json:"expiration_date"`
	Nationality    string `json:"nationality"`
	Sex            string `json:"sex"`
	Names          string `json:"names"`
	Surname        string `json:"surname"`
	ValidComposite bool   `json:"valid_composite"`
}

// MRZServiceResult is the /ocr response body.
type MRZServiceResult struct {
	Success    bool             `json:"success"`
	RawText    string           `json:"raw_text"`
	Lines      []MRZServiceLine `json:"lines"`
	Confidence float64          `json:"confidence"` // 0-100
	MRZ        *PassportEyeMRZ  `json:"mrz"`
}

// MRZServiceHealth is the /health response body.
type MRZServiceHealth struct {
	Status      string `json:"status"`
	EasyOCR     bool   `json:"easyocr"`
	PassportEye bool   `json:"passporteye"`
}

func NewMRZServiceClient(baseURL string, httpClient *http.Client) *MRZServiceClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &MRZServiceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Scan posts the image as multipart field "image".
func (c *MRZServiceClient) Scan(ctx context.Context, img []byte) (*MRZServiceResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: mrz service url not configured", dto.ErrEngineUnavailable)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "document")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(img); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call mrz service: %v", dto.ErrEngineCallFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: mrz service returned status %d: %s", dto.ErrEngineCallFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result MRZServiceResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode mrz service response: %v", dto.ErrEngineCallFailed, err)
	}

	slog.Debug("mrz service responded", "lines", len(result.Lines), "mrz", result.MRZ != nil)
	return &result, nil
}

// Health queries the sidecar's health endpoint.
func (c *MRZServiceClient) Health(ctx context.Context) (*MRZServiceHealth, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: mrz service url not configured", dto.ErrEngineUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: health returned status %d", dto.ErrEngineUnavailable, resp.StatusCode)
	}

	var health MRZServiceHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

// Available reports whether the sidecar answers its health check.
func (c *MRZServiceClient) Available(ctx context.Context) bool {
	health, err := c.Health(ctx)
	return err == nil && health.Status == "ok"
}

// RawScanResult converts the sidecar text output.
func (r *MRZServiceResult) RawScanResult() dto.RawScanResult {
	raw := dto.RawScanResult{Text: r.RawText}
	for _, l := range r.Lines {
		if t := strings.TrimSpace(l.Text); t != "" {
			raw.Lines = append(raw.Lines, t)
		}
	}
	if len(r.Lines) > 0 {
		conf := r.Confidence
		raw.ConfidenceScore = &conf
	}
	if raw.Text == "" && len(raw.Lines) > 0 {
		raw.Text = strings.Join(raw.Lines, "\n")
	}
	return raw
}

// Fields converts PassportEye output to MRZ fields. The issuing state comes
// from "country".
func (m *PassportEyeMRZ) Fields() dto.MrzFields {
	return dto.MrzFields{
		Surname:        cleanFiller(m.Surname),
		GivenNames:     cleanFiller(m.Names),
		DocumentNumber: strings.ReplaceAll(strings.TrimSpace(m.Number), "<", ""),
		BirthDate:      strings.TrimSpace(m.DateOfBirth),
		IssuingState:   strings.ReplaceAll(strings.TrimSpace(m.Country), "<", ""),
		Nationality:    strings.ReplaceAll(strings.TrimSpace(m.Nationality), "<", ""),
		Valid:          m.ValidComposite || m.ValidScore >= 100,
	}
}

func cleanFiller(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "<", " ")), " ")
}
