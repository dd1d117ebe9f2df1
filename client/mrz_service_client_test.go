package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sidecarResponse = `{
	"success": true,
	"raw_text": "PASSPORT\nP<UTOERIKSSON<<ANNA<MARIA",
	"lines": [{"text": "PASSPORT", "confidence": 0.98}, {"text": "P<UTOERIKSSON<<ANNA<MARIA", "confidence": 0.71}],
	"confidence": 84.5,
	"mrz": {"mrz_type": "TD3", "valid_score": 100, "country": "UTO", "number": "L898902C3",
		"date_of_birth": "740812", "nationality": "UTO", "names": "ANNA MARIA", "surname": "ERIKSSON",
		"valid_composite": true}
}`

func TestMRZServiceClientScan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ocr", r.URL.Path)

		file, _, err := r.FormFile("image")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte("image-bytes"), data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sidecarResponse))
	}))
	defer server.Close()

	c := NewMRZServiceClient(server.URL+"/", nil)
	result, err := c.Scan(context.Background(), []byte("image-bytes"))
	require.NoError(t, err)

	raw := result.RawScanResult()
	assert.Equal(t, []string{"PASSPORT", "P<UTOERIKSSON<<ANNA<MARIA"}, raw.Lines)
	require.NotNil(t, raw.ConfidenceScore)
	assert.Equal(t, 84.5, *raw.ConfidenceScore)

	require.NotNil(t, result.MRZ)
	fields := result.MRZ.Fields()
	assert.Equal(t, "ERIKSSON", fields.Surname)
	assert.Equal(t, "ANNA MARIA", fields.GivenNames)
	assert.Equal(t, "L898902C3", fields.DocumentNumber)
	assert.Equal(t, "740812", fields.BirthDate)
	assert.Equal(t, "UTO", fields.IssuingState)
	assert.True(t, fields.Valid)
}

func TestMRZServiceClientScanErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "No image provided"}`))
	}))
	defer server.Close()

	_, err := NewMRZServiceClient(server.URL, nil).Scan(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, dto.ErrEngineCallFailed)
	assert.Contains(t, err.Error(), "400")

	_, err = NewMRZServiceClient("", nil).Scan(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, dto.ErrEngineUnavailable)
}

func TestMRZServiceClientScanHonorsContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewMRZServiceClient(server.URL, nil).Scan(ctx, []byte("x"))
	assert.ErrorIs(t, err, dto.ErrEngineCallFailed)
}

func TestMRZServiceClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": "ok", "easyocr": true, "passporteye": false}`))
	}))
	defer server.Close()

	c := NewMRZServiceClient(server.URL, nil)
	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, health.EasyOCR)
	assert.False(t, health.PassportEye)
	assert.True(t, c.Available(context.Background()))

	server.Close()
	assert.False(t, c.Available(context.Background()))
}

func TestMRZServiceResultWithoutLines(t *testing.T) {
	raw := (&MRZServiceResult{}).RawScanResult()
	assert.Nil(t, raw.ConfidenceScore)
	assert.Empty(t, raw.Text)
}
