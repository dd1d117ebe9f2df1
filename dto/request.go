package dto

import (
	"fmt"
	"mime/multipart"
	"strings"
)

// ScanRequest represents an identity document upload.
type ScanRequest struct {
	File *multipart.FileHeader
}

// Validate validates the scan request
func (r *ScanRequest) Validate(maxSize int64) error {
	if r.File == nil {
		return ErrFileRequired
	}
	if maxSize > 0 && r.File.Size > maxSize {
		return fmt.Errorf("file exceeds %d bytes", maxSize)
	}

	filename := strings.ToLower(r.File.Filename)
	validExtensions := []string{".pdf", ".png", ".jpg", ".jpeg", ".webp", ".bmp", ".tif", ".tiff"}
	for _, ext := range validExtensions {
		if strings.HasSuffix(filename, ext) {
			return nil
		}
	}
	return fmt.Errorf("invalid file type. Supported: PDF, PNG, JPG, WEBP, BMP, TIFF")
}
