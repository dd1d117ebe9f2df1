package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/Aashish23092/id-document-scanner/utils"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// BarcodeReader decodes a QR code printed on the document and parses its
// identity payload.
type BarcodeReader struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewBarcodeReader() *BarcodeReader {
	return &BarcodeReader{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Read returns the record carried by the document's barcode.
func (r *BarcodeReader) Read(data []byte) (dto.ExtractedRecord, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return dto.ExtractedRecord{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return r.ReadImage(img)
}

// ReadImage is Read for an already decoded image.
func (r *BarcodeReader) ReadImage(img image.Image) (dto.ExtractedRecord, error) {
	// Convert image to BinaryBitmap for QR decoding
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return dto.ExtractedRecord{}, fmt.Errorf("failed to create binary bitmap: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, r.hints)
	if err != nil {
		return dto.ExtractedRecord{}, fmt.Errorf("failed to decode QR code: %w", err)
	}

	return utils.ParseBarcodePayload(result.GetText())
}
