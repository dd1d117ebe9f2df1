package client

import (
	"context"
	"errors"
	"testing"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/textract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTextract struct {
	out   *textract.AnalyzeIDOutput
	err   error
	input *textract.AnalyzeIDInput
}

func (f *fakeTextract) AnalyzeIDWithContext(ctx aws.Context, input *textract.AnalyzeIDInput, opts ...request.Option) (*textract.AnalyzeIDOutput, error) {
	f.input = input
	return f.out, f.err
}

func idField(fieldType, text, normalized string, conf float64) *textract.IdentityDocumentField {
	det := &textract.AnalyzeIDDetections{Text: aws.String(text), Confidence: aws.Float64(conf)}
	if normalized != "" {
		det.NormalizedValue = &textract.NormalizedValue{Value: aws.String(normalized), ValueType: aws.String("Date")}
	}
	return &textract.IdentityDocumentField{
		Type:           &textract.AnalyzeIDDetections{Text: aws.String(fieldType)},
		ValueDetection: det,
	}
}

func TestTextractClientAnalyzeID(t *testing.T) {
	fake := &fakeTextract{out: &textract.AnalyzeIDOutput{
		IdentityDocuments: []*textract.IdentityDocument{{
			IdentityDocumentFields: []*textract.IdentityDocumentField{
				idField("FIRST_NAME", "JOHN", "", 98.2),
				idField("DATE_OF_BIRTH", "01/15/1975", "1975-01-15T00:00:00", 97.1),
				{Type: &textract.AnalyzeIDDetections{Text: aws.String("EMPTY")}},
			},
		}},
	}}

	c := NewTextractClientWithAPI(fake)
	assert.True(t, c.Available(context.Background()))

	doc, err := c.AnalyzeID(context.Background(), []byte("img"))
	require.NoError(t, err)

	require.Len(t, fake.input.DocumentPages, 1)
	assert.Equal(t, []byte("img"), fake.input.DocumentPages[0].Bytes)

	assert.Equal(t, "JOHN", doc.Fields["FIRST_NAME"].Value())
	assert.Equal(t, "1975-01-15T00:00:00", doc.Fields["DATE_OF_BIRTH"].Value())
	assert.Equal(t, 98.2, doc.Fields["FIRST_NAME"].Confidence)
	assert.NotContains(t, doc.Fields, "EMPTY")
}

func TestTextractClientErrors(t *testing.T) {
	_, err := NewTextractClientWithAPI(&fakeTextract{err: errors.New("throttled")}).AnalyzeID(context.Background(), nil)
	assert.ErrorIs(t, err, dto.ErrEngineCallFailed)

	_, err = NewTextractClientWithAPI(&fakeTextract{out: &textract.AnalyzeIDOutput{}}).AnalyzeID(context.Background(), nil)
	assert.ErrorIs(t, err, dto.ErrEngineCallFailed)

	uninit := NewTextractClient("", "")
	assert.False(t, uninit.Available(context.Background()))
	assert.ErrorIs(t, uninit.Init(context.Background()), dto.ErrEngineUnavailable)
	_, err = uninit.AnalyzeID(context.Background(), nil)
	assert.ErrorIs(t, err, dto.ErrEngineUnavailable)
}
