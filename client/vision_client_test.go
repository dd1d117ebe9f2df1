package client

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnnotator struct {
	resp   *visionpb.BatchAnnotateImagesResponse
	err    error
	closed bool
}

func (f *fakeAnnotator) BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error) {
	return f.resp, f.err
}

func (f *fakeAnnotator) Close() error {
	f.closed = true
	return nil
}

func TestVisionClientRecognize(t *testing.T) {
	fake := &fakeAnnotator{resp: &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{{
			FullTextAnnotation: &visionpb.TextAnnotation{
				Text:  "CALIFORNIA\n DRIVER LICENSE \n",
				Pages: []*visionpb.Page{{Confidence: 0.5}, {Confidence: 0.75}},
			},
		}},
	}}

	c := NewVisionClientWithAnnotator(fake)
	require.NoError(t, c.Init(context.Background()))
	assert.True(t, c.Available(context.Background()))

	raw, err := c.Recognize(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, []string{"CALIFORNIA", "DRIVER LICENSE"}, raw.Lines)
	require.NotNil(t, raw.ConfidenceScore)
	assert.InDelta(t, 62.5, *raw.ConfidenceScore, 0.001)

	require.NoError(t, c.Close())
	assert.True(t, fake.closed)
	assert.False(t, c.Available(context.Background()))

	_, err = c.Recognize(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, dto.ErrEngineUnavailable)
}

func TestVisionClientRecognizeFailure(t *testing.T) {
	c := NewVisionClientWithAnnotator(&fakeAnnotator{err: errors.New("quota")})
	_, err := c.Recognize(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, dto.ErrEngineCallFailed)

	c = NewVisionClientWithAnnotator(&fakeAnnotator{resp: &visionpb.BatchAnnotateImagesResponse{}})
	_, err = c.Recognize(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, dto.ErrEngineCallFailed)
}
