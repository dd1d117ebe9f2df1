package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// ImageAnnotator is the part of the Vision API client the service uses.
type ImageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// VisionClient runs Google Cloud Vision document text detection.
type VisionClient struct {
	credentialsFile string

	mu        sync.RWMutex
	annotator ImageAnnotator
}

func NewVisionClient(credentialsFile string) *VisionClient {
	return &VisionClient{credentialsFile: credentialsFile}
}

// NewVisionClientWithAnnotator wraps an existing annotator; Init becomes a
// no-op.
func NewVisionClientWithAnnotator(annotator ImageAnnotator) *VisionClient {
	return &VisionClient{annotator: annotator}
}

// Init dials the Vision API. Without a credentials file the default
// application credentials are used.
func (vc *VisionClient) Init(ctx context.Context) error {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if vc.annotator != nil {
		return nil
	}

	var opts []option.ClientOption
	if vc.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(vc.credentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to init vision client: %w", err)
	}

	vc.annotator = client
	slog.Info("vision client initialized")
	return nil
}

func (vc *VisionClient) Available(ctx context.Context) bool {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return vc.annotator != nil
}

// Recognize runs DOCUMENT_TEXT_DETECTION. Confidence is the mean page
// confidence scaled to 0-100.
func (vc *VisionClient) Recognize(ctx context.Context, img []byte) (dto.RawScanResult, error) {
	vc.mu.RLock()
	annotator := vc.annotator
	vc.mu.RUnlock()

	if annotator == nil {
		return dto.RawScanResult{}, fmt.Errorf("%w: vision client not initialized", dto.ErrEngineUnavailable)
	}

	resp, err := annotator.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: img},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	})
	if err != nil {
		return dto.RawScanResult{}, fmt.Errorf("%w: vision request failed: %v", dto.ErrEngineCallFailed, err)
	}
	if len(resp.GetResponses()) == 0 {
		return dto.RawScanResult{}, fmt.Errorf("%w: vision returned no responses", dto.ErrEngineCallFailed)
	}

	annotated := resp.GetResponses()[0]
	if status := annotated.GetError(); status != nil && status.GetCode() != 0 {
		return dto.RawScanResult{}, fmt.Errorf("%w: vision error %d: %s", dto.ErrEngineCallFailed, status.GetCode(), status.GetMessage())
	}

	full := annotated.GetFullTextAnnotation()
	result := dto.RawScanResult{
		Text:  full.GetText(),
		Lines: splitLines(full.GetText()),
	}

	pages := full.GetPages()
	if len(pages) > 0 {
		var total float64
		for _, p := range pages {
			total += float64(p.GetConfidence())
		}
		conf := total / float64(len(pages)) * 100
		result.ConfidenceScore = &conf
	}
	return result, nil
}

func (vc *VisionClient) Close() error {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	if vc.annotator == nil {
		return nil
	}
	err := vc.annotator.Close()
	vc.annotator = nil
	return err
}
