package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/textract"
)

// TextractAPI is the AnalyzeID call of the Textract service client.
type TextractAPI interface {
	AnalyzeIDWithContext(ctx aws.Context, input *textract.AnalyzeIDInput, opts ...request.Option) (*textract.AnalyzeIDOutput, error)
}

// IdentityField is one typed AnalyzeID value. Confidence is 0-100.
type IdentityField struct {
	Text       string
	Normalized string
	Confidence float64
}

// Value prefers the normalized value (dates come back as ISO timestamps).
func (f IdentityField) Value() string {
	if f.Normalized != "" {
		return f.Normalized
	}
	return f.Text
}

// IdentityDocument is the typed field bag of the first analyzed document.
type IdentityDocument struct {
	Fields map[string]IdentityField
}

// TextractClient calls AWS Textract AnalyzeID.
type TextractClient struct {
	region   string
	endpoint string

	mu          sync.RWMutex
	api         TextractAPI
	credentials func(ctx context.Context) error
}

func NewTextractClient(region, endpoint string) *TextractClient {
	return &TextractClient{region: region, endpoint: endpoint}
}

// NewTextractClientWithAPI wraps an existing service client; credentials are
// assumed present.
func NewTextractClientWithAPI(api TextractAPI) *TextractClient {
	return &TextractClient{api: api}
}

// Init builds the AWS session. It fails when no region is configured.
func (tc *TextractClient) Init(ctx context.Context) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.api != nil {
		return nil
	}
	if tc.region == "" {
		return fmt.Errorf("%w: textract region not configured", dto.ErrEngineUnavailable)
	}

	awsCfg := &aws.Config{Region: aws.String(tc.region)}
	if tc.endpoint != "" {
		awsCfg.Endpoint = aws.String(tc.endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return fmt.Errorf("failed to create aws session: %w", err)
	}

	tc.api = textract.New(sess)
	tc.credentials = func(ctx context.Context) error {
		_, err := sess.Config.Credentials.GetWithContext(ctx)
		return err
	}
	slog.Info("textract client initialized", "region", tc.region)
	return nil
}

// Available reports whether a session exists and credentials resolve.
func (tc *TextractClient) Available(ctx context.Context) bool {
	tc.mu.RLock()
	api, creds := tc.api, tc.credentials
	tc.mu.RUnlock()

	if api == nil {
		return false
	}
	if creds == nil {
		return true
	}
	if err := creds(ctx); err != nil {
		slog.Debug("textract credentials unavailable", "error", err)
		return false
	}
	return true
}

// AnalyzeID submits one image and returns the first identity document.
func (tc *TextractClient) AnalyzeID(ctx context.Context, img []byte) (*IdentityDocument, error) {
	tc.mu.RLock()
	api := tc.api
	tc.mu.RUnlock()

	if api == nil {
		return nil, fmt.Errorf("%w: textract client not initialized", dto.ErrEngineUnavailable)
	}

	out, err := api.AnalyzeIDWithContext(ctx, &textract.AnalyzeIDInput{
		DocumentPages: []*textract.Document{{Bytes: img}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: textract AnalyzeID failed: %v", dto.ErrEngineCallFailed, err)
	}
	if len(out.IdentityDocuments) == 0 {
		return nil, fmt.Errorf("%w: textract returned no identity documents", dto.ErrEngineCallFailed)
	}

	doc := &IdentityDocument{Fields: make(map[string]IdentityField)}
	for _, f := range out.IdentityDocuments[0].IdentityDocumentFields {
		if f == nil || f.Type == nil || f.ValueDetection == nil {
			continue
		}
		field := IdentityField{
			Text:       aws.StringValue(f.ValueDetection.Text),
			Confidence: aws.Float64Value(f.ValueDetection.Confidence),
		}
		if nv := f.ValueDetection.NormalizedValue; nv != nil {
			field.Normalized = aws.StringValue(nv.Value)
		}
		doc.Fields[aws.StringValue(f.Type.Text)] = field
	}
	return doc, nil
}

// Close is a no-op; AWS sessions hold no resources.
func (tc *TextractClient) Close() error {
	return nil
}
