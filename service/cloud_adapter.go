package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Aashish23092/id-document-scanner/client"
	"github.com/Aashish23092/id-document-scanner/config"
	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/Aashish23092/id-document-scanner/utils"
)

// IdentityAnalyzer is a cloud service returning typed identity fields.
type IdentityAnalyzer interface {
	Lifecycle
	Available(ctx context.Context) bool
	AnalyzeID(ctx context.Context, img []byte) (*client.IdentityDocument, error)
}

// AnalyzeID field types, in the order they are rendered into raw text.
var identityFieldOrder = []string{
	"FIRST_NAME", "MIDDLE_NAME", "LAST_NAME", "SUFFIX",
	"DATE_OF_BIRTH", "DOCUMENT_NUMBER", "ID_TYPE",
	"ADDRESS", "CITY_IN_ADDRESS", "COUNTY", "STATE_IN_ADDRESS", "ZIP_CODE_IN_ADDRESS",
	"STATE_NAME", "DATE_OF_ISSUE", "EXPIRATION_DATE",
}

// CloudAdapter maps AnalyzeID typed fields straight onto the record.
type CloudAdapter struct {
	analyzer IdentityAnalyzer
}

func NewCloudAdapter(analyzer IdentityAnalyzer) *CloudAdapter {
	return &CloudAdapter{analyzer: analyzer}
}

func (a *CloudAdapter) Name() string { return config.BackendTextract }

func (a *CloudAdapter) Available(ctx context.Context) bool {
	return a.analyzer.Available(ctx)
}

func (a *CloudAdapter) Init(ctx context.Context) error { return a.analyzer.Init(ctx) }

func (a *CloudAdapter) Close() error { return a.analyzer.Close() }

func (a *CloudAdapter) Scan(ctx context.Context, img []byte) (dto.Candidate, error) {
	doc, err := a.analyzer.AnalyzeID(ctx, img)
	if err != nil {
		return dto.Candidate{}, err
	}

	rec := RecordFromIdentityDocument(doc)
	if rec.RawText == "" {
		return dto.Candidate{}, fmt.Errorf("%w: textract returned only empty fields", dto.ErrLowConfidence)
	}

	return dto.Candidate{Record: rec, Confidence: meanConfidence(doc)}, nil
}

// RecordFromIdentityDocument assembles the name from given/middle/family
// and the address from street/city/county/region/postal code.
func RecordFromIdentityDocument(doc *client.IdentityDocument) dto.ExtractedRecord {
	value := func(key string) string {
		return strings.TrimSpace(doc.Fields[key].Value())
	}
	text := func(key string) string {
		return strings.TrimSpace(doc.Fields[key].Text)
	}

	rec := dto.ExtractedRecord{
		Name:     dto.StringPtr(joinNonEmpty(" ", text("FIRST_NAME"), text("MIDDLE_NAME"), text("LAST_NAME"))),
		Address:  dto.StringPtr(joinNonEmpty(", ", text("ADDRESS"), text("CITY_IN_ADDRESS"), text("COUNTY"), text("STATE_IN_ADDRESS"), text("ZIP_CODE_IN_ADDRESS"))),
		IDNumber: dto.StringPtr(text("DOCUMENT_NUMBER")),
	}
	if dob := identityDate(value("DATE_OF_BIRTH")); dob != "" {
		rec.DateOfBirth = &dob
	}

	state := text("STATE_NAME")
	if state == "" {
		state = text("STATE_IN_ADDRESS")
	}
	rec.State = dto.StringPtr(utils.CanonicalRegion(state))

	var lines []string
	for _, key := range identityFieldOrder {
		if v := text(key); v != "" {
			lines = append(lines, key+": "+v)
		}
	}
	rec.RawText = strings.Join(lines, "\n")
	return rec
}

// identityDate converts normalized ISO timestamps; anything else goes
// through the heuristic date normalizer.
func identityDate(s string) string {
	if s == "" {
		return ""
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.Format("01/02/2006")
	}
	return utils.NormalizeDate(s)
}

func meanConfidence(doc *client.IdentityDocument) *float64 {
	var total float64
	var n int
	for _, f := range doc.Fields {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		total += f.Confidence
		n++
	}
	if n == 0 {
		return nil
	}
	avg := total / float64(n)
	return &avg
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
