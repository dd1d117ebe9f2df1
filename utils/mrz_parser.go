package utils

import (
	"context"
	"regexp"
	"strings"

	"github.com/Aashish23092/id-document-scanner/dto"
)

const (
	mrzMinLength = 20
	mrzMaxLength = 44
	mrzFiller    = "<"
)

var (
	mrzCharsRe   = regexp.MustCompile(`^[A-Z0-9<]+$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// IsMRZCandidate reports whether a line, once whitespace is removed, is made
// only of uppercase letters, digits and the filler and has MRZ length.
func IsMRZCandidate(line string) bool {
	compact := whitespaceRe.ReplaceAllString(line, "")
	return len(compact) >= mrzMinLength && len(compact) <= mrzMaxLength && mrzCharsRe.MatchString(compact)
}

// DetectMRZ returns the whitespace-stripped MRZ candidate lines in order.
func DetectMRZ(lines []string) []string {
	var candidates []string
	for _, line := range lines {
		if IsMRZCandidate(line) {
			candidates = append(candidates, whitespaceRe.ReplaceAllString(line, ""))
		}
	}
	return candidates
}

// HasMRZ reports whether enough candidates exist to attempt MRZ parsing.
// A single candidate line never counts.
func HasMRZ(candidates []string) bool {
	return len(candidates) >= 2
}

// ParseMRZManual decodes the first two candidate lines by fixed offsets:
// the name from offset 5 of line 1, birth date and document number from the
// start of line 2.
func ParseMRZManual(candidates []string) dto.MrzFields {
	var fields dto.MrzFields
	if len(candidates) < 2 {
		return fields
	}
	line1, line2 := candidates[0], candidates[1]

	if len(line1) > 5 {
		fields.IssuingState = cleanMRZ(line1[2:5])
		nameParts := strings.SplitN(line1[5:], mrzFiller+mrzFiller, 2)
		fields.Surname = cleanMRZName(nameParts[0])
		if len(nameParts) > 1 {
			fields.GivenNames = cleanMRZName(nameParts[1])
		}
	}

	if len(line2) >= 6 && isAllDigits(line2[:6]) {
		fields.BirthDate = line2[:6]
	}
	fields.DocumentNumber = cleanMRZ(line2[:min(9, len(line2))])

	return fields
}

// MRZParser decodes candidate lines with the structured decoder when it can
// be resolved, and with the manual offsets otherwise.
type MRZParser struct {
	resolver *MRZDecoderResolver
}

func NewMRZParser(resolver *MRZDecoderResolver) *MRZParser {
	return &MRZParser{resolver: resolver}
}

// Parse decodes up to three candidate lines.
func (p *MRZParser) Parse(ctx context.Context, candidates []string) dto.MrzFields {
	if p != nil && p.resolver != nil {
		if decoder, err := p.resolver.Resolve(ctx); err == nil {
			fields, err := decoder.Decode(candidates[:min(3, len(candidates))])
			// permissive: a partially decoded zone still beats fixed offsets
			if err == nil && (fields.Valid || !fields.IsEmpty()) {
				return fields
			}
		}
	}
	return ParseMRZManual(candidates)
}

// RecordFromMRZ maps MRZ fields onto the canonical record. MRZ carries no
// address.
func RecordFromMRZ(f dto.MrzFields) dto.ExtractedRecord {
	state := f.IssuingState
	if state == "" {
		state = f.Nationality
	}
	return dto.ExtractedRecord{
		Name:        dto.StringPtr(f.FullName()),
		DateOfBirth: dto.StringPtr(ConvertMRZDate(f.BirthDate)),
		IDNumber:    dto.StringPtr(f.DocumentNumber),
		State:       dto.StringPtr(state),
	}
}

func cleanMRZ(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, mrzFiller, ""))
}

// cleanMRZName turns fillers into spaces and trims.
func cleanMRZName(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, mrzFiller, " ")), " ")
}
