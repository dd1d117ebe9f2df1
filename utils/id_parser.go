package utils

import (
	"context"
	"regexp"
	"strings"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// maxAddressLines bounds address capture when no postal code shows up.
const maxAddressLines = 4

var (
	fullNameLabelRe = regexp.MustCompile(`(?i)\bFULL\s+NAME\b[\s:.\-]*(.*)$`)
	nameLabelRe     = regexp.MustCompile(`(?i)^NAME\b[\s:.\-]*(.*)$`)
	firstNameRe     = regexp.MustCompile(`(?i)^(?:FIRST|GIVEN)(?:\s+NAMES?)?\b[\s:.\-]*(.*)$`)
	lastNameRe      = regexp.MustCompile(`(?i)^(?:LAST|SURNAME|FAMILY)(?:\s+NAME)?\b[\s:.\-]*(.*)$`)
	nameLikeRe      = regexp.MustCompile(`^[A-Za-z][A-Za-z\s'\-]{1,49}$`)
	alphaTokenRe    = regexp.MustCompile(`^[A-Za-z]+$`)

	addressLabelRe = regexp.MustCompile(`(?i)\bADDR(?:ESS)?\b[\s:.\-]*(.*)$`)
	streetRe       = regexp.MustCompile(`(?i)^\d+\s+.*\b(?:ST|STREET|AVE|AVENUE|RD|ROAD|BLVD|BOULEVARD|DR|DRIVE|LN|LANE|CT|COURT|WAY|PL|PLACE|PKWY|PARKWAY|HWY|HIGHWAY|CIR|CIRCLE|TER|TERRACE|TRL|TRAIL|SQ|SQUARE)\b`)
	postalCodeRe   = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	// lines that open another field end an address block
	fieldLabelLineRe = regexp.MustCompile(`(?i)^(?:DOB|DATE OF BIRTH|EXP|ISS|SEX|HGT|WGT|EYES|HAIR|CLASS|DLN|LICENSE|ENDORSEMENTS?|RESTRICTIONS?|END|RSTR|DD)\b`)

	idKeywordRe   = regexp.MustCompile(`(?i)(?:\bLICEN[CS]E\b(?:\s*(?:NO\b\.?|NUMBER\b|#))?|\bID\s*NO\b\.?|\bID\s*#|\bDOCUMENT\b(?:\s*(?:NO\b\.?|NUMBER\b))?|\bPASSPORT\s*NO\b\.?|\bNUMBER\b|\bNO\.|\bDLN\b|\bDL\b)`)
	idDigitsRe    = regexp.MustCompile(`\b[A-Z]?\d{5,}\b`)
	idAlnumRe     = regexp.MustCompile(`\b[A-Z0-9]{7,15}\b`)
	idLetterRe    = regexp.MustCompile(`\b[A-Z]\d{7,}\b`)
	idTokenRe     = regexp.MustCompile(`\b[A-Z0-9]{8,12}\b`)
	hasDigitRe    = regexp.MustCompile(`\d`)
	hasLetterRe   = regexp.MustCompile(`[A-Z]`)
	labelSplitter = strings.NewReplacer(":", " ", "-", " ", ".", " ")
)

// labelKeywords are words printed on documents that are never names.
var labelKeywords = map[string]bool{
	"DRIVER": true, "DRIVERS": true, "LICENSE": true, "LICENCE": true, "IDENTIFICATION": true,
	"IDENTITY": true, "CARD": true, "PASSPORT": true, "NATIONAL": true, "REPUBLIC": true,
	"UNITED": true, "STATES": true, "STATE": true, "AMERICA": true, "USA": true,
	"DEPARTMENT": true, "MOTOR": true, "VEHICLES": true, "TRANSPORTATION": true,
	"GOVERNMENT": true, "CLASS": true, "DOB": true, "BIRTH": true, "DATE": true,
	"EXP": true, "EXPIRES": true, "ISS": true, "ISSUED": true, "SEX": true,
	"HGT": true, "WGT": true, "HEIGHT": true, "WEIGHT": true, "EYES": true, "HAIR": true,
	"ADDRESS": true, "NAME": true, "DONOR": true, "VETERAN": true, "RESTRICTIONS": true,
	"ENDORSEMENTS": true, "NONE": true, "SIGNATURE": true, "DUPLICATE": true,
	"REAL": true, "COMMERCIAL": true, "OPERATOR": true, "PERMIT": true, "TYPE": true,
	"CODE": true, "NATIONALITY": true, "SURNAME": true, "GIVEN": true, "NAMES": true,
}

var keywordMetric = metrics.NewJaroWinkler()

// IDTextFields are the fields the heuristic extractor finds in free text.
type IDTextFields struct {
	Name     string
	Address  string
	IDNumber string
	State    string
	Dates    []string
}

// ParseIDText runs every heuristic over OCR text. Output depends only on the
// input text.
func ParseIDText(text string) IDTextFields {
	lines := NormalizeLines(text)
	return IDTextFields{
		Name:     ExtractName(lines),
		Address:  ExtractAddress(lines),
		IDNumber: ExtractIDNumber(lines),
		State:    ExtractState(text),
		Dates:    ExtractDates(text),
	}
}

// Record converts heuristic fields to the canonical record, using the
// first collected date as date of birth.
func (f IDTextFields) Record() dto.ExtractedRecord {
	rec := dto.ExtractedRecord{
		Name:     dto.StringPtr(f.Name),
		Address:  dto.StringPtr(f.Address),
		IDNumber: dto.StringPtr(f.IDNumber),
		State:    dto.StringPtr(f.State),
	}
	if len(f.Dates) > 0 {
		rec.DateOfBirth = dto.StringPtr(NormalizeDate(f.Dates[0]))
	}
	return rec
}

// ExtractRecord is the shared text-to-record routine: MRZ decode when a zone
// is present (address from the remaining lines), heuristics otherwise.
func ExtractRecord(ctx context.Context, raw dto.RawScanResult, parser *MRZParser) dto.ExtractedRecord {
	lines := raw.Lines
	if len(lines) == 0 {
		lines = NormalizeLines(raw.Text)
	}

	candidates := DetectMRZ(lines)
	if HasMRZ(candidates) {
		rec := RecordFromMRZ(parser.Parse(ctx, candidates))
		rec.Address = dto.StringPtr(ExtractAddressOutsideMRZ(lines))
		rec.RawText = raw.Text
		return rec
	}

	rec := ParseIDText(strings.Join(lines, "\n")).Record()
	rec.RawText = raw.Text
	return rec
}

// NormalizeLines cleans and splits OCR text into lines
func NormalizeLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	rawLines := strings.Split(text, "\n")

	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// ---------------- Name ----------------

// ExtractName tries a NAME / FULL NAME label, then separate first and last
// name labels, then the first plausible bare name line.
func ExtractName(lines []string) string {
	for _, line := range lines {
		var value string
		if m := fullNameLabelRe.FindStringSubmatch(line); m != nil {
			value = m[1]
		} else if m := nameLabelRe.FindStringSubmatch(line); m != nil {
			value = m[1]
		} else {
			continue
		}
		value = collapseSpaces(value)
		if nameLikeRe.MatchString(value) {
			return value
		}
	}

	var first, last string
	for _, line := range lines {
		if m := firstNameRe.FindStringSubmatch(line); m != nil && first == "" {
			if v := collapseSpaces(m[1]); nameLikeRe.MatchString(v) {
				first = v
			}
		} else if m := lastNameRe.FindStringSubmatch(line); m != nil && last == "" {
			if v := collapseSpaces(m[1]); nameLikeRe.MatchString(v) {
				last = v
			}
		}
	}
	if first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}

	for _, line := range lines {
		if isBareNameLine(line) {
			return collapseSpaces(line)
		}
	}
	return ""
}

func isBareNameLine(line string) bool {
	if len(line) < 4 || hasDigitRe.MatchString(line) {
		return false
	}
	tokens := strings.Fields(line)
	if len(tokens) < 2 || len(tokens) > 4 {
		return false
	}
	for _, tok := range tokens {
		if !alphaTokenRe.MatchString(tok) || isLabelKeyword(tok) {
			return false
		}
	}
	return !isRegionName(line)
}

// isLabelKeyword also catches OCR-mangled labels ("LICENSF", "ENDORSEMENT").
func isLabelKeyword(token string) bool {
	upper := strings.ToUpper(token)
	if labelKeywords[upper] {
		return true
	}
	if len(upper) < 5 {
		return false
	}
	for kw := range labelKeywords {
		if len(kw) >= 5 && strutil.Similarity(upper, kw, keywordMetric) >= 0.92 {
			return true
		}
	}
	return false
}

// ---------------- Address ----------------

// ExtractAddress captures an address block. Capture starts on an ADDRESS /
// ADDR label (keeping text after the label), a street line, or a line with a
// region abbreviation and postal code. It stops after the first captured
// line carrying a postal code.
func ExtractAddress(lines []string) string {
	var captured []string
	capturing := false

	for _, line := range lines {
		if !capturing {
			if m := addressLabelRe.FindStringSubmatch(line); m != nil {
				capturing = true
				line = strings.TrimSpace(m[1])
				if line == "" {
					continue
				}
			} else if streetRe.MatchString(line) || hasRegionZip(strings.ToUpper(line)) {
				capturing = true
			} else {
				continue
			}
		} else if fieldLabelLineRe.MatchString(line) {
			break
		}

		captured = append(captured, collapseSpaces(line))
		if postalCodeRe.MatchString(line) || len(captured) >= maxAddressLines {
			break
		}
	}

	return strings.Join(captured, ", ")
}

// ExtractAddressOutsideMRZ runs address capture over the lines that are not
// MRZ candidates.
func ExtractAddressOutsideMRZ(lines []string) string {
	rest := make([]string, 0, len(lines))
	for _, line := range lines {
		if !IsMRZCandidate(line) {
			rest = append(rest, line)
		}
	}
	return ExtractAddress(rest)
}

// ---------------- ID number ----------------

// ExtractIDNumber tries, in order: a value after a document-number keyword
// (optional letter plus 5+ digits, else any 7-15 character alphanumeric word
// that is not a label), a letter followed by 7+ digits anywhere, and any
// 8-12 character token mixing letters and digits.
func ExtractIDNumber(lines []string) string {
	for _, line := range lines {
		upper := strings.ToUpper(line)
		for _, loc := range idKeywordRe.FindAllStringIndex(upper, -1) {
			rest := labelSplitter.Replace(upper[loc[1]:])
			if m := idDigitsRe.FindString(rest); m != "" {
				return m
			}
			for _, m := range idAlnumRe.FindAllString(rest, -1) {
				// a following label ("LICENSE RESTRICTIONS") is not a value
				if !isLabelKeyword(m) {
					return m
				}
			}
		}
	}

	text := strings.ToUpper(strings.Join(lines, "\n"))
	if m := idLetterRe.FindString(text); m != "" {
		return m
	}

	for _, tok := range idTokenRe.FindAllString(text, -1) {
		if hasDigitRe.MatchString(tok) && hasLetterRe.MatchString(tok) {
			return tok
		}
	}
	return ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
