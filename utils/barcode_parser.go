package utils

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/Aashish23092/id-document-scanner/dto"
)

var (
	aamvaSegmentSplitRe = regexp.MustCompile(`[\n\r\x1e\x1d]+`)
	aamvaSubfileRe      = regexp.MustCompile(`(?:^|\d)(?:DL|ID)(D[A-Z]{2})`)
)

// ParseBarcodePayload turns a decoded document barcode into a record.
// Supported payloads are AAMVA driver-license data and the national ID
// card XML layout.
func ParseBarcodePayload(payload string) (dto.ExtractedRecord, error) {
	switch {
	case strings.Contains(payload, "PrintLetterBarcodeData"):
		return parseIDCardXML(payload)
	case strings.Contains(payload, "ANSI ") || strings.Contains(payload, "AAMVA") || strings.Contains(payload, "DAQ"):
		return parseAAMVA(payload)
	}
	return dto.ExtractedRecord{}, fmt.Errorf("unrecognized barcode payload (%d bytes)", len(payload))
}

// ParseAAMVAElements reads the three-letter data elements of an AAMVA
// payload.
func ParseAAMVAElements(payload string) dto.AAMVAData {
	var data dto.AAMVAData
	for _, seg := range aamvaSegmentSplitRe.Split(payload, -1) {
		seg = strings.TrimSpace(seg)
		// the first element shares its segment with the subfile designator
		if m := aamvaSubfileRe.FindStringSubmatchIndex(seg); m != nil {
			seg = seg[m[2]:]
		}
		if len(seg) < 4 {
			continue
		}
		value := strings.TrimSpace(seg[3:])
		switch seg[:3] {
		case "DAQ":
			data.IDNumber = value
		case "DCS":
			data.FamilyName = value
		case "DAC", "DCT":
			if data.FirstName == "" {
				data.FirstName = value
			}
		case "DAD":
			data.MiddleName = value
		case "DAA":
			data.FullName = value
		case "DBB":
			data.BirthDate = value
		case "DAG":
			data.Street = value
		case "DAI":
			data.City = value
		case "DAJ":
			data.State = value
		case "DAK":
			data.PostalCode = normalizeAAMVAPostal(value)
		}
	}
	return data
}

func parseAAMVA(payload string) (dto.ExtractedRecord, error) {
	data := ParseAAMVAElements(payload)
	rec := dto.ExtractedRecord{
		Name:        dto.StringPtr(data.Name()),
		DateOfBirth: dto.StringPtr(aamvaDate(data.BirthDate)),
		Address:     dto.StringPtr(data.Address()),
		IDNumber:    dto.StringPtr(data.IDNumber),
		State:       dto.StringPtr(CanonicalRegion(data.State)),
	}
	if rec.IsEmpty() {
		return rec, fmt.Errorf("AAMVA payload carried no identity elements")
	}
	return rec, nil
}

// aamvaDate accepts MMDDCCYY (US) and CCYYMMDD (Canada).
func aamvaDate(s string) string {
	if len(s) != 8 || !isAllDigits(s) {
		return ""
	}
	if s[0:2] == "19" || s[0:2] == "20" {
		return s[4:6] + "/" + s[6:8] + "/" + s[0:4]
	}
	return s[0:2] + "/" + s[2:4] + "/" + s[4:8]
}

func normalizeAAMVAPostal(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 9 && isAllDigits(s) {
		if s[5:] == "0000" {
			return s[:5]
		}
		return s[:5] + "-" + s[5:]
	}
	return s
}

func parseIDCardXML(payload string) (dto.ExtractedRecord, error) {
	start := strings.Index(payload, "<PrintLetterBarcodeData")
	if start < 0 {
		start = 0
	}
	var qr dto.IDCardQRData
	if err := xml.Unmarshal([]byte(payload[start:]), &qr); err != nil {
		return dto.ExtractedRecord{}, fmt.Errorf("failed to parse QR XML data: %w", err)
	}

	rec := dto.ExtractedRecord{
		Name:    dto.StringPtr(qr.Name),
		Address: dto.StringPtr(qr.GetFullAddress()),
		State:   dto.StringPtr(qr.State),
	}
	if dob, ok := parseDayFirstDate(qr.DateOfBirth); ok {
		rec.DateOfBirth = &dob
	}
	// only the last four digits of the national number are ever kept
	if len(qr.UID) >= 4 {
		rec.IDNumber = dto.StringPtr("XXXXXXXX" + qr.UID[len(qr.UID)-4:])
	}
	return rec, nil
}
