package utils

import (
	"context"
	"testing"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLicenseText = `
	CALIFORNIA
	DRIVER LICENSE
	DL D1234567
	NAME: JOHN SAMPLE
	DOB 01/15/1975
	ADDRESS: 123 MAIN ST
	SACRAMENTO CA 95811
	EXP 01/15/2030
`

func TestParseIDText(t *testing.T) {
	fields := ParseIDText(sampleLicenseText)

	assert.Equal(t, "JOHN SAMPLE", fields.Name)
	assert.Equal(t, "D1234567", fields.IDNumber)
	assert.Equal(t, "California", fields.State)
	assert.Equal(t, "123 MAIN ST, SACRAMENTO CA 95811", fields.Address)
	assert.Equal(t, []string{"01/15/1975", "01/15/2030"}, fields.Dates)

	rec := fields.Record()
	require.NotNil(t, rec.DateOfBirth)
	assert.Equal(t, "01/15/1975", *rec.DateOfBirth)
}

func TestParseIDTextDeterministic(t *testing.T) {
	first := ParseIDText(sampleLicenseText)
	second := ParseIDText(sampleLicenseText)
	assert.Equal(t, first, second)

	a := ExtractRecord(context.Background(), dto.RawScanResult{Text: sampleLicenseText}, nil)
	b := ExtractRecord(context.Background(), dto.RawScanResult{Text: sampleLicenseText}, nil)
	assert.Equal(t, a, b)
}

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "label with trailing text",
			lines: []string{"ADDRESS: 123 MAIN ST", "ANYTOWN CA 94105"},
			want:  "123 MAIN ST, ANYTOWN CA 94105",
		},
		{
			name:  "stops at postal code",
			lines: []string{"ADDR", "42 ELM AVE", "SPRINGFIELD IL 62704", "DONOR"},
			want:  "42 ELM AVE, SPRINGFIELD IL 62704",
		},
		{
			name:  "street line starts capture",
			lines: []string{"JANE DOE", "500 OAK STREET", "APT 4", "DENVER CO 80202"},
			want:  "500 OAK STREET, APT 4, DENVER CO 80202",
		},
		{
			name:  "field label ends capture",
			lines: []string{"ADDRESS 9 PINE RD", "DOB 02/03/1980"},
			want:  "9 PINE RD",
		},
		{
			name:  "no address",
			lines: []string{"JANE DOE", "CLASS C"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAddress(tt.lines))
		})
	}
}

func TestExtractIDNumber(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"keyword digits", []string{"LICENSE NO: 98765432"}, "98765432"},
		{"keyword alphanumeric", []string{"DOCUMENT NUMBER X12AB345"}, "X12AB345"},
		{"id hash", []string{"ID# 5551234"}, "5551234"},
		{"letter plus digits", []string{"JANE DOE", "A12345678"}, "A12345678"},
		{"alphanumeric tier", []string{"JANE DOE", "D1234567A"}, "D1234567A"},
		{"purely numeric token rejected", []string{"JANE DOE", "123456789012"}, ""},
		{"numeric token after keyword", []string{"DLN 123456789012"}, "123456789012"},
		{"letters only after keyword", []string{"LICENSE NUMBER: ABCDEFGH"}, "ABCDEFGH"},
		{"label after keyword skipped", []string{"LICENSE RESTRICTIONS", "JANE DOE"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractIDNumber(tt.lines))
		})
	}
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"full name label", []string{"FULL NAME: Mary-Ann O'Neil"}, "Mary-Ann O'Neil"},
		{"first and last labels", []string{"LAST NAME: SAMPLE", "FIRST NAME: JOHN"}, "JOHN SAMPLE"},
		{"bare line skips labels and regions", []string{"NEW YORK", "DRIVER LICENSE", "JANE DOE"}, "JANE DOE"},
		{"mangled label rejected", []string{"DRIVERS LICENSF", "JANE DOE"}, "JANE DOE"},
		{"digits never a name", []string{"123 MAIN ST"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractName(tt.lines))
		})
	}
}

func TestIsLabelKeyword(t *testing.T) {
	assert.True(t, isLabelKeyword("license"))
	assert.True(t, isLabelKeyword("ENDORSEMENT"))
	assert.False(t, isLabelKeyword("JOHNSON"))
	assert.False(t, isLabelKeyword("JANE"))
}

func TestExtractRecordWithMRZ(t *testing.T) {
	raw := dto.RawScanResult{
		Text: "PASSPORT\n123 MAIN ST\nANYTOWN CA 94105\n" + td3Line1 + "\n" + td3Line2,
	}

	t.Run("manual decode", func(t *testing.T) {
		rec := ExtractRecord(context.Background(), raw, nil)

		assert.Equal(t, "ANNA MARIA ERIKSSON", dto.Deref(rec.Name))
		assert.Equal(t, "L898902C3", dto.Deref(rec.IDNumber))
		assert.Equal(t, "UTO", dto.Deref(rec.State))
		assert.Nil(t, rec.DateOfBirth)
		assert.Equal(t, "123 MAIN ST, ANYTOWN CA 94105", dto.Deref(rec.Address))
		assert.Equal(t, raw.Text, rec.RawText)
	})

	t.Run("structured decode", func(t *testing.T) {
		parser := NewMRZParser(NewMRZDecoderResolver(ICAODecoderLoader("")))
		rec := ExtractRecord(context.Background(), raw, parser)

		assert.Equal(t, "ANNA MARIA ERIKSSON", dto.Deref(rec.Name))
		assert.Equal(t, "08/12/1974", dto.Deref(rec.DateOfBirth))
		assert.Equal(t, "L898902C3", dto.Deref(rec.IDNumber))
		assert.Equal(t, "123 MAIN ST, ANYTOWN CA 94105", dto.Deref(rec.Address))
	})
}

func TestExtractRecordEmptyText(t *testing.T) {
	rec := ExtractRecord(context.Background(), dto.RawScanResult{Text: "   \n  "}, nil)
	assert.True(t, rec.IsEmpty())
}
