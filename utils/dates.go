package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// mrzCenturyPivot: two-digit years above it are 19xx, the rest 20xx.
const mrzCenturyPivot = 30

var (
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})\b`)
	textDateRe    = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)\.?\s+(\d{2,4})\b`)

	// scanned in this order
	datePatterns = []*regexp.Regexp{numericDateRe, isoDateRe, textDateRe}

	monthAbbreviations = map[string]int{
		"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
		"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
	}
)

// ExpandTwoDigitYear applies the century pivot: year > 30 is 1900+year,
// otherwise 2000+year.
func ExpandTwoDigitYear(yy int) int {
	if yy > mrzCenturyPivot {
		return 1900 + yy
	}
	return 2000 + yy
}

// ConvertMRZDate converts YYMMDD to MM/DD/YYYY. Input that is not six digits
// yields "".
func ConvertMRZDate(yymmdd string) string {
	if !isAllDigits(yymmdd) || len(yymmdd) != 6 {
		return ""
	}
	yy, _ := strconv.Atoi(yymmdd[0:2])
	return fmt.Sprintf("%s/%s/%04d", yymmdd[2:4], yymmdd[4:6], ExpandTwoDigitYear(yy))
}

// ExtractDates returns every date-like substring, all numeric
// day/month/year matches first, then year-month-day, then "day MON year".
func ExtractDates(text string) []string {
	var dates []string
	for _, re := range datePatterns {
		dates = append(dates, re.FindAllString(text, -1)...)
	}
	return dates
}

// NormalizeDate rewrites a date found by ExtractDates as MM/DD/YYYY.
// Numeric a/b/y is read as month/day unless a > 12. Input it cannot
// interpret is returned trimmed and unchanged.
func NormalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)

	var month, day, year int
	switch {
	case isoDateRe.MatchString(raw) && isoDateRe.FindString(raw) == raw:
		m := isoDateRe.FindStringSubmatch(raw)
		year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
	case textDateRe.MatchString(raw):
		m := textDateRe.FindStringSubmatch(raw)
		day, month, year = atoi(m[1]), monthAbbreviations[strings.ToUpper(m[2])], parseYear(m[3])
	case numericDateRe.MatchString(raw):
		m := numericDateRe.FindStringSubmatch(raw)
		a, b := atoi(m[1]), atoi(m[2])
		month, day = a, b
		if a > 12 && b <= 12 {
			month, day = b, a
		}
		year = parseYear(m[3])
	default:
		return raw
	}

	if year <= 0 || month < 1 || month > 12 || day < 1 || day > 31 {
		return raw
	}
	return fmt.Sprintf("%02d/%02d/%04d", month, day, year)
}

// parseDayFirstDate parses DD/MM/YYYY style dates used by national ID QR
// payloads and returns MM/DD/YYYY.
func parseDayFirstDate(s string) (string, bool) {
	formats := []string{"02/01/2006", "02-01-2006", "2006-01-02", "2006/01/02"}
	for _, format := range formats {
		if t, err := time.Parse(format, strings.TrimSpace(s)); err == nil {
			return t.Format("01/02/2006"), true
		}
	}
	return "", false
}

func parseYear(s string) int {
	switch len(s) {
	case 2:
		return ExpandTwoDigitYear(atoi(s))
	case 4:
		return atoi(s)
	}
	return 0
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
