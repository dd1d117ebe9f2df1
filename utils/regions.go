package utils

import (
	"regexp"
	"sort"
	"strings"
)

// regionAbbreviations maps postal abbreviations to canonical region names.
var regionAbbreviations = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"DC": "District of Columbia", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska",
	"NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico",
	"NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "PR": "Puerto Rico",
	"RI": "Rhode Island", "SC": "South Carolina", "SD": "South Dakota", "TN": "Tennessee",
	"TX": "Texas", "UT": "Utah", "VT": "Vermont", "VA": "Virginia",
	"WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

// Abbreviations that are also everyday words; they only count next to a
// postal code.
var ambiguousAbbreviations = map[string]bool{
	"ID": true, "IN": true, "OR": true, "ME": true, "HI": true, "OK": true,
}

type regionPattern struct {
	name string
	re   *regexp.Regexp
}

var (
	regionNamePatterns = buildRegionNamePatterns()
	regionZipRe        = regexp.MustCompile(`\b([A-Z]{2})\s+\d{5}(?:-\d{4})?\b`)
	abbreviationRe     = regexp.MustCompile(`\b[A-Z]{2}\b`)
)

func buildRegionNamePatterns() []regionPattern {
	names := make([]string, 0, len(regionAbbreviations))
	for _, name := range regionAbbreviations {
		names = append(names, name)
	}
	// longest first so "West Virginia" wins over "Virginia" at the same offset
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	patterns := make([]regionPattern, 0, len(names))
	for _, name := range names {
		expr := strings.ReplaceAll(regexp.QuoteMeta(name), " ", `\s+`)
		patterns = append(patterns, regionPattern{
			name: name,
			re:   regexp.MustCompile(`(?i)\b` + expr + `\b`),
		})
	}
	return patterns
}

// RegionByAbbreviation maps a 2-letter abbreviation to its canonical name.
func RegionByAbbreviation(abbr string) (string, bool) {
	name, ok := regionAbbreviations[strings.ToUpper(strings.TrimSpace(abbr))]
	return name, ok
}

// CanonicalRegion returns the canonical name for either a full region name
// or an abbreviation. Unknown input is returned unchanged.
func CanonicalRegion(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if name, ok := RegionByAbbreviation(s); ok {
		return name
	}
	for _, name := range regionAbbreviations {
		if strings.EqualFold(name, s) {
			return name
		}
	}
	return s
}

func isRegionName(s string) bool {
	s = strings.Join(strings.Fields(s), " ")
	for _, name := range regionAbbreviations {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}

// ExtractState finds the issuing region. Full names anywhere in the text win
// (earliest occurrence, longest name on ties); otherwise an abbreviation in
// front of a postal code, then any unambiguous standalone abbreviation.
func ExtractState(text string) string {
	best, bestPos := "", -1
	for _, p := range regionNamePatterns {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestPos == -1 || loc[0] < bestPos {
			best, bestPos = p.name, loc[0]
		}
	}
	if best != "" {
		return best
	}

	upper := strings.ToUpper(text)
	for _, m := range regionZipRe.FindAllStringSubmatch(upper, -1) {
		if name, ok := regionAbbreviations[m[1]]; ok {
			return name
		}
	}

	for _, abbr := range abbreviationRe.FindAllString(text, -1) {
		if ambiguousAbbreviations[abbr] {
			continue
		}
		if name, ok := regionAbbreviations[abbr]; ok {
			return name
		}
	}
	return ""
}

func hasRegionZip(upperLine string) bool {
	for _, m := range regionZipRe.FindAllStringSubmatch(upperLine, -1) {
		if _, ok := regionAbbreviations[m[1]]; ok {
			return true
		}
	}
	return false
}
