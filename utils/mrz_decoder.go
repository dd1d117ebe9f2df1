package utils

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/Aashish23092/id-document-scanner/pkg/logger"
	"gopkg.in/yaml.v3"
)

// MRZDecoder decodes MRZ candidate lines into structured fields.
type MRZDecoder interface {
	Decode(lines []string) (dto.MrzFields, error)
}

// ICAODecoder decodes ICAO 9303 TD1, TD2 and TD3 zones and validates their
// check digits.
type ICAODecoder struct {
	knownStates map[string]bool
}

// NewICAODecoder builds a decoder. When knownStates is non-empty an
// unlisted issuing code marks the result invalid.
func NewICAODecoder(knownStates []string) *ICAODecoder {
	d := &ICAODecoder{}
	if len(knownStates) > 0 {
		d.knownStates = make(map[string]bool, len(knownStates))
		for _, code := range knownStates {
			d.knownStates[strings.ToUpper(strings.TrimSpace(code))] = true
		}
	}
	return d
}

func (d *ICAODecoder) Decode(lines []string) (dto.MrzFields, error) {
	var (
		fields dto.MrzFields
		err    error
	)
	switch {
	case len(lines) >= 3 && len(lines[0]) >= 28 && len(lines[0]) <= 32:
		fields = decodeTD1(padLine(lines[0], 30), padLine(lines[1], 30), padLine(lines[2], 30))
	case len(lines) >= 2 && len(lines[0]) >= 40:
		fields = decodeTD3(padLine(lines[0], 44), padLine(lines[1], 44))
	case len(lines) >= 2 && len(lines[0]) >= 34:
		fields = decodeTD2(padLine(lines[0], 36), padLine(lines[1], 36))
	default:
		err = fmt.Errorf("unsupported MRZ layout: %d lines", len(lines))
	}
	if err != nil {
		return fields, err
	}

	if fields.Valid && d.knownStates != nil && !d.knownStates[fields.IssuingState] {
		fields.Valid = false
	}
	return fields, nil
}

// TD3 (passport): 2 lines x 44
func decodeTD3(l1, l2 string) dto.MrzFields {
	f := dto.MrzFields{
		IssuingState:   cleanMRZ(l1[2:5]),
		DocumentNumber: cleanMRZ(l2[0:9]),
		Nationality:    cleanMRZ(l2[10:13]),
	}
	f.Surname, f.GivenNames = splitMRZName(l1[5:])
	if isAllDigits(l2[13:19]) {
		f.BirthDate = l2[13:19]
	}
	f.Valid = requiredDigitOK(l2[0:9], l2[9]) &&
		requiredDigitOK(l2[13:19], l2[19]) &&
		checkDigitOK(l2[21:27], l2[27]) &&
		checkDigitOK(l2[0:10]+l2[13:20]+l2[21:43], l2[43])
	return f
}

// TD2 (ID card, older visas): 2 lines x 36
func decodeTD2(l1, l2 string) dto.MrzFields {
	f := dto.MrzFields{
		IssuingState:   cleanMRZ(l1[2:5]),
		DocumentNumber: cleanMRZ(l2[0:9]),
		Nationality:    cleanMRZ(l2[10:13]),
	}
	f.Surname, f.GivenNames = splitMRZName(l1[5:])
	if isAllDigits(l2[13:19]) {
		f.BirthDate = l2[13:19]
	}
	f.Valid = requiredDigitOK(l2[0:9], l2[9]) &&
		requiredDigitOK(l2[13:19], l2[19]) &&
		checkDigitOK(l2[21:27], l2[27]) &&
		checkDigitOK(l2[0:10]+l2[13:20]+l2[21:35], l2[35])
	return f
}

// TD1 (ID card): 3 lines x 30
func decodeTD1(l1, l2, l3 string) dto.MrzFields {
	f := dto.MrzFields{
		IssuingState:   cleanMRZ(l1[2:5]),
		DocumentNumber: cleanMRZ(l1[5:14]),
		Nationality:    cleanMRZ(l2[15:18]),
	}
	f.Surname, f.GivenNames = splitMRZName(l3)
	if isAllDigits(l2[0:6]) {
		f.BirthDate = l2[0:6]
	}
	f.Valid = requiredDigitOK(l1[5:14], l1[14]) &&
		requiredDigitOK(l2[0:6], l2[6]) &&
		checkDigitOK(l2[8:14], l2[14]) &&
		checkDigitOK(l1[5:30]+l2[0:7]+l2[8:15]+l2[18:29], l2[29])
	return f
}

func splitMRZName(s string) (surname, given string) {
	parts := strings.SplitN(s, mrzFiller+mrzFiller, 2)
	surname = cleanMRZName(parts[0])
	if len(parts) > 1 {
		given = cleanMRZName(parts[1])
	}
	return surname, given
}

func padLine(line string, length int) string {
	if len(line) >= length {
		return line[:length]
	}
	return line + strings.Repeat(mrzFiller, length-len(line))
}

// MRZCheckDigit computes the ICAO 7-3-1 weighted check digit.
func MRZCheckDigit(s string) int {
	weights := [3]int{7, 3, 1}
	sum := 0
	for i, c := range s {
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 10
		default:
			v = 0
		}
		sum += v * weights[i%3]
	}
	return sum % 10
}

// requiredDigitOK is checkDigitOK for document number and birth date,
// which may not be left blank.
func requiredDigitOK(s string, check byte) bool {
	return strings.Trim(s, mrzFiller) != "" && checkDigitOK(s, check)
}

func checkDigitOK(s string, check byte) bool {
	if check == '<' {
		// optional fields may leave the check digit empty
		return strings.Trim(s, mrzFiller) == ""
	}
	return check >= '0' && check <= '9' && MRZCheckDigit(s) == int(check-'0')
}

// ICAODecoderLoader returns a loader for MRZDecoderResolver. An empty path
// uses no issuing-state table; a path that cannot be read fails the load.
func ICAODecoderLoader(statesPath string) func() (MRZDecoder, error) {
	return func() (MRZDecoder, error) {
		if statesPath == "" {
			return NewICAODecoder(nil), nil
		}
		data, err := os.ReadFile(statesPath)
		if err != nil {
			return nil, fmt.Errorf("read issuing state table: %w", err)
		}
		var table struct {
			States []string `yaml:"states"`
		}
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse issuing state table: %w", err)
		}
		if len(table.States) == 0 {
			return nil, fmt.Errorf("issuing state table %s is empty", statesPath)
		}
		return NewICAODecoder(table.States), nil
	}
}

type decoderState int

const (
	decoderUnresolved decoderState = iota
	decoderUnavailable
	decoderResolved
)

// MRZDecoderResolver resolves the structured decoder at most once per
// process. A failed resolution is permanent.
type MRZDecoderResolver struct {
	mu      sync.Mutex
	state   decoderState
	decoder MRZDecoder
	err     error
	load    func() (MRZDecoder, error)
}

func NewMRZDecoderResolver(load func() (MRZDecoder, error)) *MRZDecoderResolver {
	return &MRZDecoderResolver{load: load}
}

// Resolve returns the decoder, loading it on first use.
func (r *MRZDecoderResolver) Resolve(ctx context.Context) (MRZDecoder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case decoderResolved:
		return r.decoder, nil
	case decoderUnavailable:
		return nil, r.err
	}

	var (
		decoder MRZDecoder
		err     error
	)
	if r.load == nil {
		err = fmt.Errorf("no loader configured")
	} else {
		decoder, err = r.load()
	}
	if err == nil && decoder == nil {
		err = fmt.Errorf("loader returned no decoder")
	}
	if err != nil {
		r.state = decoderUnavailable
		r.err = fmt.Errorf("%w: %v", dto.ErrDecoderUnavailable, err)
		logger.Warn(ctx, "structured MRZ decoder disabled, using manual decode", "error", err)
		return nil, r.err
	}

	r.state = decoderResolved
	r.decoder = decoder
	return decoder, nil
}

// Available reports whether the decoder has been resolved successfully.
// It does not trigger resolution.
func (r *MRZDecoderResolver) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == decoderResolved
}
