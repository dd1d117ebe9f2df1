package dto

import "strings"

// RawScanResult is the output of one OCR engine invocation.
type RawScanResult struct {
	Text            string   `json:"text"`
	ConfidenceScore *float64 `json:"confidence_score"` // 0-100, nil when the engine reports none
	Lines           []string `json:"lines"`
}

// MrzFields holds the fields decoded from a machine-readable zone.
type MrzFields struct {
	Surname        string `json:"surname"`
	GivenNames     string `json:"given_names"`
	DocumentNumber string `json:"document_number"`
	BirthDate      string `json:"birth_date"` // YYMMDD
	IssuingState   string `json:"issuing_state"`
	Nationality    string `json:"nationality"`
	Valid          bool   `json:"valid"`
}

// IsEmpty reports whether no field was decoded.
func (m MrzFields) IsEmpty() bool {
	return m.Surname == "" && m.GivenNames == "" && m.DocumentNumber == "" &&
		m.BirthDate == "" && m.IssuingState == "" && m.Nationality == ""
}

// FullName returns "given surname" with empty parts dropped.
func (m MrzFields) FullName() string {
	return strings.TrimSpace(strings.Join(strings.Fields(m.GivenNames+" "+m.Surname), " "))
}

// ExtractedRecord is the canonical identity record. Every structured field
// is independently nullable.
type ExtractedRecord struct {
	Name        *string `json:"name"`
	DateOfBirth *string `json:"date_of_birth"` // MM/DD/YYYY
	Address     *string `json:"address"`
	IDNumber    *string `json:"id_number"`
	State       *string `json:"state"`
	RawText     string  `json:"raw_text"`
}

// IsEmpty reports whether all five structured fields are null.
func (r *ExtractedRecord) IsEmpty() bool {
	return r == nil || (r.Name == nil && r.DateOfBirth == nil && r.Address == nil &&
		r.IDNumber == nil && r.State == nil)
}

// FillMissing copies fields from other into r where r has none.
func (r *ExtractedRecord) FillMissing(other *ExtractedRecord) {
	if other == nil {
		return
	}
	if r.Name == nil {
		r.Name = other.Name
	}
	if r.DateOfBirth == nil {
		r.DateOfBirth = other.DateOfBirth
	}
	if r.Address == nil {
		r.Address = other.Address
	}
	if r.IDNumber == nil {
		r.IDNumber = other.IDNumber
	}
	if r.State == nil {
		r.State = other.State
	}
}

// StringPtr returns nil for blank strings so empty extractions stay null.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Candidate is what an adapter hands to the orchestrator before gating.
type Candidate struct {
	Record     ExtractedRecord
	Confidence *float64
}

type AttemptOutcome string

const (
	OutcomeAccepted AttemptOutcome = "accepted"
	OutcomeRejected AttemptOutcome = "rejected"
	OutcomeErrored  AttemptOutcome = "errored"
)

// BackendAttempt records one backend invocation within a single request.
type BackendAttempt struct {
	Backend string           `json:"backend"`
	Outcome AttemptOutcome   `json:"outcome"`
	Record  *ExtractedRecord `json:"record,omitempty"`
	Err     error            `json:"-"`
}
