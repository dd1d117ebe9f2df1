package service

import (
	"fmt"

	"github.com/Aashish23092/id-document-scanner/config"
	"github.com/Aashish23092/id-document-scanner/dto"
)

// GatePolicy is the quality gate applied to a backend's candidates.
// MinConfidence <= 0 disables the confidence floor. A candidate with every
// structured field null is always rejected.
type GatePolicy struct {
	MinConfidence float64
}

// GatePolicyFromConfig converts a configured gate.
func GatePolicyFromConfig(c config.GateConfig) GatePolicy {
	return GatePolicy{MinConfidence: c.MinConfidence}
}

// Evaluate returns an ErrLowConfidence error when the candidate must not
// reach the caller. Unknown confidence never trips the floor.
func (p GatePolicy) Evaluate(c dto.Candidate) error {
	if c.Record.IsEmpty() {
		return fmt.Errorf("%w: no structured fields extracted", dto.ErrLowConfidence)
	}
	if p.MinConfidence > 0 && c.Confidence != nil && *c.Confidence < p.MinConfidence {
		return fmt.Errorf("%w: confidence %.1f below %.1f", dto.ErrLowConfidence, *c.Confidence, p.MinConfidence)
	}
	return nil
}
