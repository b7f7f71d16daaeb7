package modal

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned when a period starts after it ends.
var ErrInvalidPeriod = errors.New("modal: invalid period")

// PeriodError carries the offending bounds and unwraps to ErrInvalidPeriod.
type PeriodError struct {
	From time.Time
	To   time.Time
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("%s: from %s is after to %s", ErrInvalidPeriod, e.From.Format(time.DateOnly), e.To.Format(time.DateOnly))
}

func (e *PeriodError) Unwrap() error { return ErrInvalidPeriod }

type Period struct {
	From time.Time `json:"from" yaml:"from"`
	To   time.Time `json:"to" yaml:"to"`
}

func (p Period) Validate() error {
	if p.From.After(p.To) {
		return &PeriodError{From: p.From, To: p.To}
	}
	return nil
}

// EvidenceArtifact is read-only once created; only Notes may be annotated later.
type EvidenceArtifact struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	Source        string    `json:"source" yaml:"source"`
	Tags          []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	ObligationIDs []string  `json:"obligationIds,omitempty" yaml:"obligation_ids,omitempty"`
	ControlRefs   []string  `json:"controlRefs,omitempty" yaml:"control_refs,omitempty"`
	Period        *Period   `json:"period,omitempty" yaml:"period,omitempty"`
	CreatedAt     time.Time `json:"createdAt" yaml:"created_at"`
	Confidence    *float64  `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Notes         string    `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ScoredArtifact is a candidate attached to an audit item.
type ScoredArtifact struct {
	Artifact EvidenceArtifact `json:"artifact"`
	Score    float64          `json:"score"`
}
