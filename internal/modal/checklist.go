package modal

import "time"

// RASCI is a responsibility-assignment matrix for one audit item.
type RASCI struct {
	Responsible string   `json:"responsible,omitempty" yaml:"responsible,omitempty"`
	Accountable string   `json:"accountable,omitempty" yaml:"accountable,omitempty"`
	Support     []string `json:"support,omitempty" yaml:"support,omitempty"`
	Consulted   []string `json:"consulted,omitempty" yaml:"consulted,omitempty"`
	Informed    []string `json:"informed,omitempty" yaml:"informed,omitempty"`
}

type Review struct {
	Reviewer   string    `json:"reviewer"`
	Comment    string    `json:"comment,omitempty"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

type AuditItem struct {
	ID               string           `json:"id" yaml:"id"`
	Title            string           `json:"title" yaml:"title"`
	Description      string           `json:"description,omitempty" yaml:"description,omitempty"`
	ObligationIDs    []string         `json:"obligationIds,omitempty" yaml:"obligation_ids,omitempty"`
	ControlRefs      []string         `json:"controlRefs,omitempty" yaml:"control_refs,omitempty"`
	ExpectedEvidence []string         `json:"expectedEvidence,omitempty" yaml:"expected_evidence,omitempty"`
	RASCI            RASCI            `json:"rasci" yaml:"rasci"`
	AutoArtifacts    []ScoredArtifact `json:"autoArtifacts,omitempty" yaml:"-"`
	CoverageScore    int              `json:"coverageScore" yaml:"-"`
	Status           ItemStatus       `json:"status" yaml:"status,omitempty"`
	DueDate          *time.Time       `json:"dueDate,omitempty" yaml:"due_date,omitempty"`
	Review           *Review          `json:"review,omitempty" yaml:"-"`
}

// Clone returns a copy that shares no slices with the receiver.
func (it AuditItem) Clone() AuditItem {
	out := it
	out.ObligationIDs = append([]string(nil), it.ObligationIDs...)
	out.ControlRefs = append([]string(nil), it.ControlRefs...)
	out.ExpectedEvidence = append([]string(nil), it.ExpectedEvidence...)
	out.RASCI.Support = append([]string(nil), it.RASCI.Support...)
	out.RASCI.Consulted = append([]string(nil), it.RASCI.Consulted...)
	out.RASCI.Informed = append([]string(nil), it.RASCI.Informed...)
	out.AutoArtifacts = append([]ScoredArtifact(nil), it.AutoArtifacts...)
	if it.DueDate != nil {
		d := *it.DueDate
		out.DueDate = &d
	}
	if it.Review != nil {
		r := *it.Review
		out.Review = &r
	}
	return out
}

// AuditChecklist is the aggregate handed to the persistence layer.
type AuditChecklist struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Scope     string          `json:"scope,omitempty" yaml:"scope,omitempty"`
	Period    Period          `json:"period" yaml:"period"`
	Items     []AuditItem     `json:"items" yaml:"items"`
	Status    ChecklistStatus `json:"status" yaml:"status,omitempty"`
	Version   int64           `json:"version" yaml:"-"`
	CreatedAt time.Time       `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time       `json:"updatedAt" yaml:"-"`
}

// ItemReview is a decision from the review workflow.
type ItemReview struct {
	ItemID   string     `json:"itemId"`
	Status   ItemStatus `json:"status"`
	Reviewer string     `json:"reviewer"`
	Comment  string     `json:"comment,omitempty"`
	At       time.Time  `json:"at"`
}
