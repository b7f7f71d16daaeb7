package modal

import "time"

// FiscalAnchor is the fiscal year-end month/day. Quarterly obligations use
// the four quarter ends that finish on this date.
type FiscalAnchor struct {
	Month time.Month `json:"month" yaml:"month"`
	Day   int        `json:"day" yaml:"day"`
}

// AustralianFiscalYear ends on 30 June.
var AustralianFiscalYear = FiscalAnchor{Month: time.June, Day: 30}

type Obligation struct {
	ID          string       `json:"id" yaml:"id"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Frequency   Frequency    `json:"frequency" yaml:"frequency"`
	OffsetDays  int          `json:"offsetDays" yaml:"offset_days"`
	Anchor      FiscalAnchor `json:"anchor" yaml:"anchor"`
}
