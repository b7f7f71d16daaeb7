package modal

type Frequency string

const (
	FrequencyPerEvent  Frequency = "PER_EVENT"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyAnnual    Frequency = "ANNUAL"
)

type ItemStatus string

const (
	ItemUnstarted     ItemStatus = "UNSTARTED"
	ItemAutoPopulated ItemStatus = "AUTO_POPULATED"
	ItemNeedsReview   ItemStatus = "NEEDS_REVIEW"
	ItemReady         ItemStatus = "READY"
	ItemComplete      ItemStatus = "COMPLETE"
	ItemNotApplicable ItemStatus = "N/A"
)

type TaskStatus string

const (
	TaskOpen     TaskStatus = "OPEN"
	TaskBlocked  TaskStatus = "BLOCKED"
	TaskInReview TaskStatus = "IN_REVIEW"
	TaskDone     TaskStatus = "DONE"
)

type ChecklistStatus string

const (
	ChecklistDraft      ChecklistStatus = "DRAFT"
	ChecklistInProgress ChecklistStatus = "IN_PROGRESS"
	ChecklistClosed     ChecklistStatus = "CLOSED"
)

// DefaultRole is the fallback holder for approval and escalation when the
// responsibility matrix names nobody eligible.
const DefaultRole = "Compliance Owner"

// Unassigned is used when a RASCI matrix is entirely empty.
const Unassigned = "Unassigned"
