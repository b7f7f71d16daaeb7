package modal

import "time"

type Task struct {
	ID                 string     `json:"id"`
	ItemID             string     `json:"itemId"`
	Title              string     `json:"title"`
	RequiredEvidence   []string   `json:"requiredEvidence"`
	Assignee           string     `json:"assignee"`
	Approver           string     `json:"approver"`
	Watchers           []string   `json:"watchers,omitempty"`
	DueDate            time.Time  `json:"dueDate"`
	SLADays            int        `json:"slaDays"`
	EscalateTo         string     `json:"escalateTo"`
	Status             TaskStatus `json:"status"`
	ConflictOfInterest bool       `json:"conflictOfInterest"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type TaskStatusChange struct {
	TaskID    string     `json:"taskId"`
	Status    TaskStatus `json:"status"`
	Actor     string     `json:"actor"`
	Notes     string     `json:"notes,omitempty"`
	ChangedAt time.Time  `json:"changedAt"`
}

type AuditEvent struct {
	At      time.Time      `json:"at"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}
