// Package audit stores the append-only audit trail: review decisions,
// source failures and conflict-of-interest warnings.
package audit

import (
	"context"
	"sync"

	"compliance-evidence-service/internal/modal"
)

// Event kinds.
const (
	KindChecklistPopulated = "CHECKLIST_POPULATED"
	KindSourceFailed       = "SOURCE_FAILED"
	KindTasksGenerated     = "TASKS_GENERATED"
	KindConflict           = "SOD_CONFLICT"
	KindItemReviewed       = "ITEM_REVIEWED"
	KindTaskStatusChanged  = "TASK_STATUS_CHANGED"
	KindClosed             = "CHECKLIST_CLOSED"
	KindError              = "ERROR"
)

type Trail interface {
	Append(ctx context.Context, e modal.AuditEvent) error
	List(ctx context.Context) ([]modal.AuditEvent, error)
}

type MemoryTrail struct {
	mu     sync.Mutex
	events []modal.AuditEvent
}

func NewMemoryTrail() *MemoryTrail { return &MemoryTrail{} }

func (m *MemoryTrail) Append(ctx context.Context, e modal.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *MemoryTrail) List(ctx context.Context) ([]modal.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]modal.AuditEvent(nil), m.events...), nil
}
