// Package store persists checklists and tasks. The engine hands it whole
// aggregates; checklist writes use optimistic versioning so two concurrent
// regenerations of the same checklist cannot silently overwrite each other.
// Task writes are last-writer-wins per task.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"compliance-evidence-service/internal/modal"
)

var (
	ErrNotFound        = errors.New("store: not found")
	ErrVersionConflict = errors.New("store: version conflict")
)

type Store interface {
	GetChecklist(ctx context.Context, id string) (modal.AuditChecklist, error)
	// SaveChecklist stores cl if cl.Version equals the stored version (0 for
	// a new checklist) and returns it with the version bumped.
	SaveChecklist(ctx context.Context, cl modal.AuditChecklist) (modal.AuditChecklist, error)
	GetTask(ctx context.Context, id string) (modal.Task, error)
	SaveTasks(ctx context.Context, checklistID string, tasks []modal.Task) error
	ListTasks(ctx context.Context, checklistID string) ([]modal.Task, error)
	Close() error
}

// checkVersion returns cl ready to write over current (nil when absent).
func checkVersion(current *modal.AuditChecklist, cl modal.AuditChecklist) (modal.AuditChecklist, error) {
	var have int64
	if current != nil {
		have = current.Version
	}
	if cl.Version != have {
		return modal.AuditChecklist{}, fmt.Errorf("%w: checklist %s at version %d, write based on %d", ErrVersionConflict, cl.ID, have, cl.Version)
	}
	cl.Version = have + 1
	return cl, nil
}

func sortTasks(tasks []modal.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		return a.ID < b.ID
	})
}
