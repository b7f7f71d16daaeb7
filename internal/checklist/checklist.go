package checklist

import (
	"errors"
	"fmt"
	"time"

	"compliance-evidence-service/internal/modal"
)

var (
	ErrItemNotFound  = errors.New("checklist: item not found")
	ErrDuplicateItem = errors.New("checklist: duplicate item id")
)

// New instantiates a checklist for a period. Items without a status start
// UNSTARTED.
func New(id, name, scope string, period modal.Period, items []modal.AuditItem, now time.Time) (modal.AuditChecklist, error) {
	if err := period.Validate(); err != nil {
		return modal.AuditChecklist{}, err
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]modal.AuditItem, len(items))
	for i, it := range items {
		if _, dup := seen[it.ID]; dup {
			return modal.AuditChecklist{}, fmt.Errorf("%w: %s", ErrDuplicateItem, it.ID)
		}
		seen[it.ID] = struct{}{}
		out[i] = it.Clone()
		if out[i].Status == "" {
			out[i].Status = modal.ItemUnstarted
		}
	}
	return modal.AuditChecklist{
		ID:        id,
		Name:      name,
		Scope:     scope,
		Period:    period,
		Items:     out,
		Status:    modal.ChecklistDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyReview records a reviewer's decision on one item and returns the
// updated items. The input slice is not modified.
func ApplyReview(items []modal.AuditItem, rev modal.ItemReview) ([]modal.AuditItem, error) {
	idx := -1
	for i, it := range items {
		if it.ID == rev.ItemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, rev.ItemID)
	}
	if err := modal.CanTransitionItem(items[idx].Status, rev.Status); err != nil {
		return nil, err
	}

	out := make([]modal.AuditItem, len(items))
	copy(out, items)
	updated := items[idx].Clone()
	updated.Status = rev.Status
	updated.Review = &modal.Review{Reviewer: rev.Reviewer, Comment: rev.Comment, ReviewedAt: rev.At}
	out[idx] = updated
	return out, nil
}
