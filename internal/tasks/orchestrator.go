// Package tasks turns under-covered audit items into assignable work:
// it resolves the RASCI matrix, repairs segregation-of-duties conflicts
// and computes due dates in business days.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/log"

	"compliance-evidence-service/internal/audit"
	"compliance-evidence-service/internal/calendar"
	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/timetable"
)

const (
	// StatutoryMargin is the business-day buffer kept before a statutory
	// deadline.
	StatutoryMargin = 3
	DefaultSLADays  = 10
)

type Orchestrator struct {
	timetable *timetable.Resolver
	statutory map[string]struct{}
	logger    log.Logger
	newID     func() string
}

type Option func(*Orchestrator)

func WithLogger(l log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// New builds an orchestrator. statutory names the obligations whose
// registry offset drives the due date; other items get the default SLA.
func New(tt *timetable.Resolver, statutory []string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		timetable: tt,
		statutory: make(map[string]struct{}, len(statutory)),
		newID:     uuid.NewString,
	}
	for _, id := range statutory {
		o.statutory[id] = struct{}{}
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.NewStructuredLogger(slog.New(slog.DiscardHandler))
	}
	return o
}

// Generated holds the tasks for one audit and an SOD_CONFLICT event for each
// task whose approver had to be reassigned. The events are not recorded
// anywhere; the caller owns them.
type Generated struct {
	Tasks     []modal.Task       `json:"tasks"`
	Conflicts []modal.AuditEvent `json:"conflicts,omitempty"`
}

// GenerateTasksForAudit creates one task per item that is not fully covered
// and not N/A, in input order.
func (o *Orchestrator) GenerateTasksForAudit(ctx context.Context, items []modal.AuditItem, auditWindowEnd, now time.Time) Generated {
	var out Generated
	for _, it := range items {
		if it.CoverageScore >= 100 || it.Status == modal.ItemNotApplicable {
			continue
		}
		task, conflict := o.GenerateTask(ctx, it, auditWindowEnd, now)
		out.Tasks = append(out.Tasks, task)
		if conflict != nil {
			out.Conflicts = append(out.Conflicts, *conflict)
		}
	}
	return out
}

// GenerateTask builds the task for one item. The event is non-nil when the
// assignee was also the initial approver.
func (o *Orchestrator) GenerateTask(ctx context.Context, item modal.AuditItem, auditWindowEnd, now time.Time) (modal.Task, *modal.AuditEvent) {
	r := item.RASCI
	assignee, _ := Resolve(r, AssigneeCascade, "", modal.Unassigned)
	approver, via := Resolve(r, ApproverCascade, "", modal.DefaultRole)

	conflict := assignee == approver
	if conflict {
		approver, via = Resolve(r, ConflictApproverCascade, assignee, modal.DefaultRole)
	}

	due := o.dueDate(item, auditWindowEnd, now)
	escalate, _ := Resolve(r, []Strategy{ByAccountable}, "", modal.DefaultRole)

	task := modal.Task{
		ID:                 o.newID(),
		ItemID:             item.ID,
		Title:              fmt.Sprintf("Collect evidence for %s", item.Title),
		RequiredEvidence:   missingEvidence(item),
		Assignee:           assignee,
		Approver:           approver,
		Watchers:           watchers(r, assignee, approver),
		DueDate:            due,
		SLADays:            calendar.BusinessDaysBetween(now, due),
		EscalateTo:         escalate,
		Status:             modal.TaskOpen,
		ConflictOfInterest: conflict,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if !conflict {
		return task, nil
	}
	e := o.conflictEvent(task, via, now)
	return task, &e
}

// dueDate uses the tightest statutory offset among the item's obligations,
// less the safety margin, counted in business days from the audit window
// end. Items without a registered statutory obligation get the default
// SLA from now. The result is never before now.
func (o *Orchestrator) dueDate(item modal.AuditItem, auditWindowEnd, now time.Time) time.Time {
	offset := -1
	for _, id := range item.ObligationIDs {
		if _, ok := o.statutory[id]; !ok {
			continue
		}
		ob, ok := o.timetable.Obligation(id)
		if !ok {
			continue
		}
		if offset < 0 || ob.OffsetDays < offset {
			offset = ob.OffsetDays
		}
	}

	var due time.Time
	if offset >= 0 {
		due = calendar.AddBusinessDays(auditWindowEnd, max(offset-StatutoryMargin, 0))
	} else {
		due = calendar.AddBusinessDays(now, DefaultSLADays)
	}
	if due.Before(now) {
		due = now
	}
	return due
}

// missingEvidence lists expected evidence not named in any attached
// artifact's title. A task always carries at least one requirement.
func missingEvidence(item modal.AuditItem) []string {
	var missing []string
	for _, want := range item.ExpectedEvidence {
		needle := strings.ToLower(want)
		found := false
		for _, c := range item.AutoArtifacts {
			if strings.Contains(strings.ToLower(c.Artifact.Title), needle) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}
	if len(missing) == 0 {
		missing = append(missing, item.ExpectedEvidence...)
	}
	if len(missing) == 0 {
		missing = []string{fmt.Sprintf("Evidence supporting %s", item.Title)}
	}
	return missing
}

func watchers(r modal.RASCI, assignee, approver string) []string {
	seen := map[string]struct{}{assignee: {}, approver: {}}
	var out []string
	for _, group := range [][]string{r.Support, r.Consulted, r.Informed} {
		for _, id := range group {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func (o *Orchestrator) conflictEvent(task modal.Task, via string, now time.Time) modal.AuditEvent {
	o.logger.Warn("conflict of interest",
		"taskId", task.ID, "itemId", task.ItemID, "assignee", task.Assignee, "approver", task.Approver, "resolvedVia", via)
	return modal.AuditEvent{
		At:      now,
		Kind:    audit.KindConflict,
		Message: "assignee was also the initial approver; approver reassigned",
		Data: map[string]any{
			"taskId":      task.ID,
			"itemId":      task.ItemID,
			"assignee":    task.Assignee,
			"approver":    task.Approver,
			"resolvedVia": via,
		},
	}
}

// Transition applies an externally triggered status change.
func Transition(task modal.Task, change modal.TaskStatusChange) (modal.Task, error) {
	if change.TaskID != task.ID {
		return task, fmt.Errorf("%w: change for %s applied to %s", modal.ErrInvalidTransition, change.TaskID, task.ID)
	}
	if err := modal.CanTransitionTask(task.Status, change.Status); err != nil {
		return task, err
	}
	task.Status = change.Status
	task.UpdatedAt = change.ChangedAt
	return task, nil
}
