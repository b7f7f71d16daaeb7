package activities

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"compliance-evidence-service/internal/audit"
	"compliance-evidence-service/internal/checklist"
	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/store"
	"compliance-evidence-service/internal/tasks"
)

// VersionConflictErrorType is the application error type reported when a
// checklist write loses an optimistic-version race. Such errors are not
// retried.
const VersionConflictErrorType = "VersionConflict"

type PopulateInput struct {
	Items    []modal.AuditItem        `json:"items"`
	Period   modal.Period             `json:"period"`
	Existing []modal.EvidenceArtifact `json:"existing,omitempty"`
}

type GenerateInput struct {
	Items          []modal.AuditItem `json:"items"`
	AuditWindowEnd time.Time         `json:"auditWindowEnd"`
	Now            time.Time         `json:"now"`
}

type SaveTasksInput struct {
	ChecklistID string       `json:"checklistId"`
	Tasks       []modal.Task `json:"tasks"`
}

type Activities struct {
	Populator    *checklist.Populator
	Orchestrator *tasks.Orchestrator
	Store        store.Store
	Trail        audit.Trail
}

func (a *Activities) PopulateChecklist(ctx context.Context, in PopulateInput) (checklist.Result, error) {
	res, err := a.Populator.Populate(ctx, in.Items, in.Period, in.Existing)
	if err != nil {
		if errors.Is(err, modal.ErrInvalidPeriod) {
			return checklist.Result{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidPeriod", err)
		}
		return checklist.Result{}, err
	}
	activity.GetLogger(ctx).Info("checklist populated",
		"items", len(res.Items), "artifacts", len(res.Artifacts), "failedSources", len(res.Failures))
	return res, nil
}

// GenerateTasks has no side effects; conflict events travel back to the
// workflow with the tasks.
func (a *Activities) GenerateTasks(ctx context.Context, in GenerateInput) (tasks.Generated, error) {
	out := a.Orchestrator.GenerateTasksForAudit(ctx, in.Items, in.AuditWindowEnd, in.Now)
	activity.GetLogger(ctx).Info("tasks generated", "count", len(out.Tasks), "conflicts", len(out.Conflicts))
	return out, nil
}

func (a *Activities) SaveChecklist(ctx context.Context, cl modal.AuditChecklist) (modal.AuditChecklist, error) {
	saved, err := a.Store.SaveChecklist(ctx, cl)
	if errors.Is(err, store.ErrVersionConflict) {
		return modal.AuditChecklist{}, temporal.NewNonRetryableApplicationError(err.Error(), VersionConflictErrorType, err)
	}
	if err != nil {
		return modal.AuditChecklist{}, err
	}
	activity.GetLogger(ctx).Info("checklist saved", "checklistId", saved.ID, "version", saved.Version)
	return saved, nil
}

func (a *Activities) SaveTasks(ctx context.Context, in SaveTasksInput) error {
	return a.Store.SaveTasks(ctx, in.ChecklistID, in.Tasks)
}

func (a *Activities) RecordAudit(ctx context.Context, events []modal.AuditEvent) error {
	for _, e := range events {
		if err := a.Trail.Append(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
