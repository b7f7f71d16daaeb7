package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"compliance-evidence-service/internal/activities"
	"compliance-evidence-service/internal/audit"
	"compliance-evidence-service/internal/checklist"
	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/tasks"
)

const TaskQueue = "COMPLIANCE_RECON_TASK_QUEUE"

const (
	ItemReviewSignal = "ITEM_REVIEW_SIGNAL"
	TaskStatusSignal = "TASK_STATUS_SIGNAL"
	CloseSignal      = "CLOSE_CHECKLIST_SIGNAL"
)

// ReconcileRequest starts one reconciliation. AuditWindowEnd anchors
// statutory task deadlines; it defaults to the checklist period end.
type ReconcileRequest struct {
	Checklist      modal.AuditChecklist     `json:"checklist"`
	AuditWindowEnd time.Time                `json:"auditWindowEnd,omitempty"`
	Existing       []modal.EvidenceArtifact `json:"existing,omitempty"`
}

// CloseRequest ends the review loop.
type CloseRequest struct {
	Actor string `json:"actor"`
	Notes string `json:"notes,omitempty"`
}

type workflowState struct {
	Checklist modal.AuditChecklist `json:"checklist"`
	Tasks     []modal.Task         `json:"tasks"`
	Failures  []checklist.Failure  `json:"failures,omitempty"`
	Audit     []modal.AuditEvent   `json:"audit,omitempty"`
}

func ReconcileChecklist(ctx workflow.Context, req ReconcileRequest) (modal.AuditChecklist, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("workflow started", "checklistId", req.Checklist.ID)

	state := &workflowState{
		Checklist: req.Checklist,
		Tasks:     make([]modal.Task, 0),
		Audit:     make([]modal.AuditEvent, 0),
	}
	// pending holds events not yet written to the durable trail.
	var pending []modal.AuditEvent

	appendAudit := func(kind, message string, data map[string]any) {
		e := modal.AuditEvent{
			At:      workflow.Now(ctx),
			Kind:    kind,
			Message: message,
			Data:    data,
		}
		state.Audit = append(state.Audit, e)
		pending = append(pending, e)
	}

	_ = workflow.SetQueryHandler(ctx, "checklist", func() (modal.AuditChecklist, error) {
		return state.Checklist, nil
	})
	_ = workflow.SetQueryHandler(ctx, "tasks", func() ([]modal.Task, error) {
		return state.Tasks, nil
	})
	_ = workflow.SetQueryHandler(ctx, "audit_log", func() ([]modal.AuditEvent, error) {
		return state.Audit, nil
	})

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// Population runs once; failing sources are already isolated inside it.
	populateCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := pending
		pending = nil
		if err := workflow.ExecuteActivity(ctx, "RecordAudit", batch).Get(ctx, nil); err != nil {
			logger.Error("failed to record audit events", "error", err)
		}
	}

	persistChecklist := func() error {
		var saved modal.AuditChecklist
		if err := workflow.ExecuteActivity(ctx, "SaveChecklist", state.Checklist).Get(ctx, &saved); err != nil {
			return err
		}
		state.Checklist = saved
		return nil
	}

	persistTasks := func(ts []modal.Task) error {
		in := activities.SaveTasksInput{ChecklistID: state.Checklist.ID, Tasks: ts}
		return workflow.ExecuteActivity(ctx, "SaveTasks", in).Get(ctx, nil)
	}

	var res checklist.Result
	in := activities.PopulateInput{
		Items:    req.Checklist.Items,
		Period:   req.Checklist.Period,
		Existing: req.Existing,
	}
	if err := workflow.ExecuteActivity(populateCtx, "PopulateChecklist", in).Get(ctx, &res); err != nil {
		logger.Error("failed to populate checklist", "error", err)
		appendAudit(audit.KindError, "checklist population failed", map[string]any{"error": err.Error()})
		flush()
		return state.Checklist, err
	}
	state.Checklist.Items = res.Items
	state.Checklist.Status = modal.ChecklistInProgress
	state.Checklist.UpdatedAt = workflow.Now(ctx)
	state.Failures = res.Failures
	for _, f := range res.Failures {
		appendAudit(audit.KindSourceFailed, "evidence source failed", map[string]any{
			"source": f.Source,
			"error":  f.Error,
		})
	}
	appendAudit(audit.KindChecklistPopulated, "checklist populated from evidence sources", map[string]any{
		"items":     len(res.Items),
		"artifacts": len(res.Artifacts),
	})

	windowEnd := req.AuditWindowEnd
	if windowEnd.IsZero() {
		windowEnd = req.Checklist.Period.To
	}
	var generated tasks.Generated
	gen := activities.GenerateInput{Items: state.Checklist.Items, AuditWindowEnd: windowEnd, Now: workflow.Now(ctx)}
	if err := workflow.ExecuteActivity(ctx, "GenerateTasks", gen).Get(ctx, &generated); err != nil {
		logger.Error("failed to generate tasks", "error", err)
		appendAudit(audit.KindError, "task generation failed", map[string]any{"error": err.Error()})
		flush()
		return state.Checklist, err
	}
	state.Tasks = generated.Tasks
	if state.Tasks == nil {
		state.Tasks = make([]modal.Task, 0)
	}
	appendAudit(audit.KindTasksGenerated, "evidence collection tasks generated", map[string]any{
		"count":     len(generated.Tasks),
		"conflicts": len(generated.Conflicts),
	})
	for _, c := range generated.Conflicts {
		appendAudit(c.Kind, c.Message, c.Data)
	}

	if err := persistChecklist(); err != nil {
		logger.Error("failed to save checklist", "error", err)
		appendAudit(audit.KindError, "saving checklist failed", map[string]any{"error": err.Error()})
		flush()
		return state.Checklist, err
	}
	if err := persistTasks(state.Tasks); err != nil {
		logger.Error("failed to save tasks", "error", err)
		appendAudit(audit.KindError, "saving tasks failed", map[string]any{"error": err.Error()})
		flush()
		return state.Checklist, err
	}
	flush()

	var closed *CloseRequest
	selector := workflow.NewSelector(ctx)

	selector.AddReceive(workflow.GetSignalChannel(ctx, ItemReviewSignal), func(c workflow.ReceiveChannel, more bool) {
		var rev modal.ItemReview
		c.Receive(ctx, &rev)
		if rev.At.IsZero() {
			rev.At = workflow.Now(ctx)
		}
		items, err := checklist.ApplyReview(state.Checklist.Items, rev)
		if err != nil {
			appendAudit(audit.KindError, "review rejected", map[string]any{
				"itemId": rev.ItemID,
				"status": rev.Status,
				"error":  err.Error(),
			})
			return
		}
		prev := state.Checklist
		state.Checklist.Items = items
		state.Checklist.UpdatedAt = rev.At
		if err := persistChecklist(); err != nil {
			state.Checklist = prev
			appendAudit(audit.KindError, "saving review failed", map[string]any{"itemId": rev.ItemID, "error": err.Error()})
			return
		}
		appendAudit(audit.KindItemReviewed, "item reviewed", map[string]any{
			"itemId":   rev.ItemID,
			"status":   rev.Status,
			"reviewer": rev.Reviewer,
		})
	})

	selector.AddReceive(workflow.GetSignalChannel(ctx, TaskStatusSignal), func(c workflow.ReceiveChannel, more bool) {
		var change modal.TaskStatusChange
		c.Receive(ctx, &change)
		if change.ChangedAt.IsZero() {
			change.ChangedAt = workflow.Now(ctx)
		}
		idx := -1
		for i, t := range state.Tasks {
			if t.ID == change.TaskID {
				idx = i
				break
			}
		}
		if idx < 0 {
			appendAudit(audit.KindError, "status change for unknown task", map[string]any{"taskId": change.TaskID})
			return
		}
		updated, err := tasks.Transition(state.Tasks[idx], change)
		if err != nil {
			appendAudit(audit.KindError, "task status change rejected", map[string]any{
				"taskId": change.TaskID,
				"status": change.Status,
				"error":  err.Error(),
			})
			return
		}
		if err := persistTasks([]modal.Task{updated}); err != nil {
			appendAudit(audit.KindError, "saving task failed", map[string]any{"taskId": change.TaskID, "error": err.Error()})
			return
		}
		state.Tasks[idx] = updated
		appendAudit(audit.KindTaskStatusChanged, "task status changed", map[string]any{
			"taskId": change.TaskID,
			"status": change.Status,
			"actor":  change.Actor,
		})
	})

	selector.AddReceive(workflow.GetSignalChannel(ctx, CloseSignal), func(c workflow.ReceiveChannel, more bool) {
		var cr CloseRequest
		c.Receive(ctx, &cr)
		closed = &cr
	})

	for closed == nil {
		selector.Select(ctx)
		flush()
	}

	state.Checklist.Status = modal.ChecklistClosed
	state.Checklist.UpdatedAt = workflow.Now(ctx)
	if err := persistChecklist(); err != nil {
		logger.Error("failed to save closed checklist", "error", err)
		return state.Checklist, err
	}
	appendAudit(audit.KindClosed, "checklist closed", map[string]any{"actor": closed.Actor, "notes": closed.Notes})
	flush()
	logger.Info("workflow completed", "checklistId", state.Checklist.ID)
	return state.Checklist, nil
}
