package tasks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-evidence-service/internal/audit"
	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/timetable"
)

// 2025-01-01 is a Wednesday.
var (
	now       = time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	windowEnd = time.Date(2025, time.January, 10, 17, 0, 0, 0, time.UTC)
)

func newOrchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()
	tt, err := timetable.NewResolver([]modal.Obligation{
		{ID: "quarterly-SG", Frequency: modal.FrequencyQuarterly, OffsetDays: 28, Anchor: modal.AustralianFiscalYear},
		{ID: "monthly-PAYGW", Frequency: modal.FrequencyMonthly, OffsetDays: 21},
		{ID: "event-STP", Frequency: modal.FrequencyPerEvent},
	})
	require.NoError(t, err)
	n := 0
	opts = append([]Option{WithIDGenerator(func() string { n++; return fmt.Sprintf("task-%d", n) })}, opts...)
	return New(tt, []string{"quarterly-SG", "monthly-PAYGW", "unregistered"}, opts...)
}

func item(r modal.RASCI) modal.AuditItem {
	return modal.AuditItem{
		ID:               "item-1",
		Title:            "STP reporting",
		ExpectedEvidence: []string{"STP pay event receipt", "SuperStream confirmation"},
		RASCI:            r,
		Status:           modal.ItemNeedsReview,
	}
}

func TestGenerateTask_ConflictFallsBackToDefaultRole(t *testing.T) {
	o := newOrchestrator(t)

	task, event := o.GenerateTask(context.Background(), item(modal.RASCI{Responsible: "Alice", Accountable: "Alice"}), windowEnd, now)
	assert.Equal(t, "Alice", task.Assignee)
	assert.Equal(t, modal.DefaultRole, task.Approver)
	assert.True(t, task.ConflictOfInterest)
	assert.Equal(t, "Alice", task.EscalateTo)
	assert.Equal(t, modal.TaskOpen, task.Status)

	require.NotNil(t, event)
	assert.Equal(t, audit.KindConflict, event.Kind)
	assert.Equal(t, now, event.At)
	assert.Equal(t, "task-1", event.Data["taskId"])
	assert.Equal(t, "fallback", event.Data["resolvedVia"])
}

func TestGenerateTask_ConflictReassignsToSupport(t *testing.T) {
	o := newOrchestrator(t)
	task, _ := o.GenerateTask(context.Background(), item(modal.RASCI{Responsible: "Alice", Accountable: "Alice", Support: []string{"Bob"}}), windowEnd, now)
	assert.Equal(t, "Alice", task.Assignee)
	assert.Equal(t, "Bob", task.Approver)
	assert.True(t, task.ConflictOfInterest)
	assert.Empty(t, task.Watchers)
}

func TestGenerateTask_ConflictSkipsAssigneeInSupport(t *testing.T) {
	o := newOrchestrator(t)
	r := modal.RASCI{Support: []string{"Alice"}, Consulted: []string{"Alice", "Carol"}}
	task, _ := o.GenerateTask(context.Background(), item(r), windowEnd, now)
	// Assignee and initial approver are both the first Support member.
	assert.Equal(t, "Alice", task.Assignee)
	assert.Equal(t, "Carol", task.Approver)
	assert.True(t, task.ConflictOfInterest)
	assert.Equal(t, modal.DefaultRole, task.EscalateTo)
}

func TestGenerateTask_NoConflict(t *testing.T) {
	o := newOrchestrator(t)
	r := modal.RASCI{
		Responsible: "Alice",
		Accountable: "Dana",
		Support:     []string{"Bob", "Alice"},
		Consulted:   []string{"Carol", "Dana"},
		Informed:    []string{"Erin", "Bob"},
	}
	task, event := o.GenerateTask(context.Background(), item(r), windowEnd, now)
	assert.Nil(t, event)
	assert.Equal(t, "Alice", task.Assignee)
	assert.Equal(t, "Dana", task.Approver)
	assert.False(t, task.ConflictOfInterest)
	assert.Equal(t, []string{"Bob", "Carol", "Erin"}, task.Watchers)
}

func TestResolve_AssigneeCascade(t *testing.T) {
	cases := []struct {
		r    modal.RASCI
		want string
		via  string
	}{
		{modal.RASCI{Responsible: "r", Accountable: "a"}, "r", "responsible"},
		{modal.RASCI{Accountable: "a", Support: []string{"s"}}, "a", "accountable"},
		{modal.RASCI{Support: []string{"", "s"}, Consulted: []string{"c"}}, "s", "support"},
		{modal.RASCI{Consulted: []string{"c"}, Informed: []string{"i"}}, "c", "consulted"},
		{modal.RASCI{Informed: []string{"i"}}, "i", "informed"},
		{modal.RASCI{}, modal.Unassigned, "fallback"},
	}
	for _, tc := range cases {
		got, via := Resolve(tc.r, AssigneeCascade, "", modal.Unassigned)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.via, via)
	}
}

func TestResolve_ApproverCascade(t *testing.T) {
	got, via := Resolve(modal.RASCI{Support: []string{"s"}, Consulted: []string{"c"}}, ApproverCascade, "", modal.DefaultRole)
	assert.Equal(t, "s", got)
	assert.Equal(t, "support", via)

	got, _ = Resolve(modal.RASCI{Consulted: []string{"c"}}, ApproverCascade, "", modal.DefaultRole)
	assert.Equal(t, modal.DefaultRole, got)
}

func TestGenerateTask_DefaultSLA(t *testing.T) {
	o := newOrchestrator(t)
	it := item(modal.RASCI{Responsible: "Alice", Accountable: "Dana"})
	it.ObligationIDs = []string{"event-STP"}

	task, _ := o.GenerateTask(context.Background(), it, windowEnd, now)
	assert.Equal(t, time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC), task.DueDate)
	// weekdays strictly between 1 and 15 January
	assert.Equal(t, 9, task.SLADays)
}

func TestGenerateTask_StatutoryDueDate(t *testing.T) {
	o := newOrchestrator(t)
	it := item(modal.RASCI{Responsible: "Alice", Accountable: "Dana"})
	it.ObligationIDs = []string{"event-STP", "quarterly-SG"}

	task, _ := o.GenerateTask(context.Background(), it, windowEnd, now)
	// 28 - 3 = 25 business days after Friday 10 January.
	assert.Equal(t, time.Date(2025, time.February, 14, 17, 0, 0, 0, time.UTC), task.DueDate)
	assert.Equal(t, 31, task.SLADays)

	it.ObligationIDs = []string{"quarterly-SG", "monthly-PAYGW"}
	task, _ = o.GenerateTask(context.Background(), it, windowEnd, now)
	// Tightest offset wins: 21 - 3 = 18 business days.
	assert.Equal(t, time.Date(2025, time.February, 5, 17, 0, 0, 0, time.UTC), task.DueDate)
}

func TestGenerateTask_UnregisteredStatutoryUsesDefault(t *testing.T) {
	o := newOrchestrator(t)
	it := item(modal.RASCI{})
	it.ObligationIDs = []string{"unregistered"}
	task, _ := o.GenerateTask(context.Background(), it, windowEnd, now)
	assert.Equal(t, 9, task.SLADays)
}

func TestGenerateTask_DueNeverBeforeNow(t *testing.T) {
	o := newOrchestrator(t)
	it := item(modal.RASCI{})
	it.ObligationIDs = []string{"monthly-PAYGW"}
	pastWindow := now.AddDate(0, -3, 0)

	task, _ := o.GenerateTask(context.Background(), it, pastWindow, now)
	assert.False(t, task.DueDate.Before(now))
	assert.Equal(t, now, task.DueDate)
	assert.Zero(t, task.SLADays)
}

func TestGenerateTask_MissingEvidence(t *testing.T) {
	o := newOrchestrator(t)
	it := item(modal.RASCI{})
	it.AutoArtifacts = []modal.ScoredArtifact{{Artifact: modal.EvidenceArtifact{ID: "a", Title: "Q1 superstream CONFIRMATION batch"}, Score: 0.6}}
	task, _ := o.GenerateTask(context.Background(), it, windowEnd, now)
	assert.Equal(t, []string{"STP pay event receipt"}, task.RequiredEvidence)

	it.AutoArtifacts = append(it.AutoArtifacts, modal.ScoredArtifact{Artifact: modal.EvidenceArtifact{ID: "b", Title: "STP pay event receipt #44"}, Score: 0.6})
	task, _ = o.GenerateTask(context.Background(), it, windowEnd, now)
	assert.Equal(t, it.ExpectedEvidence, task.RequiredEvidence)

	it.ExpectedEvidence = nil
	task, _ = o.GenerateTask(context.Background(), it, windowEnd, now)
	assert.Equal(t, []string{"Evidence supporting STP reporting"}, task.RequiredEvidence)
}

func TestGenerateTasksForAudit_FiltersAndKeepsOrder(t *testing.T) {
	o := newOrchestrator(t)
	mk := func(id string, coverage int, status modal.ItemStatus) modal.AuditItem {
		it := item(modal.RASCI{Responsible: "Alice"})
		it.ID, it.CoverageScore, it.Status = id, coverage, status
		return it
	}
	items := []modal.AuditItem{
		mk("c", 50, modal.ItemNeedsReview),
		mk("full", 100, modal.ItemAutoPopulated),
		mk("na", 0, modal.ItemNotApplicable),
		mk("a", 0, modal.ItemUnstarted),
	}
	items[3].RASCI.Accountable = "Alice"

	got := o.GenerateTasksForAudit(context.Background(), items, windowEnd, now)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "c", got.Tasks[0].ItemID)
	assert.Equal(t, "a", got.Tasks[1].ItemID)
	assert.NotEqual(t, got.Tasks[0].ID, got.Tasks[1].ID)
	for _, task := range got.Tasks {
		assert.NotEmpty(t, task.RequiredEvidence)
	}

	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, audit.KindConflict, got.Conflicts[0].Kind)
	assert.Equal(t, got.Tasks[1].ID, got.Conflicts[0].Data["taskId"])
	assert.Equal(t, "a", got.Conflicts[0].Data["itemId"])
}

func TestGenerateTask_DefaultIDsAreUUIDs(t *testing.T) {
	tt, err := timetable.NewResolver(nil)
	require.NoError(t, err)
	task, _ := New(tt, nil).GenerateTask(context.Background(), item(modal.RASCI{}), windowEnd, now)
	assert.Len(t, task.ID, 36)
}

func TestTransition(t *testing.T) {
	task := modal.Task{ID: "t1", Status: modal.TaskOpen}
	at := now.Add(time.Hour)

	got, err := Transition(task, modal.TaskStatusChange{TaskID: "t1", Status: modal.TaskInReview, ChangedAt: at})
	require.NoError(t, err)
	assert.Equal(t, modal.TaskInReview, got.Status)
	assert.Equal(t, at, got.UpdatedAt)
	assert.Equal(t, modal.TaskOpen, task.Status)

	_, err = Transition(got, modal.TaskStatusChange{TaskID: "t1", Status: modal.TaskBlocked})
	assert.ErrorIs(t, err, modal.ErrInvalidTransition)

	_, err = Transition(got, modal.TaskStatusChange{TaskID: "other", Status: modal.TaskDone})
	assert.ErrorIs(t, err, modal.ErrInvalidTransition)
}
