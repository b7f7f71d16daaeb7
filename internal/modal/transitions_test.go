package modal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionItem(t *testing.T) {
	cases := []struct {
		from, to ItemStatus
		ok       bool
	}{
		{ItemNeedsReview, ItemReady, true},
		{ItemAutoPopulated, ItemReady, true},
		{ItemReady, ItemComplete, true},
		{ItemComplete, ItemNotApplicable, true},
		{ItemUnstarted, ItemComplete, false},
		{ItemComplete, ItemReady, false},
		{ItemNotApplicable, ItemNotApplicable, false},
		{ItemNotApplicable, ItemReady, false},
	}
	for _, tc := range cases {
		err := CanTransitionItem(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestCanTransitionTask_DoneIsTerminal(t *testing.T) {
	require.NoError(t, CanTransitionTask(TaskOpen, TaskInReview))
	require.NoError(t, CanTransitionTask(TaskInReview, TaskDone))
	for _, to := range []TaskStatus{TaskOpen, TaskBlocked, TaskInReview} {
		assert.ErrorIs(t, CanTransitionTask(TaskDone, to), ErrInvalidTransition)
	}
	assert.Error(t, CanTransitionTask(TaskOpen, TaskDone))
}

func TestPeriodValidate(t *testing.T) {
	from := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, Period{From: from, To: to}.Validate())
	require.NoError(t, Period{From: from, To: from}.Validate())

	err := Period{From: to, To: from}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
	var pe *PeriodError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, to, pe.From)
}

func TestAuditItemClone_DoesNotShareSlices(t *testing.T) {
	due := time.Date(2024, 10, 28, 0, 0, 0, 0, time.UTC)
	it := AuditItem{
		ID:               "item-1",
		ExpectedEvidence: []string{"a"},
		RASCI:            RASCI{Support: []string{"bob"}},
		DueDate:          &due,
	}
	cp := it.Clone()
	cp.ExpectedEvidence[0] = "b"
	cp.RASCI.Support[0] = "carol"
	*cp.DueDate = due.AddDate(0, 0, 1)

	assert.Equal(t, "a", it.ExpectedEvidence[0])
	assert.Equal(t, "bob", it.RASCI.Support[0])
	assert.Equal(t, due, *it.DueDate)
}
