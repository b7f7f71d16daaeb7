package checklist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/scoring"
	"compliance-evidence-service/internal/sources"
)

var (
	now    = time.Date(2024, time.October, 15, 12, 0, 0, 0, time.UTC)
	period = modal.Period{
		From: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC),
	}
)

func stpItem() modal.AuditItem {
	return modal.AuditItem{
		ID:               "item-stp",
		Title:            "Single Touch Payroll reporting",
		ObligationIDs:    []string{"event-STP"},
		ExpectedEvidence: []string{"STP pay event receipt", "SuperStream confirmation"},
		RASCI:            modal.RASCI{Responsible: "alice", Support: []string{"bob"}},
		Status:           modal.ItemUnstarted,
	}
}

func stpArtifact() modal.EvidenceArtifact {
	return modal.EvidenceArtifact{
		ID:            "art-stp",
		Title:         "Payroll lodgement",
		Source:        sources.STPLodgement,
		Tags:          []string{"STP", "pay-event"},
		ObligationIDs: []string{"event-STP"},
		CreatedAt:     period.From,
	}
}

func unrelatedArtifact() modal.EvidenceArtifact {
	return modal.EvidenceArtifact{ID: "art-lease", Title: "Office lease", Source: sources.BASLodgement, CreatedAt: period.From}
}

func staticFeed(name string, artifacts ...modal.EvidenceArtifact) sources.Source {
	return sources.FuncSource{SourceName: name, Fn: func(context.Context, modal.Period) ([]modal.EvidenceArtifact, error) {
		return artifacts, nil
	}}
}

func newPopulator(t *testing.T, srcs ...sources.Source) *Populator {
	t.Helper()
	reg, err := sources.NewRegistry(srcs...)
	require.NoError(t, err)
	return NewPopulator(reg, scoring.New(scoring.DefaultWeights, nil), WithClock(func() time.Time { return now }))
}

func TestPopulate_NeedsReviewFromLinkedArtifact(t *testing.T) {
	p := newPopulator(t, staticFeed(sources.STPLodgement, stpArtifact()), staticFeed(sources.BASLodgement, unrelatedArtifact()))

	res, err := p.Populate(context.Background(), []modal.AuditItem{stpItem()}, period, nil)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.Len(t, res.Artifacts, 2)

	it := res.Items[0]
	require.Len(t, it.AutoArtifacts, 1)
	assert.Equal(t, "art-stp", it.AutoArtifacts[0].Artifact.ID)
	assert.GreaterOrEqual(t, it.AutoArtifacts[0].Score, 0.50)
	assert.Equal(t, modal.ItemNeedsReview, it.Status)
	assert.Equal(t, 50, it.CoverageScore)
	assert.Empty(t, res.Failures)
}

func TestPopulate_AutoPopulatedAtThreshold(t *testing.T) {
	strong := stpArtifact()
	strong.Title = "STP pay event receipt"
	strong.Tags = []string{"SuperStream", "confirmation"}
	strong.CreatedAt = now.AddDate(0, 0, -1)
	p := newPopulator(t, staticFeed(sources.STPLodgement, strong))

	res, err := p.Populate(context.Background(), []modal.AuditItem{stpItem()}, period, nil)
	require.NoError(t, err)
	it := res.Items[0]
	require.Len(t, it.AutoArtifacts, 1)
	assert.GreaterOrEqual(t, it.AutoArtifacts[0].Score, scoring.AutoPopulateThreshold)
	assert.Equal(t, modal.ItemAutoPopulated, it.Status)
}

func TestPopulate_NoCandidatesStaysUnstarted(t *testing.T) {
	p := newPopulator(t, staticFeed(sources.BASLodgement, unrelatedArtifact()))
	res, err := p.Populate(context.Background(), []modal.AuditItem{stpItem()}, period, nil)
	require.NoError(t, err)
	assert.Equal(t, modal.ItemUnstarted, res.Items[0].Status)
	assert.Zero(t, res.Items[0].CoverageScore)
	assert.Empty(t, res.Items[0].AutoArtifacts)
}

func TestPopulate_FailingSourcesAreIsolated(t *testing.T) {
	failing := sources.FuncSource{SourceName: sources.BASLodgement, Fn: func(context.Context, modal.Period) ([]modal.EvidenceArtifact, error) {
		return []modal.EvidenceArtifact{unrelatedArtifact()}, errors.New("portal unavailable")
	}}
	panicking := sources.FuncSource{SourceName: sources.PAYGWithholding, Fn: func(context.Context, modal.Period) ([]modal.EvidenceArtifact, error) {
		panic("nil feed")
	}}
	p := newPopulator(t, failing, staticFeed(sources.STPLodgement, stpArtifact()), panicking)

	res, err := p.Populate(context.Background(), []modal.AuditItem{stpItem()}, period, nil)
	require.NoError(t, err)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, sources.BASLodgement, res.Failures[0].Source)
	assert.Equal(t, "portal unavailable", res.Failures[0].Error)
	assert.Equal(t, sources.PAYGWithholding, res.Failures[1].Source)
	assert.Contains(t, res.Failures[1].Error, "panicked")

	// Partial output from the failing source is discarded.
	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, "art-stp", res.Artifacts[0].ID)
	assert.Equal(t, modal.ItemNeedsReview, res.Items[0].Status)
}

func TestPopulate_SourcesFetchConcurrently(t *testing.T) {
	aStarted, bStarted := make(chan struct{}), make(chan struct{})
	waitFor := func(mine, other chan struct{}) func(context.Context, modal.Period) ([]modal.EvidenceArtifact, error) {
		return func(context.Context, modal.Period) ([]modal.EvidenceArtifact, error) {
			close(mine)
			select {
			case <-other:
				return nil, nil
			case <-time.After(2 * time.Second):
				return nil, errors.New("sources were fetched sequentially")
			}
		}
	}
	p := newPopulator(t,
		sources.FuncSource{SourceName: "a", Fn: waitFor(aStarted, bStarted)},
		sources.FuncSource{SourceName: "b", Fn: waitFor(bStarted, aStarted)},
	)
	res, err := p.Populate(context.Background(), nil, period, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
}

func TestPopulate_InvalidPeriod(t *testing.T) {
	called := false
	src := sources.FuncSource{SourceName: "a", Fn: func(context.Context, modal.Period) ([]modal.EvidenceArtifact, error) {
		called = true
		return nil, nil
	}}
	p := newPopulator(t, src)
	_, err := p.Populate(context.Background(), []modal.AuditItem{stpItem()}, modal.Period{From: period.To, To: period.From}, nil)
	assert.ErrorIs(t, err, modal.ErrInvalidPeriod)
	assert.False(t, called)
}

func TestPopulate_Deterministic(t *testing.T) {
	second := stpArtifact()
	second.ID = "art-stp-2"
	third := stpArtifact()
	third.ID = "art-stp-0"
	third.Title = "STP pay event receipt"
	items := []modal.AuditItem{stpItem(), {ID: "item-empty", ObligationIDs: []string{"event-STP"}}}
	p := newPopulator(t,
		staticFeed(sources.STPLodgement, stpArtifact(), second),
		staticFeed(sources.SuperLodgement, third),
	)

	first, err := p.Populate(context.Background(), items, period, nil)
	require.NoError(t, err)
	again, err := p.Populate(context.Background(), items, period, nil)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	var ids []string
	for _, c := range first.Items[0].AutoArtifacts {
		ids = append(ids, c.Artifact.ID)
	}
	// Highest score first, equal scores by id.
	assert.Equal(t, []string{"art-stp-0", "art-stp", "art-stp-2"}, ids)
}

func TestPopulate_EmptyExpectedEvidenceFloorsDenominator(t *testing.T) {
	item := modal.AuditItem{ID: "i", ObligationIDs: []string{"event-STP"}}
	second := stpArtifact()
	second.ID = "art-stp-2"
	p := newPopulator(t, staticFeed(sources.STPLodgement, stpArtifact(), second))

	res, err := p.Populate(context.Background(), []modal.AuditItem{item}, period, nil)
	require.NoError(t, err)
	assert.Len(t, res.Items[0].AutoArtifacts, 2)
	assert.Equal(t, 100, res.Items[0].CoverageScore)
}

func TestPopulate_MergesExistingFirstAndDedupes(t *testing.T) {
	existing := stpArtifact()
	existing.Notes = "uploaded manually"
	p := newPopulator(t, staticFeed(sources.STPLodgement, stpArtifact()))

	res, err := p.Populate(context.Background(), []modal.AuditItem{stpItem()}, period, []modal.EvidenceArtifact{existing})
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, "uploaded manually", res.Artifacts[0].Notes)
}

func TestPopulate_PreservesReviewerStatuses(t *testing.T) {
	na := stpItem()
	na.ID = "na"
	na.Status = modal.ItemNotApplicable
	done := stpItem()
	done.ID = "done"
	done.Status = modal.ItemComplete
	p := newPopulator(t, staticFeed(sources.STPLodgement, stpArtifact()))

	res, err := p.Populate(context.Background(), []modal.AuditItem{na, done}, period, nil)
	require.NoError(t, err)
	assert.Equal(t, modal.ItemNotApplicable, res.Items[0].Status)
	assert.Empty(t, res.Items[0].AutoArtifacts)
	assert.Equal(t, modal.ItemComplete, res.Items[1].Status)
	assert.Len(t, res.Items[1].AutoArtifacts, 1)
	assert.Equal(t, 50, res.Items[1].CoverageScore)
}

func TestPopulate_DoesNotMutateInputs(t *testing.T) {
	items := []modal.AuditItem{stpItem()}
	p := newPopulator(t, staticFeed(sources.STPLodgement, stpArtifact()))
	_, err := p.Populate(context.Background(), items, period, nil)
	require.NoError(t, err)
	assert.Equal(t, stpItem(), items[0])
}

func TestCoverageScore(t *testing.T) {
	assert.Equal(t, 0, CoverageScore(0, 0))
	assert.Equal(t, 100, CoverageScore(1, 0))
	assert.Equal(t, 100, CoverageScore(5, 0))
	assert.Equal(t, 33, CoverageScore(1, 3))
	assert.Equal(t, 66, CoverageScore(2, 3))
	assert.Equal(t, 100, CoverageScore(4, 3))
}
