// Package checklist attaches scored evidence to audit checklist items and
// derives their coverage and status.
package checklist

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"go.temporal.io/sdk/log"
	"golang.org/x/sync/errgroup"

	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/scoring"
	"compliance-evidence-service/internal/sources"
)

// Failure records an evidence source that contributed nothing because it
// errored.
type Failure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type Result struct {
	Items     []modal.AuditItem        `json:"items"`
	Artifacts []modal.EvidenceArtifact `json:"artifacts"`
	Failures  []Failure                `json:"failures,omitempty"`
}

type Populator struct {
	sources []sources.Source
	scorer  *scoring.Scorer
	logger  log.Logger
	now     func() time.Time
}

type Option func(*Populator)

func WithLogger(l log.Logger) Option {
	return func(p *Populator) { p.logger = l }
}

// WithClock fixes the scoring instant, which makes results reproducible.
func WithClock(now func() time.Time) Option {
	return func(p *Populator) { p.now = now }
}

func NewPopulator(reg *sources.Registry, scorer *scoring.Scorer, opts ...Option) *Populator {
	p := &Populator{
		sources: reg.Sources(),
		scorer:  scorer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.NewStructuredLogger(slog.New(slog.DiscardHandler))
	}
	return p
}

// Populate queries every registered source for period, merges the results
// with existing, and returns freshly annotated copies of items. A failing
// source is logged and skipped; the inputs are never modified.
func (p *Populator) Populate(ctx context.Context, items []modal.AuditItem, period modal.Period, existing []modal.EvidenceArtifact) (Result, error) {
	if err := period.Validate(); err != nil {
		return Result{}, err
	}

	fetched, failures := p.fanOut(ctx, period)
	artifacts := merge(existing, fetched)
	now := p.now()

	out := make([]modal.AuditItem, len(items))
	for i, it := range items {
		out[i] = p.Annotate(it, artifacts, now)
	}
	p.logger.Info("checklist populated",
		"items", len(out), "artifacts", len(artifacts), "failedSources", len(failures))
	return Result{Items: out, Artifacts: artifacts, Failures: failures}, nil
}

func (p *Populator) fanOut(ctx context.Context, period modal.Period) ([][]modal.EvidenceArtifact, []Failure) {
	results := make([][]modal.EvidenceArtifact, len(p.sources))
	errs := make([]error, len(p.sources))

	// Every goroutine returns nil: one source failing must not cancel or
	// hide the others.
	var g errgroup.Group
	for i, src := range p.sources {
		g.Go(func() error {
			results[i], errs[i] = fetch(ctx, src, period)
			return nil
		})
	}
	_ = g.Wait()

	var failures []Failure
	for i, err := range errs {
		if err == nil {
			continue
		}
		name := p.sources[i].Name()
		p.logger.Warn("evidence source failed", "source", name, "error", err)
		failures = append(failures, Failure{Source: name, Error: err.Error()})
		results[i] = nil
	}
	return results, failures
}

func fetch(ctx context.Context, src sources.Source, period modal.Period) (out []modal.EvidenceArtifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("source panicked: %v", r)
		}
	}()
	return src.Fetch(ctx, period)
}

// merge keeps the first occurrence of each artifact id: existing artifacts
// first, then sources in registry order.
func merge(existing []modal.EvidenceArtifact, fetched [][]modal.EvidenceArtifact) []modal.EvidenceArtifact {
	seen := make(map[string]struct{})
	var out []modal.EvidenceArtifact
	add := func(a modal.EvidenceArtifact) {
		if a.ID != "" {
			if _, dup := seen[a.ID]; dup {
				return
			}
			seen[a.ID] = struct{}{}
		}
		out = append(out, a)
	}
	for _, a := range existing {
		add(a)
	}
	for _, batch := range fetched {
		for _, a := range batch {
			add(a)
		}
	}
	return out
}

// Annotate scores artifacts against one item and returns a copy with
// candidates, coverage and status set. N/A items come back untouched, and
// reviewer-owned statuses (READY, COMPLETE) are kept.
func (p *Populator) Annotate(item modal.AuditItem, artifacts []modal.EvidenceArtifact, now time.Time) modal.AuditItem {
	out := item.Clone()
	if item.Status == modal.ItemNotApplicable {
		return out
	}

	var candidates []modal.ScoredArtifact
	for _, a := range artifacts {
		if s := p.scorer.Score(a, item, now); s > scoring.CandidateThreshold {
			candidates = append(candidates, modal.ScoredArtifact{Artifact: a, Score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Artifact.ID < candidates[j].Artifact.ID
	})

	out.AutoArtifacts = candidates
	out.CoverageScore = CoverageScore(len(candidates), len(item.ExpectedEvidence))
	if item.Status != modal.ItemReady && item.Status != modal.ItemComplete {
		out.Status = deriveStatus(candidates)
	}
	return out
}

// CoverageScore is floor(min(candidates/max(expected,1), 1) * 100).
func CoverageScore(candidates, expected int) int {
	ratio := math.Min(float64(candidates)/float64(max(expected, 1)), 1)
	return int(math.Floor(ratio * 100))
}

func deriveStatus(candidates []modal.ScoredArtifact) modal.ItemStatus {
	if len(candidates) == 0 {
		return modal.ItemUnstarted
	}
	for _, c := range candidates {
		if c.Score >= scoring.AutoPopulateThreshold {
			return modal.ItemAutoPopulated
		}
	}
	return modal.ItemNeedsReview
}
