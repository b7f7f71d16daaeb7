// Package sources holds the evidence-source collaborators the checklist
// populator fans out to. Every feed implements Source and is iterated
// uniformly through a Registry.
package sources

import (
	"context"
	"errors"
	"fmt"

	"compliance-evidence-service/internal/modal"
)

// Names of the recurring regulatory feeds.
const (
	BASLodgement    = "bas-lodgement"
	STPLodgement    = "stp-lodgement"
	SuperLodgement  = "super-lodgement"
	PAYGWithholding = "payg-withholding"
)

var ErrDuplicateSource = errors.New("sources: duplicate source")

type Source interface {
	Name() string
	// Fetch returns artifacts relevant to period.
	Fetch(ctx context.Context, period modal.Period) ([]modal.EvidenceArtifact, error)
}

// FuncSource adapts a function to Source.
type FuncSource struct {
	SourceName string
	Fn         func(ctx context.Context, period modal.Period) ([]modal.EvidenceArtifact, error)
}

func (f FuncSource) Name() string { return f.SourceName }

func (f FuncSource) Fetch(ctx context.Context, period modal.Period) ([]modal.EvidenceArtifact, error) {
	return f.Fn(ctx, period)
}

// Registry keeps sources in registration order so fan-out results merge
// deterministically.
type Registry struct {
	sources []Source
	names   map[string]struct{}
}

func NewRegistry(srcs ...Source) (*Registry, error) {
	r := &Registry{names: make(map[string]struct{})}
	for _, s := range srcs {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(s Source) error {
	if _, dup := r.names[s.Name()]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, s.Name())
	}
	r.names[s.Name()] = struct{}{}
	r.sources = append(r.sources, s)
	return nil
}

func (r *Registry) Sources() []Source {
	if r == nil {
		return nil
	}
	return append([]Source(nil), r.sources...)
}

// overlaps reports whether an artifact belongs to the requested period:
// by its covered period when it has one, else by creation time.
func overlaps(a modal.EvidenceArtifact, p modal.Period) bool {
	if a.Period != nil {
		return !a.Period.From.After(p.To) && !a.Period.To.Before(p.From)
	}
	return !a.CreatedAt.Before(p.From) && !a.CreatedAt.After(p.To)
}
