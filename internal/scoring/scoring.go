// Package scoring rates how well an evidence artifact supports an audit
// checklist item. Scores are additive signals capped at 1.0 and depend only
// on the artifact, the item and the supplied scoring instant.
package scoring

import (
	"strings"
	"time"
	"unicode"

	"compliance-evidence-service/internal/modal"
)

const (
	// CandidateThreshold is exclusive: a candidate must score above it.
	CandidateThreshold = 0.30
	// AutoPopulateThreshold is inclusive.
	AutoPopulateThreshold = 0.75

	termStep      = 0.25
	minTermLength = 4

	DefaultRecencyWindow = 30 * 24 * time.Hour
)

// Weights is the scoring policy. Each field is the most a signal can add.
type Weights struct {
	Linkage float64 `json:"linkage" yaml:"linkage"`
	Terms   float64 `json:"terms" yaml:"terms"`
	Period  float64 `json:"period" yaml:"period"`
	Lexicon float64 `json:"lexicon" yaml:"lexicon"`
	Recency float64 `json:"recency" yaml:"recency"`
}

var DefaultWeights = Weights{
	Linkage: 0.50,
	Terms:   0.20,
	Period:  0.15,
	Lexicon: 0.10,
	Recency: 0.05,
}

// Lexicon maps an evidence source tag to keywords that identify the kind of
// checklist item the source usually supports.
type Lexicon map[string][]string

// Breakdown records each signal's contribution.
type Breakdown struct {
	Linkage float64 `json:"linkage"`
	Terms   float64 `json:"terms"`
	Period  float64 `json:"period"`
	Lexicon float64 `json:"lexicon"`
	Recency float64 `json:"recency"`
	Total   float64 `json:"total"`
}

type Scorer struct {
	weights       Weights
	lexicon       Lexicon
	recencyWindow time.Duration
}

func New(weights Weights, lex Lexicon) *Scorer {
	normalized := make(Lexicon, len(lex))
	for src, words := range lex {
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				normalized[src] = append(normalized[src], w)
			}
		}
	}
	return &Scorer{weights: weights, lexicon: normalized, recencyWindow: DefaultRecencyWindow}
}

func (s *Scorer) Score(a modal.EvidenceArtifact, item modal.AuditItem, now time.Time) float64 {
	return s.Breakdown(a, item, now).Total
}

func (s *Scorer) Breakdown(a modal.EvidenceArtifact, item modal.AuditItem, now time.Time) Breakdown {
	var b Breakdown
	if intersects(a.ObligationIDs, item.ObligationIDs) || intersects(a.ControlRefs, item.ControlRefs) {
		b.Linkage = s.weights.Linkage
	}

	haystack := strings.ToLower(a.Title + " " + strings.Join(a.Tags, " "))
	matched := 0
	for _, term := range Terms(item.ExpectedEvidence) {
		if strings.Contains(haystack, term) {
			matched++
		}
	}
	b.Terms = s.weights.Terms * min(1, float64(matched)*termStep)

	if a.Period != nil && item.DueDate != nil && !a.Period.To.After(*item.DueDate) {
		b.Period = s.weights.Period
	}

	if words := s.lexicon[a.Source]; len(words) > 0 {
		text := strings.ToLower(item.Title + " " + item.Description)
		for _, w := range words {
			if strings.Contains(text, w) {
				b.Lexicon = s.weights.Lexicon
				break
			}
		}
	}

	if age := now.Sub(a.CreatedAt); age >= 0 && age < s.recencyWindow {
		b.Recency = s.weights.Recency
	}

	b.Total = max(0, min(1, b.Linkage+b.Terms+b.Period+b.Lexicon+b.Recency))
	return b
}

// Terms splits expected-evidence phrases into distinct lower-case words
// longer than three characters, in first-seen order.
func Terms(phrases []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range phrases {
		words := strings.FieldsFunc(strings.ToLower(p), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			if len([]rune(w)) < minTermLength {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
