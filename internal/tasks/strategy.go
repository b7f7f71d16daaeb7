package tasks

import "compliance-evidence-service/internal/modal"

// Strategy is one lookup in a responsibility cascade. Pick returns the
// holder it finds, skipping exclude.
type Strategy struct {
	Name string
	Pick func(r modal.RASCI, exclude string) (string, bool)
}

var (
	ByResponsible = Strategy{Name: "responsible", Pick: func(r modal.RASCI, exclude string) (string, bool) {
		return single(r.Responsible, exclude)
	}}
	ByAccountable = Strategy{Name: "accountable", Pick: func(r modal.RASCI, exclude string) (string, bool) {
		return single(r.Accountable, exclude)
	}}
	ByFirstSupport = Strategy{Name: "support", Pick: func(r modal.RASCI, exclude string) (string, bool) {
		return first(r.Support, exclude)
	}}
	ByFirstConsulted = Strategy{Name: "consulted", Pick: func(r modal.RASCI, exclude string) (string, bool) {
		return first(r.Consulted, exclude)
	}}
	ByFirstInformed = Strategy{Name: "informed", Pick: func(r modal.RASCI, exclude string) (string, bool) {
		return first(r.Informed, exclude)
	}}
)

// Precedence lists, evaluated top to bottom.
var (
	AssigneeCascade         = []Strategy{ByResponsible, ByAccountable, ByFirstSupport, ByFirstConsulted, ByFirstInformed}
	ApproverCascade         = []Strategy{ByAccountable, ByFirstSupport}
	ConflictApproverCascade = []Strategy{ByFirstSupport, ByFirstConsulted}
)

// Resolve walks the cascade and returns the first holder found along with
// the name of the strategy that found it. When nothing matches it returns
// fallback and "fallback".
func Resolve(r modal.RASCI, cascade []Strategy, exclude, fallback string) (holder, via string) {
	for _, s := range cascade {
		if h, ok := s.Pick(r, exclude); ok {
			return h, s.Name
		}
	}
	return fallback, "fallback"
}

func single(v, exclude string) (string, bool) {
	if v == "" || (exclude != "" && v == exclude) {
		return "", false
	}
	return v, true
}

func first(vs []string, exclude string) (string, bool) {
	for _, v := range vs {
		if h, ok := single(v, exclude); ok {
			return h, true
		}
	}
	return "", false
}
