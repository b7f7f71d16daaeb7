package config

import (
	"fmt"

	"compliance-evidence-service/internal/scoring"
	"compliance-evidence-service/internal/sources"
	"compliance-evidence-service/internal/timetable"
)

func (c *Config) Timetable() (*timetable.Resolver, error) {
	return timetable.NewResolver(c.Obligations)
}

// Weights is scoring.DefaultWeights with any configured overrides applied.
func (c *Config) Weights() scoring.Weights {
	return c.Scoring.Weights.Apply(scoring.DefaultWeights)
}

func (c *Config) Scorer() *scoring.Scorer {
	w := c.Weights()
	lex := make(scoring.Lexicon, len(c.Sources))
	for _, s := range c.Sources {
		if len(s.Keywords) > 0 {
			lex[s.Name] = s.Keywords
		}
	}
	return scoring.New(w, lex)
}

func (c *Config) SourceRegistry() (*sources.Registry, error) {
	reg, err := sources.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, sc := range c.Sources {
		var src sources.Source
		switch sc.Kind {
		case "", "static":
			if sc.Path == "" {
				src = sources.NewStaticSource(sc.Name, nil)
				break
			}
			s, err := sources.LoadStaticSource(sc.Name, sc.Path)
			if err != nil {
				return nil, err
			}
			src = s
		case "http":
			if sc.URL == "" {
				return nil, fmt.Errorf("config: source %s: http kind needs url", sc.Name)
			}
			src = sources.NewHTTPSource(sc.Name, sc.URL, nil)
		default:
			return nil, fmt.Errorf("config: source %s: unknown kind %q", sc.Name, sc.Kind)
		}
		if err := reg.Register(src); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
