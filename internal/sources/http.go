package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"compliance-evidence-service/internal/modal"
)

// HTTPSource pulls artifacts from a JSON feed endpoint:
// GET <url>?from=YYYY-MM-DD&to=YYYY-MM-DD -> [EvidenceArtifact...]
type HTTPSource struct {
	name   string
	url    string
	client *http.Client
}

func NewHTTPSource(name, feedURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{name: name, url: feedURL, client: client}
}

func (s *HTTPSource) Name() string { return s.name }

func (s *HTTPSource) Fetch(ctx context.Context, period modal.Period) ([]modal.EvidenceArtifact, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("sources: %s: bad url: %w", s.name, err)
	}
	q := u.Query()
	q.Set("from", period.From.Format(time.DateOnly))
	q.Set("to", period.To.Format(time.DateOnly))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sources: %s: %w", s.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sources: %s: unexpected status %d", s.name, resp.StatusCode)
	}

	var artifacts []modal.EvidenceArtifact
	if err := json.NewDecoder(resp.Body).Decode(&artifacts); err != nil {
		return nil, fmt.Errorf("sources: %s: decode: %w", s.name, err)
	}
	for i := range artifacts {
		if artifacts[i].Source == "" {
			artifacts[i].Source = s.name
		}
	}
	return artifacts, nil
}
