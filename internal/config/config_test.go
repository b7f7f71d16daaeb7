package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/scoring"
	"compliance-evidence-service/internal/sources"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "localhost:7233", c.Temporal.HostPort)
	assert.Equal(t, "file", c.Store.Driver)
	assert.Contains(t, c.Statutory, "quarterly-SG")

	tt, err := c.Timetable()
	require.NoError(t, err)
	ob, ok := tt.Obligation("quarterly-SG")
	require.True(t, ok)
	assert.Equal(t, modal.FrequencyQuarterly, ob.Frequency)
	assert.Equal(t, modal.AustralianFiscalYear, ob.Anchor)

	due, ok := tt.DueDateForPeriodEnd("quarterly-SG", time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.October, 28, 0, 0, 0, 0, time.UTC), due)

	reg, err := c.SourceRegistry()
	require.NoError(t, err)
	var names []string
	for _, s := range reg.Sources() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{sources.BASLodgement, sources.STPLodgement, sources.SuperLodgement, sources.PAYGWithholding}, names)
}

func TestLoad_FileOverridesAndEnv(t *testing.T) {
	dir := t.TempDir()
	feed := filepath.Join(dir, "stp.yaml")
	require.NoError(t, os.WriteFile(feed, []byte("artifacts:\n  - id: a1\n    title: pay event\n"), 0o644))

	path := filepath.Join(dir, "config.yaml")
	body := `
temporal:
  task_queue: TEST_QUEUE
store:
  driver: postgres
  dsn: postgres://localhost/compliance
scoring:
  weights: {linkage: 0.4, terms: 0.3, period: 0.15, lexicon: 0.1, recency: 0.05}
obligations:
  - id: monthly-X
    frequency: MONTHLY
    offset_days: 7
sources:
  - name: stp-lodgement
    kind: static
    path: ` + feed + `
    keywords: [payroll]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("COMPLIANCE_API_LISTEN", ":9999")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:7233", c.Temporal.HostPort)
	assert.Equal(t, "TEST_QUEUE", c.Temporal.TaskQueue)
	assert.Equal(t, ":9999", c.API.Listen)
	assert.Equal(t, "postgres", c.Store.Driver)
	require.Len(t, c.Obligations, 1)
	assert.Equal(t, scoring.Weights{Linkage: 0.4, Terms: 0.3, Period: 0.15, Lexicon: 0.1, Recency: 0.05}, c.Weights())

	reg, err := c.SourceRegistry()
	require.NoError(t, err)
	require.Len(t, reg.Sources(), 1)
	assert.NotNil(t, c.Scorer())
}

func TestLoad_PartialWeightsKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring:\n  weights: {linkage: 0.6}\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	want := scoring.DefaultWeights
	want.Linkage = 0.6
	assert.Equal(t, want, c.Weights())

	assert.Equal(t, scoring.DefaultWeights, Default().Weights())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "config load")

	c := Default()
	c.Sources = []SourceConfig{{Name: "x", Kind: "ftp"}}
	_, err = c.SourceRegistry()
	assert.ErrorContains(t, err, "unknown kind")

	c.Sources = []SourceConfig{{Name: "x", Kind: "http"}}
	_, err = c.SourceRegistry()
	assert.ErrorContains(t, err, "needs url")
}
