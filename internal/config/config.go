// Package config loads the service configuration: Temporal connection,
// HTTP listen address, persistence backend, the obligation registry and the
// evidence-source feeds with their keyword lexicons.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/scoring"
)

const defaultConfigYAML = `# compliance evidence service configuration
temporal:
  host_port: localhost:7233
  task_queue: COMPLIANCE_RECON_TASK_QUEUE

api:
  listen: ":8090"

store:
  # memory | file | postgres | redis
  driver: file
  dir: ./data/store

audit:
  path: ./data/audit.jsonl

# Obligations whose offset sets task due dates (less a 3 business day margin).
statutory:
  - quarterly-BAS
  - quarterly-SG
  - monthly-PAYGW
  - annual-STP-finalisation

obligations:
  - id: quarterly-BAS
    description: Quarterly business activity statement
    frequency: QUARTERLY
    offset_days: 28
    anchor: {month: 6, day: 30}
  - id: quarterly-SG
    description: Superannuation guarantee contributions
    frequency: QUARTERLY
    offset_days: 28
    anchor: {month: 6, day: 30}
  - id: monthly-BAS
    description: Monthly business activity statement
    frequency: MONTHLY
    offset_days: 21
  - id: monthly-PAYGW
    description: PAYG withholding remittance
    frequency: MONTHLY
    offset_days: 21
  - id: annual-FBT
    description: Fringe benefits tax return
    frequency: ANNUAL
    offset_days: 51
    anchor: {month: 3, day: 31}
  - id: annual-STP-finalisation
    description: Single Touch Payroll finalisation
    frequency: ANNUAL
    offset_days: 14
    anchor: {month: 6, day: 30}
  - id: event-STP
    description: Single Touch Payroll pay event
    frequency: PER_EVENT
    offset_days: 0

sources:
  - name: bas-lodgement
    kind: static
    keywords: [gst, bas, activity statement]
  - name: stp-lodgement
    kind: static
    keywords: [payroll, stp, pay event]
  - name: super-lodgement
    kind: static
    keywords: [super, superannuation, superstream]
  - name: payg-withholding
    kind: static
    keywords: [withholding, payg]
`

type TemporalConfig struct {
	HostPort  string `yaml:"host_port"`
	TaskQueue string `yaml:"task_queue"`
}

type APIConfig struct {
	Listen string `yaml:"listen"`
}

type StoreConfig struct {
	Driver    string `yaml:"driver"`
	Dir       string `yaml:"dir,omitempty"`
	DSN       string `yaml:"dsn,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

type AuditConfig struct {
	Path string `yaml:"path,omitempty"`
}

type ScoringConfig struct {
	Weights WeightOverrides `yaml:"weights,omitempty"`
}

// WeightOverrides replaces individual signal weights; unset fields keep
// scoring.DefaultWeights.
type WeightOverrides struct {
	Linkage *float64 `yaml:"linkage,omitempty"`
	Terms   *float64 `yaml:"terms,omitempty"`
	Period  *float64 `yaml:"period,omitempty"`
	Lexicon *float64 `yaml:"lexicon,omitempty"`
	Recency *float64 `yaml:"recency,omitempty"`
}

// Apply returns base with every set override written over it.
func (o WeightOverrides) Apply(base scoring.Weights) scoring.Weights {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&base.Linkage, o.Linkage)
	set(&base.Terms, o.Terms)
	set(&base.Period, o.Period)
	set(&base.Lexicon, o.Lexicon)
	set(&base.Recency, o.Recency)
	return base
}

// SourceConfig declares one evidence feed. Kind "static" reads Path (a YAML
// artifact export, optional); kind "http" polls URL.
type SourceConfig struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	Path     string   `yaml:"path,omitempty"`
	URL      string   `yaml:"url,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
}

type Config struct {
	Temporal    TemporalConfig     `yaml:"temporal"`
	API         APIConfig          `yaml:"api"`
	Store       StoreConfig        `yaml:"store"`
	Audit       AuditConfig        `yaml:"audit"`
	Scoring     ScoringConfig      `yaml:"scoring"`
	Statutory   []string           `yaml:"statutory"`
	Obligations []modal.Obligation `yaml:"obligations"`
	Sources     []SourceConfig     `yaml:"sources"`
}

// Default returns the built-in configuration with env overrides applied.
func Default() *Config {
	c, err := parse([]byte(defaultConfigYAML))
	if err != nil {
		panic(fmt.Sprintf("config: built-in defaults: %v", err))
	}
	applyEnvOverrides(c)
	return c
}

// Load reads path over the built-in defaults; empty path means defaults
// only. COMPLIANCE_* environment variables override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	c, err := parse([]byte(defaultConfigYAML))
	if err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	// Lists in the file replace the defaults rather than appending.
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	merge(c, &file)
	applyEnvOverrides(c)
	return c, nil
}

func parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func merge(dst, src *Config) {
	if src.Temporal.HostPort != "" {
		dst.Temporal.HostPort = src.Temporal.HostPort
	}
	if src.Temporal.TaskQueue != "" {
		dst.Temporal.TaskQueue = src.Temporal.TaskQueue
	}
	if src.API.Listen != "" {
		dst.API.Listen = src.API.Listen
	}
	if src.Store.Driver != "" {
		dst.Store = src.Store
	}
	if src.Audit.Path != "" {
		dst.Audit.Path = src.Audit.Path
	}
	sw, fw := &dst.Scoring.Weights, src.Scoring.Weights
	mergeWeight(&sw.Linkage, fw.Linkage)
	mergeWeight(&sw.Terms, fw.Terms)
	mergeWeight(&sw.Period, fw.Period)
	mergeWeight(&sw.Lexicon, fw.Lexicon)
	mergeWeight(&sw.Recency, fw.Recency)
	if src.Statutory != nil {
		dst.Statutory = src.Statutory
	}
	if src.Obligations != nil {
		dst.Obligations = src.Obligations
	}
	if src.Sources != nil {
		dst.Sources = src.Sources
	}
}

func mergeWeight(dst **float64, src *float64) {
	if src != nil {
		*dst = src
	}
}

func applyEnvOverrides(c *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Temporal.HostPort, "COMPLIANCE_TEMPORAL_HOSTPORT")
	set(&c.Temporal.TaskQueue, "COMPLIANCE_TASK_QUEUE")
	set(&c.API.Listen, "COMPLIANCE_API_LISTEN")
	set(&c.Store.Driver, "COMPLIANCE_STORE_DRIVER")
	set(&c.Store.Dir, "COMPLIANCE_STORE_DIR")
	set(&c.Store.DSN, "COMPLIANCE_STORE_DSN")
	set(&c.Store.RedisAddr, "COMPLIANCE_REDIS_ADDR")
	set(&c.Audit.Path, "COMPLIANCE_AUDIT_PATH")
}
