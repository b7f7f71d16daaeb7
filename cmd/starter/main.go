package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"gopkg.in/yaml.v3"

	"compliance-evidence-service/internal/checklist"
	"compliance-evidence-service/internal/config"
	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/workflows"
)

// checklistFile is the YAML layout accepted by -checklist.
type checklistFile struct {
	ID             string            `yaml:"id"`
	Name           string            `yaml:"name"`
	Scope          string            `yaml:"scope"`
	Period         modal.Period      `yaml:"period"`
	AuditWindowEnd time.Time         `yaml:"audit_window_end"`
	Items          []modal.AuditItem `yaml:"items"`
}

// Starts a reconciliation for a checklist file and waits for it to close.
// The API does the same over HTTP; this is for local runs.
func main() {
	var cfgPath, listPath string
	var wait time.Duration
	flag.StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "path to config YAML (defaults built in)")
	flag.StringVar(&listPath, "checklist", "checklist.yaml", "checklist YAML file")
	flag.DurationVar(&wait, "wait", 0, "wait this long for the checklist to close (0 = don't wait)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("unable to load config: %v", err)
	}

	data, err := os.ReadFile(listPath)
	if err != nil {
		log.Fatalf("unable to read checklist: %v", err)
	}
	var f checklistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		log.Fatalf("unable to parse checklist: %v", err)
	}
	cl, err := checklist.New(f.ID, f.Name, f.Scope, f.Period, f.Items, time.Now().UTC())
	if err != nil {
		log.Fatalf("invalid checklist: %v", err)
	}

	c, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer c.Close()

	opts := client.StartWorkflowOptions{
		ID:                                       "reconcile-" + cl.ID,
		TaskQueue:                                cfg.Temporal.TaskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := workflows.ReconcileRequest{Checklist: cl, AuditWindowEnd: f.AuditWindowEnd}
	we, err := c.ExecuteWorkflow(ctx, opts, workflows.ReconcileChecklist, req)
	if err != nil {
		log.Fatalf("unable to execute workflow: %v", err)
	}
	log.Printf("started workflow: WorkflowID=%s RunID=%s\n", we.GetID(), we.GetRunID())

	if wait <= 0 {
		return
	}
	ctx2, cancel2 := context.WithTimeout(context.Background(), wait)
	defer cancel2()

	var result modal.AuditChecklist
	if err := we.Get(ctx2, &result); err != nil {
		log.Fatalf("unable to get workflow result: %v", err)
	}
	log.Printf("checklist %s closed at version %d\n", result.ID, result.Version)
}
