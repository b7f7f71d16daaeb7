package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"compliance-evidence-service/internal/activities"
	"compliance-evidence-service/internal/audit"
	"compliance-evidence-service/internal/checklist"
	"compliance-evidence-service/internal/config"
	"compliance-evidence-service/internal/store"
	"compliance-evidence-service/internal/tasks"
	"compliance-evidence-service/internal/workflows"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "path to config YAML (defaults built in)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("unable to load config: %v", err)
	}
	logger := tlog.NewStructuredLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	tt, err := cfg.Timetable()
	if err != nil {
		log.Fatalf("invalid obligation registry: %v", err)
	}
	reg, err := cfg.SourceRegistry()
	if err != nil {
		log.Fatalf("invalid evidence sources: %v", err)
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("unable to open store: %v", err)
	}
	defer st.Close()

	var trail audit.Trail = audit.NewMemoryTrail()
	if cfg.Audit.Path != "" {
		jt, err := audit.NewJSONLTrail(cfg.Audit.Path)
		if err != nil {
			log.Fatalf("unable to open audit trail: %v", err)
		}
		defer jt.Close()
		trail = jt
	}

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ReconcileChecklist)

	a := &activities.Activities{
		Populator:    checklist.NewPopulator(reg, cfg.Scorer(), checklist.WithLogger(logger)),
		Orchestrator: tasks.New(tt, cfg.Statutory, tasks.WithLogger(logger)),
		Store:        st,
		Trail:        trail,
	}
	w.RegisterActivity(a)

	logger.Info("worker started", "taskQueue", cfg.Temporal.TaskQueue, "store", cfg.Store.Driver, "sources", len(reg.Sources()))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker exited: %v", err)
	}
}
