package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"compliance-evidence-service/internal/checklist"
	"compliance-evidence-service/internal/config"
	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/timetable"
	"compliance-evidence-service/internal/workflows"
)

type startReq struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Scope          string                   `json:"scope,omitempty"`
	Period         modal.Period             `json:"period"`
	Items          []modal.AuditItem        `json:"items"`
	AuditWindowEnd time.Time                `json:"auditWindowEnd,omitempty"`
	Existing       []modal.EvidenceArtifact `json:"existing,omitempty"`
}

type startResp struct {
	WorkflowID string `json:"workflowId"`
	RunID      string `json:"runId"`
}

type statusReq struct {
	Status modal.TaskStatus `json:"status"`
	Actor  string           `json:"actor"`
	Notes  string           `json:"notes,omitempty"`
}

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "path to config YAML (defaults built in)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("unable to load config: %v", err)
	}
	tt, err := cfg.Timetable()
	if err != nil {
		log.Fatalf("invalid obligation registry: %v", err)
	}

	tc, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   tlog.NewStructuredLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil))),
	})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer tc.Close()

	r := newRouter(tc, tt, cfg.Temporal.TaskQueue)
	log.Printf("api listening on %s", cfg.API.Listen)
	log.Fatal(http.ListenAndServe(cfg.API.Listen, r))
}

func newRouter(tc client.Client, tt *timetable.Resolver, taskQueue string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// One workflow per checklist id; a second start for a running checklist
	// is rejected rather than silently attached.
	r.Post("/workflows/start", func(w http.ResponseWriter, r *http.Request) {
		var req startReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
			http.Error(w, "invalid body: {\"id\":\"...\",\"name\":\"...\",\"period\":{...},\"items\":[...]}", http.StatusBadRequest)
			return
		}
		cl, err := checklist.New(req.ID, req.Name, req.Scope, req.Period, req.Items, time.Now().UTC())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		opts := client.StartWorkflowOptions{
			ID:                                       "reconcile-" + cl.ID,
			TaskQueue:                                taskQueue,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
			WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		in := workflows.ReconcileRequest{Checklist: cl, AuditWindowEnd: req.AuditWindowEnd, Existing: req.Existing}
		we, err := tc.ExecuteWorkflow(ctx, opts, workflows.ReconcileChecklist, in)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, startResp{WorkflowID: we.GetID(), RunID: we.GetRunID()})
	})

	r.Get("/workflows/{workflowId}/checklist", func(w http.ResponseWriter, r *http.Request) {
		var cl modal.AuditChecklist
		if err := queryInto(tc, r, "checklist", &cl); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, cl)
	})

	r.Get("/workflows/{workflowId}/tasks", func(w http.ResponseWriter, r *http.Request) {
		var ts []modal.Task
		if err := queryInto(tc, r, "tasks", &ts); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, ts)
	})

	r.Get("/workflows/{workflowId}/audit", func(w http.ResponseWriter, r *http.Request) {
		var events []modal.AuditEvent
		if err := queryInto(tc, r, "audit_log", &events); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, events)
	})

	r.Post("/workflows/{workflowId}/reviews", func(w http.ResponseWriter, r *http.Request) {
		var rev modal.ItemReview
		if err := json.NewDecoder(r.Body).Decode(&rev); err != nil || rev.ItemID == "" || rev.Status == "" {
			http.Error(w, "invalid body: {\"itemId\":\"...\",\"status\":\"READY\",\"reviewer\":\"...\",\"comment\":\"...\"}", http.StatusBadRequest)
			return
		}
		if rev.Reviewer == "" {
			rev.Reviewer = modal.DefaultRole
		}
		rev.At = time.Now().UTC()
		signal(tc, w, r, workflows.ItemReviewSignal, rev)
	})

	r.Post("/workflows/{workflowId}/tasks/{taskId}/status", func(w http.ResponseWriter, r *http.Request) {
		var req statusReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
			http.Error(w, "invalid body: {\"status\":\"IN_REVIEW\",\"actor\":\"...\",\"notes\":\"...\"}", http.StatusBadRequest)
			return
		}
		change := modal.TaskStatusChange{
			TaskID:    chi.URLParam(r, "taskId"),
			Status:    req.Status,
			Actor:     req.Actor,
			Notes:     req.Notes,
			ChangedAt: time.Now().UTC(),
		}
		signal(tc, w, r, workflows.TaskStatusSignal, change)
	})

	r.Post("/workflows/{workflowId}/close", func(w http.ResponseWriter, r *http.Request) {
		var req workflows.CloseRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid body: {\"actor\":\"...\",\"notes\":\"...\"}", http.StatusBadRequest)
				return
			}
		}
		signal(tc, w, r, workflows.CloseSignal, req)
	})

	registerObligationRoutes(r, tt)
	registerUIRoutes(r, tc)
	return r
}

func queryInto(tc client.Client, r *http.Request, queryType string, v any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	qr, err := tc.QueryWorkflow(ctx, chi.URLParam(r, "workflowId"), r.URL.Query().Get("runId"), queryType)
	if err != nil {
		return err
	}
	return qr.Get(v)
}

func signal(tc client.Client, w http.ResponseWriter, r *http.Request, name string, arg any) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := tc.SignalWorkflow(ctx, chi.URLParam(r, "workflowId"), r.URL.Query().Get("runId"), name, arg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
