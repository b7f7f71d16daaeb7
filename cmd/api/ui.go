package main

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"

	"compliance-evidence-service/internal/modal"
	"compliance-evidence-service/internal/workflows"
)

type uiServer struct {
	tc client.Client
	t  *template.Template
}

type uiTaskRow struct {
	WorkflowID string
	RunID      string
	Task       modal.Task
}

type uiIndexData struct {
	Tab   string
	Query string
	Tasks []uiTaskRow
	Hits  []uiTaskRow // search results carry no task
	Error string
}

type uiDetailData struct {
	WorkflowID string
	RunID      string
	Checklist  modal.AuditChecklist
	Tasks      []modal.Task
	Audit      []modal.AuditEvent
	Statuses   []modal.ItemStatus
	Error      string
}

var reviewStatuses = []modal.ItemStatus{
	modal.ItemReady,
	modal.ItemNeedsReview,
	modal.ItemComplete,
	modal.ItemNotApplicable,
}

func registerUIRoutes(r chi.Router, tc client.Client) {
	t := template.Must(template.New("base").Parse(uiTemplates))
	s := &uiServer{tc: tc, t: t}

	r.Get("/ui", s.handleIndex)
	r.Get("/ui/wf/{workflowId}", s.handleDetail)
	r.Post("/ui/wf/{workflowId}/review", s.handleReview)
	r.Post("/ui/wf/{workflowId}/task", s.handleTaskStatus)
}

// handleIndex lists open tasks across running reconciliations, or searches
// executions by checklist id.
func (s *uiServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if tab == "" {
		tab = "tasks"
	}
	q := r.URL.Query().Get("q")

	data := uiIndexData{Tab: tab, Query: q}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	var query string
	switch tab {
	case "tasks":
		query = `ExecutionStatus = "Running" AND WorkflowType = "ReconcileChecklist"`
	case "search":
		if q == "" {
			_ = s.t.ExecuteTemplate(w, "index", data)
			return
		}
		query = `WorkflowId STARTS_WITH "reconcile-` + q + `"`
	default:
		data.Tab = "tasks"
		tab = "tasks"
		query = `ExecutionStatus = "Running" AND WorkflowType = "ReconcileChecklist"`
	}

	resp, err := s.tc.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
		Query:    query,
		PageSize: 200,
	})
	if err != nil {
		data.Error = err.Error()
		_ = s.t.ExecuteTemplate(w, "index", data)
		return
	}

	if tab == "tasks" {
		for _, ex := range resp.Executions {
			if ex.Execution == nil {
				continue
			}
			wid := ex.Execution.WorkflowId
			rid := ex.Execution.RunId

			var ts []modal.Task
			if err := s.query(wid, rid, "tasks", &ts); err != nil {
				continue
			}
			for _, t := range ts {
				if t.Status == modal.TaskDone {
					continue
				}
				data.Tasks = append(data.Tasks, uiTaskRow{WorkflowID: wid, RunID: rid, Task: t})
			}
			if len(data.Tasks) >= 100 {
				break
			}
		}
		_ = s.t.ExecuteTemplate(w, "index", data)
		return
	}

	for _, ex := range resp.Executions {
		if ex.Execution == nil {
			continue
		}
		data.Hits = append(data.Hits, uiTaskRow{
			WorkflowID: ex.Execution.WorkflowId,
			RunID:      ex.Execution.RunId,
		})
	}
	_ = s.t.ExecuteTemplate(w, "index", data)
}

func (s *uiServer) handleDetail(w http.ResponseWriter, r *http.Request) {
	wid := chi.URLParam(r, "workflowId")
	rid := r.URL.Query().Get("runId")

	data := uiDetailData{WorkflowID: wid, RunID: rid, Statuses: reviewStatuses}

	if err := s.query(wid, rid, "checklist", &data.Checklist); err != nil {
		data.Error = err.Error()
		_ = s.t.ExecuteTemplate(w, "detail", data)
		return
	}
	_ = s.query(wid, rid, "tasks", &data.Tasks)
	_ = s.query(wid, rid, "audit_log", &data.Audit)

	_ = s.t.ExecuteTemplate(w, "detail", data)
}

func (s *uiServer) handleReview(w http.ResponseWriter, r *http.Request) {
	wid := chi.URLParam(r, "workflowId")
	rid := r.URL.Query().Get("runId")

	reviewer := r.FormValue("reviewer")
	if reviewer == "" {
		reviewer = modal.DefaultRole
	}
	rev := modal.ItemReview{
		ItemID:   r.FormValue("itemId"),
		Status:   modal.ItemStatus(r.FormValue("status")),
		Reviewer: reviewer,
		Comment:  r.FormValue("comment"),
		At:       time.Now().UTC(),
	}
	s.signalAndReturn(w, r, wid, rid, workflows.ItemReviewSignal, rev)
}

func (s *uiServer) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	wid := chi.URLParam(r, "workflowId")
	rid := r.URL.Query().Get("runId")

	change := modal.TaskStatusChange{
		TaskID:    r.FormValue("taskId"),
		Status:    modal.TaskStatus(r.FormValue("status")),
		Actor:     r.FormValue("actor"),
		ChangedAt: time.Now().UTC(),
	}
	s.signalAndReturn(w, r, wid, rid, workflows.TaskStatusSignal, change)
}

func (s *uiServer) signalAndReturn(w http.ResponseWriter, r *http.Request, wid, rid, name string, arg any) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := s.tc.SignalWorkflow(ctx, wid, rid, name, arg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/ui/wf/"+wid+"?runId="+rid, http.StatusSeeOther)
}

func (s *uiServer) query(wid, rid, queryType string, v any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	qr, err := s.tc.QueryWorkflow(ctx, wid, rid, queryType)
	if err != nil {
		return err
	}
	return qr.Get(v)
}

const uiTemplates = `
{{define "index"}}
<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>Compliance Evidence</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    .tabs a { margin-right: 12px; }
    table { border-collapse: collapse; width: 100%; margin-top: 12px; }
    th, td { border: 1px solid #ddd; padding: 8px; }
    .err { color: #b00020; }
    .muted { color: #666; }
  </style>
</head>
<body>
  <h2>Compliance Evidence</h2>

  <div class="tabs">
    <a href="/ui?tab=tasks">Open Tasks</a>
    <a href="/ui?tab=search">Search</a>
  </div>

  {{if .Error}}<p class="err">{{.Error}}</p>{{end}}

  {{if eq .Tab "tasks"}}
    <h3>Open Evidence Tasks</h3>
    <table>
      <thead><tr><th>Task</th><th>Assignee</th><th>Approver</th><th>Due</th><th>Status</th><th>Checklist</th></tr></thead>
      <tbody>
      {{range .Tasks}}
        <tr>
          <td>{{.Task.Title}}{{if .Task.ConflictOfInterest}} <b>(SoD)</b>{{end}}</td>
          <td>{{.Task.Assignee}}</td>
          <td>{{.Task.Approver}}</td>
          <td>{{.Task.DueDate.Format "2006-01-02"}}</td>
          <td>{{.Task.Status}}</td>
          <td><a href="/ui/wf/{{.WorkflowID}}?runId={{.RunID}}">{{.WorkflowID}}</a></td>
        </tr>
      {{end}}
      </tbody>
    </table>
  {{else}}
    <h3>Search by checklist id</h3>
    <form method="get" action="/ui">
      <input type="hidden" name="tab" value="search"/>
      <input name="q" placeholder="payroll-2024-q3" value="{{.Query}}" style="width: 320px;"/>
      <button type="submit">Search</button>
    </form>

    {{if .Query}}
      <table>
        <thead><tr><th>Workflow</th><th>Run</th></tr></thead>
        <tbody>
        {{range .Hits}}
          <tr>
            <td><a href="/ui/wf/{{.WorkflowID}}?runId={{.RunID}}">{{.WorkflowID}}</a></td>
            <td class="muted">{{.RunID}}</td>
          </tr>
        {{end}}
        </tbody>
      </table>
    {{end}}
  {{end}}
</body>
</html>
{{end}}

{{define "detail"}}
<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>{{.Checklist.Name}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    .err { color: #b00020; }
    table { border-collapse: collapse; width: 100%; margin-top: 12px; }
    th, td { border: 1px solid #ddd; padding: 8px; vertical-align: top; }
  </style>
</head>
<body>
  <a href="/ui">← Back</a>
  <h2>{{.Checklist.Name}} <small>({{.Checklist.Status}}, v{{.Checklist.Version}})</small></h2>

  {{if .Error}}<p class="err">{{.Error}}</p>{{end}}

  <p><b>WorkflowID:</b> {{.WorkflowID}}<br/>
     <b>Period:</b> {{.Checklist.Period.From.Format "2006-01-02"}} to {{.Checklist.Period.To.Format "2006-01-02"}}</p>

  <h3>Items</h3>
  <table>
    <thead><tr><th>Item</th><th>Status</th><th>Coverage</th><th>Candidates</th><th>Review</th></tr></thead>
    <tbody>
    {{range .Checklist.Items}}
      <tr>
        <td>{{.Title}}</td>
        <td>{{.Status}}</td>
        <td>{{.CoverageScore}}%</td>
        <td>{{range .AutoArtifacts}}{{.Artifact.Title}} ({{printf "%.2f" .Score}})<br/>{{end}}</td>
        <td>
          <form method="post" action="/ui/wf/{{$.WorkflowID}}/review?runId={{$.RunID}}">
            <input type="hidden" name="itemId" value="{{.ID}}"/>
            <select name="status">{{range $.Statuses}}<option>{{.}}</option>{{end}}</select>
            <input name="reviewer" placeholder="reviewer"/>
            <input name="comment" placeholder="comment"/>
            <button type="submit">Record</button>
          </form>
        </td>
      </tr>
    {{end}}
    </tbody>
  </table>

  <h3>Tasks</h3>
  <table>
    <thead><tr><th>Task</th><th>Needs</th><th>Assignee</th><th>Approver</th><th>Due</th><th>Status</th><th></th></tr></thead>
    <tbody>
    {{range .Tasks}}
      <tr>
        <td>{{.Title}}</td>
        <td>{{range .RequiredEvidence}}{{.}}<br/>{{end}}</td>
        <td>{{.Assignee}}</td>
        <td>{{.Approver}}{{if .ConflictOfInterest}} <b>(SoD)</b>{{end}}</td>
        <td>{{.DueDate.Format "2006-01-02"}} ({{.SLADays}}bd)</td>
        <td>{{.Status}}</td>
        <td>
          <form method="post" action="/ui/wf/{{$.WorkflowID}}/task?runId={{$.RunID}}">
            <input type="hidden" name="taskId" value="{{.ID}}"/>
            <select name="status"><option>BLOCKED</option><option>IN_REVIEW</option><option>DONE</option><option>OPEN</option></select>
            <input name="actor" placeholder="actor"/>
            <button type="submit">Update</button>
          </form>
        </td>
      </tr>
    {{end}}
    </tbody>
  </table>

  <h3>Audit Log</h3>
  <table>
    <thead><tr><th>Time</th><th>Kind</th><th>Message</th></tr></thead>
    <tbody>
      {{range .Audit}}
        <tr>
          <td>{{.At}}</td>
          <td>{{.Kind}}</td>
          <td>{{.Message}}</td>
        </tr>
      {{end}}
    </tbody>
  </table>
</body>
</html>
{{end}}
`
