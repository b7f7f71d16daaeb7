package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"compliance-evidence-service/internal/modal"
)

// FileStore keeps one JSON file per checklist (<dir>/checklists/<id>.json)
// and one per checklist's task set (<dir>/tasks/<checklistID>.json). Version
// checks hold only within a single process.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, os.ErrInvalid
	}
	for _, sub := range []string{"checklists", "tasks"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, err
		}
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) checklistPath(id string) string {
	return filepath.Join(s.dir, "checklists", filepath.Base(id)+".json")
}

func (s *FileStore) tasksPath(checklistID string) string {
	return filepath.Join(s.dir, "tasks", filepath.Base(checklistID)+".json")
}

func (s *FileStore) GetChecklist(ctx context.Context, id string) (modal.AuditChecklist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cl modal.AuditChecklist
	found, err := readJSON(s.checklistPath(id), &cl)
	if err != nil {
		return modal.AuditChecklist{}, err
	}
	if !found {
		return modal.AuditChecklist{}, fmt.Errorf("%w: checklist %s", ErrNotFound, id)
	}
	return cl, nil
}

func (s *FileStore) SaveChecklist(ctx context.Context, cl modal.AuditChecklist) (modal.AuditChecklist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cur modal.AuditChecklist
	found, err := readJSON(s.checklistPath(cl.ID), &cur)
	if err != nil {
		return modal.AuditChecklist{}, err
	}
	var current *modal.AuditChecklist
	if found {
		current = &cur
	}
	next, err := checkVersion(current, cl)
	if err != nil {
		return modal.AuditChecklist{}, err
	}
	if err := writeJSON(s.checklistPath(cl.ID), next); err != nil {
		return modal.AuditChecklist{}, err
	}
	return next, nil
}

func (s *FileStore) GetTask(ctx context.Context, id string) (modal.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(filepath.Join(s.dir, "tasks"))
	if err != nil {
		return modal.Task{}, err
	}
	for _, e := range entries {
		var set map[string]modal.Task
		if _, err := readJSON(filepath.Join(s.dir, "tasks", e.Name()), &set); err != nil {
			return modal.Task{}, err
		}
		if t, ok := set[id]; ok {
			return t, nil
		}
	}
	return modal.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
}

func (s *FileStore) SaveTasks(ctx context.Context, checklistID string, tasks []modal.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]modal.Task)
	if _, err := readJSON(s.tasksPath(checklistID), &set); err != nil {
		return err
	}
	for _, t := range tasks {
		set[t.ID] = t
	}
	return writeJSON(s.tasksPath(checklistID), set)
}

func (s *FileStore) ListTasks(ctx context.Context, checklistID string) ([]modal.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var set map[string]modal.Task
	if _, err := readJSON(s.tasksPath(checklistID), &set); err != nil {
		return nil, err
	}
	out := make([]modal.Task, 0, len(set))
	for _, t := range set {
		out = append(out, t)
	}
	sortTasks(out)
	return out, nil
}

func (s *FileStore) Close() error { return nil }

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("store: decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// writeJSON replaces path atomically via a temp file and rename.
func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
