package store

import (
	"context"
	"fmt"
	"sync"

	"compliance-evidence-service/internal/modal"
)

type MemoryStore struct {
	mu         sync.RWMutex
	checklists map[string]modal.AuditChecklist
	tasks      map[string]modal.Task
	byList     map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checklists: make(map[string]modal.AuditChecklist),
		tasks:      make(map[string]modal.Task),
		byList:     make(map[string]map[string]struct{}),
	}
}

func (m *MemoryStore) GetChecklist(ctx context.Context, id string) (modal.AuditChecklist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cl, ok := m.checklists[id]
	if !ok {
		return modal.AuditChecklist{}, fmt.Errorf("%w: checklist %s", ErrNotFound, id)
	}
	return cloneChecklist(cl), nil
}

func (m *MemoryStore) SaveChecklist(ctx context.Context, cl modal.AuditChecklist) (modal.AuditChecklist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current *modal.AuditChecklist
	if cur, ok := m.checklists[cl.ID]; ok {
		current = &cur
	}
	next, err := checkVersion(current, cl)
	if err != nil {
		return modal.AuditChecklist{}, err
	}
	m.checklists[cl.ID] = cloneChecklist(next)
	return next, nil
}

func (m *MemoryStore) GetTask(ctx context.Context, id string) (modal.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return modal.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	return t, nil
}

func (m *MemoryStore) SaveTasks(ctx context.Context, checklistID string, tasks []modal.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.byList[checklistID]
	if ids == nil {
		ids = make(map[string]struct{})
		m.byList[checklistID] = ids
	}
	for _, t := range tasks {
		t.Watchers = append([]string(nil), t.Watchers...)
		t.RequiredEvidence = append([]string(nil), t.RequiredEvidence...)
		m.tasks[t.ID] = t
		ids[t.ID] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) ListTasks(ctx context.Context, checklistID string) ([]modal.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []modal.Task
	for id := range m.byList[checklistID] {
		out = append(out, m.tasks[id])
	}
	sortTasks(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

func cloneChecklist(cl modal.AuditChecklist) modal.AuditChecklist {
	items := make([]modal.AuditItem, len(cl.Items))
	for i, it := range cl.Items {
		items[i] = it.Clone()
	}
	cl.Items = items
	return cl
}
