package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"compliance-evidence-service/internal/modal"
)

// JSONLTrail appends one JSON object per line to a file.
type JSONLTrail struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

func NewJSONLTrail(path string) (*JSONLTrail, error) {
	if path == "" {
		return nil, os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLTrail{path: path, f: f}, nil
}

func (t *JSONLTrail) Append(ctx context.Context, e modal.AuditEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err = t.f.Write(append(data, '\n'))
	return err
}

// List reads the whole file back; lines that fail to parse are skipped.
func (t *JSONLTrail) List(ctx context.Context) ([]modal.AuditEvent, error) {
	t.mu.Lock()
	_ = t.f.Sync()
	t.mu.Unlock()

	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []modal.AuditEvent
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		var e modal.AuditEvent
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (t *JSONLTrail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f == nil {
		return nil
	}
	err := t.f.Close()
	t.f = nil
	return err
}
