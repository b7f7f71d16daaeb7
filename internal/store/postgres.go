package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"compliance-evidence-service/internal/modal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS audit_checklists (
	id         TEXT PRIMARY KEY,
	version    BIGINT NOT NULL,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS audit_tasks (
	id           TEXT PRIMARY KEY,
	checklist_id TEXT NOT NULL,
	body         JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_tasks_checklist_idx ON audit_tasks (checklist_id);
`

// PostgresStore keeps aggregates as JSONB with a version column for
// compare-and-swap updates.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return err
}

func (s *PostgresStore) GetChecklist(ctx context.Context, id string) (modal.AuditChecklist, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM audit_checklists WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return modal.AuditChecklist{}, fmt.Errorf("%w: checklist %s", ErrNotFound, id)
	}
	if err != nil {
		return modal.AuditChecklist{}, err
	}
	var cl modal.AuditChecklist
	if err := json.Unmarshal(body, &cl); err != nil {
		return modal.AuditChecklist{}, fmt.Errorf("store: decode checklist %s: %w", id, err)
	}
	return cl, nil
}

func (s *PostgresStore) SaveChecklist(ctx context.Context, cl modal.AuditChecklist) (modal.AuditChecklist, error) {
	expected := cl.Version
	cl.Version = expected + 1
	body, err := json.Marshal(cl)
	if err != nil {
		return modal.AuditChecklist{}, err
	}

	var tag pgconn.CommandTag
	if expected == 0 {
		tag, err = s.pool.Exec(ctx,
			`INSERT INTO audit_checklists (id, version, body) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			cl.ID, cl.Version, body)
	} else {
		tag, err = s.pool.Exec(ctx,
			`UPDATE audit_checklists SET version = $2, body = $3, updated_at = now() WHERE id = $1 AND version = $4`,
			cl.ID, cl.Version, body, expected)
	}
	if err != nil {
		return modal.AuditChecklist{}, err
	}
	if tag.RowsAffected() == 0 {
		return modal.AuditChecklist{}, fmt.Errorf("%w: checklist %s, write based on %d", ErrVersionConflict, cl.ID, expected)
	}
	return cl, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, id string) (modal.Task, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM audit_tasks WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return modal.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if err != nil {
		return modal.Task{}, err
	}
	var t modal.Task
	if err := json.Unmarshal(body, &t); err != nil {
		return modal.Task{}, fmt.Errorf("store: decode task %s: %w", id, err)
	}
	return t, nil
}

func (s *PostgresStore) SaveTasks(ctx context.Context, checklistID string, tasks []modal.Task) error {
	batch := &pgx.Batch{}
	for _, t := range tasks {
		body, err := json.Marshal(t)
		if err != nil {
			return err
		}
		batch.Queue(`INSERT INTO audit_tasks (id, checklist_id, body) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
			t.ID, checklistID, body)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

func (s *PostgresStore) ListTasks(ctx context.Context, checklistID string) ([]modal.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT body FROM audit_tasks WHERE checklist_id = $1`, checklistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []modal.Task
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var t modal.Task
		if err := json.Unmarshal(body, &t); err != nil {
			return nil, fmt.Errorf("store: decode task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortTasks(out)
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
