package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"compliance-evidence-service/internal/modal"
)

// RedisStore keeps checklists under checklist:<id> (written inside a
// WATCH transaction) and each checklist's tasks in the hash
// checklist:<id>:tasks, with task:<id> pointing back at the checklist.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("store: ping redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func checklistKey(id string) string      { return "checklist:" + id }
func tasksKey(checklistID string) string { return "checklist:" + checklistID + ":tasks" }
func taskOwnerKey(id string) string      { return "task:" + id }

func (s *RedisStore) GetChecklist(ctx context.Context, id string) (modal.AuditChecklist, error) {
	data, err := s.rdb.Get(ctx, checklistKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return modal.AuditChecklist{}, fmt.Errorf("%w: checklist %s", ErrNotFound, id)
	}
	if err != nil {
		return modal.AuditChecklist{}, err
	}
	var cl modal.AuditChecklist
	if err := json.Unmarshal(data, &cl); err != nil {
		return modal.AuditChecklist{}, fmt.Errorf("store: decode checklist %s: %w", id, err)
	}
	return cl, nil
}

func (s *RedisStore) SaveChecklist(ctx context.Context, cl modal.AuditChecklist) (modal.AuditChecklist, error) {
	key := checklistKey(cl.ID)
	var saved modal.AuditChecklist
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		var current *modal.AuditChecklist
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var cur modal.AuditChecklist
			if err := json.Unmarshal(data, &cur); err != nil {
				return fmt.Errorf("store: decode checklist %s: %w", cl.ID, err)
			}
			current = &cur
		}
		next, err := checkVersion(current, cl)
		if err != nil {
			return err
		}
		body, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, body, 0)
			return nil
		})
		if err == nil {
			saved = next
		}
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return modal.AuditChecklist{}, fmt.Errorf("%w: checklist %s changed during write", ErrVersionConflict, cl.ID)
	}
	if err != nil {
		return modal.AuditChecklist{}, err
	}
	return saved, nil
}

func (s *RedisStore) GetTask(ctx context.Context, id string) (modal.Task, error) {
	owner, err := s.rdb.Get(ctx, taskOwnerKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return modal.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if err != nil {
		return modal.Task{}, err
	}
	data, err := s.rdb.HGet(ctx, tasksKey(owner), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return modal.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if err != nil {
		return modal.Task{}, err
	}
	var t modal.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return modal.Task{}, fmt.Errorf("store: decode task %s: %w", id, err)
	}
	return t, nil
}

func (s *RedisStore) SaveTasks(ctx context.Context, checklistID string, tasks []modal.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range tasks {
			body, err := json.Marshal(t)
			if err != nil {
				return err
			}
			pipe.HSet(ctx, tasksKey(checklistID), t.ID, body)
			pipe.Set(ctx, taskOwnerKey(t.ID), checklistID, 0)
		}
		return nil
	})
	return err
}

func (s *RedisStore) ListTasks(ctx context.Context, checklistID string) ([]modal.Task, error) {
	fields, err := s.rdb.HGetAll(ctx, tasksKey(checklistID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]modal.Task, 0, len(fields))
	for id, body := range fields {
		var t modal.Task
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			return nil, fmt.Errorf("store: decode task %s: %w", id, err)
		}
		out = append(out, t)
	}
	sortTasks(out)
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
