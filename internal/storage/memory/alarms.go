// Package memory is a map-backed alarm repository for tests and for
// running the service without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/usecase"
	"github.com/google/uuid"
)

type Repository struct {
	mu     sync.RWMutex
	alarms map[uuid.UUID]alarm.Alarm
}

func NewRepository() *Repository {
	return &Repository{alarms: make(map[uuid.UUID]alarm.Alarm)}
}

func (r *Repository) Create(_ context.Context, a alarm.Alarm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alarms[a.ID] = a
	return nil
}

func (r *Repository) Update(_ context.Context, a alarm.Alarm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.alarms[a.ID]; !ok {
		return usecase.ErrNotFound
	}
	r.alarms[a.ID] = a
	return nil
}

func (r *Repository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.alarms, id)
	return nil
}

func (r *Repository) Get(_ context.Context, id uuid.UUID) (alarm.Alarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.alarms[id]
	if !ok {
		return alarm.Alarm{}, usecase.ErrNotFound
	}
	return a, nil
}

func (r *Repository) List(_ context.Context) ([]alarm.Alarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]alarm.Alarm, 0, len(r.alarms))
	for _, a := range r.alarms {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repository) ListEnabled(ctx context.Context) ([]alarm.Alarm, error) {
	all, _ := r.List(ctx)
	out := all[:0]
	for _, a := range all {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *Repository) SetEnabled(_ context.Context, id uuid.UUID, enabled bool) (alarm.Alarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alarms[id]
	if !ok {
		return alarm.Alarm{}, usecase.ErrNotFound
	}
	a.Enabled = enabled
	r.alarms[id] = a
	return a, nil
}

func (r *Repository) Reorder(_ context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, id := range ids {
		a, ok := r.alarms[id]
		if !ok {
			return usecase.ErrNotFound
		}
		a.SortOrder = i
		r.alarms[id] = a
	}
	return nil
}
