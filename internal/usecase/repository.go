package usecase

import (
	"context"
	"errors"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/google/uuid"
)

// ErrNotFound is returned for lookups of alarms that do not exist.
var ErrNotFound = errors.New("alarm not found")

// AlarmRepository persists the alarm list. Scheduling state never lives
// here; the schedule store is always recomputed from these records.
type AlarmRepository interface {
	Create(ctx context.Context, a alarm.Alarm) error
	Update(ctx context.Context, a alarm.Alarm) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (alarm.Alarm, error)
	// List returns all alarms in display order: sort order ascending,
	// then newest first.
	List(ctx context.Context) ([]alarm.Alarm, error)
	ListEnabled(ctx context.Context) ([]alarm.Alarm, error)
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (alarm.Alarm, error)
	// Reorder assigns ascending sort order following the given id order.
	Reorder(ctx context.Context, ids []uuid.UUID) error
}
