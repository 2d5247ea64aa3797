// Package usecase orchestrates the alarm list against the trigger planner
// and the chain controller. One mutex serializes every mutation and every
// plan/dismiss call, so no two replans for the same alarm can interleave.
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/notify"
	"github.com/Raimguhinov/alarm-go/internal/scheduler"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/google/uuid"
)

// Alarms is the single logical owner of the alarm list.
type Alarms struct {
	mu        sync.Mutex
	repo      AlarmRepository
	planner   *scheduler.Planner
	chain     *scheduler.Chain
	session   *scheduler.Session
	store     notify.Store
	defaultTZ string
	l         *logger.Logger
}

func NewAlarms(
	repo AlarmRepository,
	planner *scheduler.Planner,
	chain *scheduler.Chain,
	session *scheduler.Session,
	store notify.Store,
	defaultTZ string,
	l *logger.Logger,
) *Alarms {
	return &Alarms{
		repo:      repo,
		planner:   planner,
		chain:     chain,
		session:   session,
		store:     store,
		defaultTZ: defaultTZ,
		l:         l,
	}
}

// Create validates, persists and schedules a new alarm. A planning failure
// is logged, not returned: the record exists, it just has no active
// triggers until the next replanning action.
func (u *Alarms) Create(ctx context.Context, a alarm.Alarm) (alarm.Alarm, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.Timezone == "" {
		a.Timezone = u.defaultTZ
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return alarm.Alarm{}, fmt.Errorf("usecase - Create: %w", err)
	}
	if err := u.repo.Create(ctx, a); err != nil {
		return alarm.Alarm{}, fmt.Errorf("usecase - Create: %w", err)
	}
	u.replan(ctx, a)
	return a, nil
}

// Update replaces an alarm's configuration and replans it from scratch.
func (u *Alarms) Update(ctx context.Context, a alarm.Alarm) (alarm.Alarm, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	prev, err := u.repo.Get(ctx, a.ID)
	if err != nil {
		return alarm.Alarm{}, fmt.Errorf("usecase - Update: %w", err)
	}
	a.CreatedAt = prev.CreatedAt
	a.Normalize()
	if err := a.Validate(); err != nil {
		return alarm.Alarm{}, fmt.Errorf("usecase - Update: %w", err)
	}
	if err := u.repo.Update(ctx, a); err != nil {
		return alarm.Alarm{}, fmt.Errorf("usecase - Update: %w", err)
	}
	u.replan(ctx, a)
	return a, nil
}

// Delete removes the alarm and purges every schedule store entry it owns.
func (u *Alarms) Delete(ctx context.Context, id uuid.UUID) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("usecase - Delete: %w", err)
	}
	u.store.CancelPrefix(ctx, scheduler.Prefix(id))
	u.session.Reset(id)
	return nil
}

// Toggle flips the enabled state. Enabling replans; disabling leaves the
// alarm with zero schedule store entries.
func (u *Alarms) Toggle(ctx context.Context, id uuid.UUID, enabled bool) (alarm.Alarm, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	a, err := u.repo.SetEnabled(ctx, id, enabled)
	if err != nil {
		return alarm.Alarm{}, fmt.Errorf("usecase - Toggle: %w", err)
	}
	u.replan(ctx, a)
	return a, nil
}

func (u *Alarms) Get(ctx context.Context, id uuid.UUID) (alarm.Alarm, error) {
	return u.repo.Get(ctx, id)
}

func (u *Alarms) List(ctx context.Context) ([]alarm.Alarm, error) {
	return u.repo.List(ctx)
}

// Reorder applies a user-dragged display order. Sort order never affects
// scheduling, so no replan happens here.
func (u *Alarms) Reorder(ctx context.Context, ids []uuid.UUID) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.repo.Reorder(ctx, ids); err != nil {
		return fmt.Errorf("usecase - Reorder: %w", err)
	}
	return nil
}

// Dismiss acknowledges a ringing alarm.
func (u *Alarms) Dismiss(ctx context.Context, id uuid.UUID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.chain.Dismiss(ctx, id)
}

// Delivered feeds one delivered notification into the chain controller.
func (u *Alarms) Delivered(ctx context.Context, d notify.Delivered) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.chain.OnDelivered(ctx, d)
}

// ReplanAll recomputes the schedule of every enabled alarm, superseding all
// previous registrations. Invoked when the device timezone changes.
func (u *Alarms) ReplanAll(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	enabled, err := u.repo.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("usecase - ReplanAll: %w", err)
	}
	for _, a := range enabled {
		u.replan(ctx, a)
	}
	u.l.Info("usecase - ReplanAll: replanned", "alarms", len(enabled))
	return nil
}

// CatchUp replays deliveries from the last window through the chain
// controller, recovering a ringing episode the process missed while down.
func (u *Alarms) CatchUp(ctx context.Context, window time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()

	cutoff := time.Now().Add(-window)
	for _, d := range u.store.ListDelivered(ctx) {
		if d.At.Before(cutoff) {
			continue
		}
		if _, err := alarm.FromPayload(d.Payload); err != nil {
			u.l.Warn("usecase - CatchUp: bad payload", "identifier", d.ID, logger.Err(err))
			continue
		}
		u.chain.OnDelivered(ctx, d)
	}
}

// replan opens a fresh ringing episode and recomputes the alarm's triggers.
// Planning failures are terminal and logged; the alarm is simply left with
// no active schedule until the user takes a corrective action.
func (u *Alarms) replan(ctx context.Context, a alarm.Alarm) {
	u.session.Reset(a.ID)
	if err := u.planner.Plan(ctx, a, time.Now()); err != nil {
		u.l.Warn("usecase - replan: alarm left unscheduled",
			"alarm", a.ID.String(), logger.Err(err))
	}
}
