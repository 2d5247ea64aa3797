package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/audio"
	"github.com/Raimguhinov/alarm-go/internal/civil"
	"github.com/Raimguhinov/alarm-go/internal/notify"
	"github.com/Raimguhinov/alarm-go/internal/scheduler"
	"github.com/Raimguhinov/alarm-go/internal/storage/memory"
	"github.com/Raimguhinov/alarm-go/internal/usecase"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	alarms *usecase.Alarms
	center *notify.Center
	repo   *memory.Repository
	device *time.Location
}

func newEnv(t *testing.T, opts ...notify.Option) *env {
	t.Helper()
	l := logger.New("error", "prod")
	la, err := civil.LoadZone("America/Los_Angeles")
	require.NoError(t, err)

	center := notify.NewCenter(l, la, opts...)
	session := scheduler.NewSession()
	planner := scheduler.NewPlanner(center, center.Location, l)
	chain := scheduler.NewChain(center, session, audio.Noop{}, 10*time.Second, 100, l)
	repo := memory.NewRepository()

	return &env{
		alarms: usecase.NewAlarms(repo, planner, chain, session, center, "Asia/Seoul", l),
		center: center,
		repo:   repo,
		device: la,
	}
}

// requireTargetClock checks that a pending trigger's device-local components
// map back to the requested wall clock in the alarm's target zone.
func requireTargetClock(t *testing.T, e *env, p notify.PendingTrigger, zone string, hour, minute int) {
	t.Helper()
	target, err := civil.LoadZone(zone)
	require.NoError(t, err)
	back := civil.At(civil.Instant(p.At, e.center.Location()), target)
	assert.Equal(t, hour, back.Hour, "identifier %s", p.ID)
	assert.Equal(t, minute, back.Minute, "identifier %s", p.ID)
}

func TestCreatePlansWeekdayTriggers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := alarm.New("Standup", 9, 0, "Asia/Seoul")
	a.SetWeekdays(2, 5)

	created, err := e.alarms.Create(ctx, a)
	require.NoError(t, err)

	want := []string{
		scheduler.Weekday(created.ID, 2).String(),
		scheduler.Weekday(created.ID, 5).String(),
	}
	assert.ElementsMatch(t, want, e.center.ListPending(ctx))

	for _, p := range e.center.Snapshot(ctx) {
		requireTargetClock(t, e, p, "Asia/Seoul", 9, 0)
		assert.True(t, p.Repeats)
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.alarms.Create(ctx, alarm.Alarm{Name: "Bare", Hour: 6, Minute: 15, Enabled: true})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, "Asia/Seoul", created.Timezone)

	stored, err := e.alarms.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
}

func TestCreateRejectsInvalid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.alarms.Create(ctx, alarm.Alarm{Name: "Broken", Hour: 24, Enabled: true})
	require.Error(t, err)

	list, err := e.alarms.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, e.center.ListPending(ctx))
}

func TestCreateCollapsesConflictingRepeatRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	date := time.Date(2034, time.June, 10, 0, 0, 0, 0, time.UTC)
	a := alarm.New("Conflicted", 9, 0, "Asia/Seoul")
	a.Weekdays = []int{2, 3}
	a.Date = &date

	created, err := e.alarms.Create(ctx, a)
	require.NoError(t, err)

	assert.Empty(t, created.Weekdays)
	require.NotNil(t, created.Date)
	assert.Equal(t, []string{scheduler.Root(created.ID).String()}, e.center.ListPending(ctx))
}

func TestToggle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := alarm.New("Standup", 9, 0, "Asia/Seoul")
	a.SetWeekdays(2)
	created, err := e.alarms.Create(ctx, a)
	require.NoError(t, err)
	require.Len(t, e.center.ListPending(ctx), 1)

	off, err := e.alarms.Toggle(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, off.Enabled)
	assert.Empty(t, e.center.ListPending(ctx))

	on, err := e.alarms.Toggle(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, on.Enabled)
	assert.Len(t, e.center.ListPending(ctx), 1)
}

func TestUpdateSupersedesTriggers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := alarm.New("Standup", 9, 0, "Asia/Seoul")
	a.SetWeekdays(2)
	created, err := e.alarms.Create(ctx, a)
	require.NoError(t, err)

	created.SetWeekdays(3)
	created.Hour = 10
	updated, err := e.alarms.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	ids := e.center.ListPending(ctx)
	require.Equal(t, []string{scheduler.Weekday(created.ID, 3).String()}, ids)
	requireTargetClock(t, e, e.center.Snapshot(ctx)[0], "Asia/Seoul", 10, 0)
}

func TestUpdateUnknownAlarm(t *testing.T) {
	e := newEnv(t)
	_, err := e.alarms.Update(context.Background(), alarm.New("Ghost", 9, 0, "Asia/Seoul"))
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestDeletePurgesSchedule(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := alarm.New("Standup", 9, 0, "Asia/Seoul")
	a.SetWeekdays(2, 3, 4)
	created, err := e.alarms.Create(ctx, a)
	require.NoError(t, err)
	require.Len(t, e.center.ListPending(ctx), 3)

	require.NoError(t, e.alarms.Delete(ctx, created.ID))

	assert.Empty(t, e.center.ListPending(ctx))
	_, err = e.alarms.Get(ctx, created.ID)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestDismissAfterDelivery(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.alarms.Create(ctx, alarm.New("Call home", 9, 0, "Asia/Seoul"))
	require.NoError(t, err)

	e.alarms.Delivered(ctx, notify.Delivered{
		ID:      scheduler.Root(created.ID).String(),
		Payload: created.Payload(),
		At:      time.Now(),
	})
	assert.Contains(t, e.center.ListPending(ctx), scheduler.ChainLink(created.ID, 0).String())

	e.alarms.Dismiss(ctx, created.ID)
	assert.Empty(t, e.center.ListPending(ctx))

	// Re-scheduling through an update reopens the episode.
	_, err = e.alarms.Update(ctx, created)
	require.NoError(t, err)
	e.alarms.Delivered(ctx, notify.Delivered{
		ID:      scheduler.Root(created.ID).String(),
		Payload: created.Payload(),
		At:      time.Now(),
	})
	assert.Contains(t, e.center.ListPending(ctx), scheduler.ChainLink(created.ID, 0).String())
}

func TestReplanAllAfterDeviceTimezoneChange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := alarm.New("Standup", 9, 0, "Asia/Seoul")
	a.SetWeekdays(2)
	created, err := e.alarms.Create(ctx, a)
	require.NoError(t, err)

	ny, err := civil.LoadZone("America/New_York")
	require.NoError(t, err)
	e.center.SetLocation(ny)
	require.NoError(t, e.alarms.ReplanAll(ctx))

	snap := e.center.Snapshot(ctx)
	require.Len(t, snap, 1)
	assert.Equal(t, scheduler.Weekday(created.ID, 2).String(), snap[0].ID)
	// Components are now expressed in New York local time but still resolve
	// to 09:00 Seoul.
	requireTargetClock(t, e, snap[0], "Asia/Seoul", 9, 0)
}

func TestCatchUpReplaysRecentDeliveries(t *testing.T) {
	e := newEnv(t, notify.WithTick(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = e.center.Run(ctx) }()

	created, err := e.alarms.Create(ctx, alarm.New("Call home", 9, 0, "Asia/Seoul"))
	require.NoError(t, err)

	// Force an immediate delivery, as if the process had crashed right
	// after the alarm fired.
	root := scheduler.Root(created.ID).String()
	require.NoError(t, e.center.RegisterInterval(ctx, root, 0, created.Payload()))
	require.Eventually(t, func() bool {
		return len(e.center.ListDelivered(ctx)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A zero window excludes everything already delivered.
	e.alarms.CatchUp(ctx, 0)
	assert.NotContains(t, e.center.ListPending(ctx), scheduler.ChainLink(created.ID, 0).String())

	e.alarms.CatchUp(ctx, time.Minute)
	assert.Contains(t, e.center.ListPending(ctx), scheduler.ChainLink(created.ID, 0).String())
}
