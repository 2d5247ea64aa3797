package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/civil"
	"github.com/Raimguhinov/alarm-go/internal/notify"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/teambition/rrule-go"
)

// Index into this table is a 1=Sun..7=Sat weekday number.
var rruleWeekdays = [...]rrule.Weekday{
	alarm.WeekdayMin: rrule.SU,
	2:                rrule.MO,
	3:                rrule.TU,
	4:                rrule.WE,
	5:                rrule.TH,
	6:                rrule.FR,
	alarm.WeekdayMax: rrule.SA,
}

// Planner computes the absolute instants at which an alarm's target-zone
// clock time occurs and registers them with the schedule store as
// device-local calendar triggers. A plan is always a full
// cancel-and-recompute, never an incremental patch, which is what keeps the
// registered set correct across arbitrary device timezone jumps.
type Planner struct {
	store notify.Store
	local func() *time.Location
	l     *logger.Logger
}

// NewPlanner wires the planner to a schedule store and a source of the
// device's current timezone.
func NewPlanner(store notify.Store, local func() *time.Location, l *logger.Logger) *Planner {
	return &Planner{store: store, local: local, l: l}
}

// Plan replaces every registered trigger of the alarm. Disabled alarms end
// up with none. The returned error is informational: planning failures are
// terminal for this invocation and nothing retries automatically.
func (p *Planner) Plan(ctx context.Context, a alarm.Alarm, now time.Time) error {
	// Stale entries go first so the new registration set fully supersedes
	// the old one. Registrations overwrite on identical identifiers, so
	// cancel completion is not awaited.
	p.store.CancelPrefix(ctx, Prefix(a.ID))

	if !a.Enabled {
		return nil
	}
	if !p.store.RequestPermission(ctx) {
		return fmt.Errorf("scheduler - Plan: scheduling permission not granted")
	}

	target, err := civil.LoadZone(a.Timezone)
	if err != nil {
		return fmt.Errorf("scheduler - Plan: %w", err)
	}

	switch {
	case a.Repeating():
		p.planWeekly(ctx, a, target, now)
	case a.Date != nil:
		p.planDate(ctx, a, target)
	default:
		p.planOneShot(ctx, a, target, now)
	}
	return nil
}

// planWeekly registers one independently repeating trigger per selected
// weekday. A failed weekday does not stop the others.
func (p *Planner) planWeekly(ctx context.Context, a alarm.Alarm, target *time.Location, now time.Time) {
	for _, wd := range a.Weekdays {
		instant, err := p.nextWeekday(a, target, wd, now)
		if err != nil {
			p.l.Warn("scheduler - planWeekly: skipping weekday",
				"alarm", a.ID.String(), "weekday", wd, logger.Err(err))
			continue
		}
		p.register(ctx, Weekday(a.ID, wd), a, instant, true)
	}
}

// nextWeekday finds the next occurrence of the alarm's clock time on the
// given weekday in the target zone: this week if not yet passed, else next
// week. "Passed" compares against now in the target zone's wall clock, not
// the device's.
func (p *Planner) nextWeekday(a alarm.Alarm, target *time.Location, wd int, now time.Time) (time.Time, error) {
	if wd < alarm.WeekdayMin || wd > alarm.WeekdayMax {
		return time.Time{}, fmt.Errorf("scheduler - nextWeekday: weekday %d out of range", wd)
	}
	// Anchor the rule a week back so today's occurrence is still in range.
	anchor := civil.At(now, target).WithClock(a.Hour, a.Minute)
	anchor.Day -= 7

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[wd]},
		Dtstart:   civil.Instant(anchor, target),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduler - nextWeekday - rrule.NewRRule: %w", err)
	}

	next := r.After(now, false)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("scheduler - nextWeekday: no occurrence after %v", now)
	}
	return next, nil
}

// planDate registers the unique trigger where the target zone's civil date
// and clock time match the alarm.
func (p *Planner) planDate(ctx context.Context, a alarm.Alarm, target *time.Location) {
	c := civil.Components{
		Year:   a.Date.Year(),
		Month:  a.Date.Month(),
		Day:    a.Date.Day(),
		Hour:   a.Hour,
		Minute: a.Minute,
	}
	p.register(ctx, Root(a.ID), a, civil.Instant(c, target), false)
}

// planOneShot registers today's occurrence in the target zone, rolled to
// the next day if the target-zone wall clock has already passed it.
func (p *Planner) planOneShot(ctx context.Context, a alarm.Alarm, target *time.Location, now time.Time) {
	c := civil.At(now, target).WithClock(a.Hour, a.Minute)
	instant := civil.Instant(c, target)
	if !instant.After(now) {
		c.Day++
		instant = civil.Instant(c, target)
	}
	p.register(ctx, Root(a.ID), a, instant, false)
}

func (p *Planner) register(ctx context.Context, id TriggerID, a alarm.Alarm, instant time.Time, repeats bool) {
	local := civil.At(instant, p.local())
	if err := p.store.RegisterCalendar(ctx, id.String(), local, repeats, a.Payload()); err != nil {
		// Logged only; the next explicit replan is the recovery path.
		p.l.Error("scheduler - register - store.RegisterCalendar",
			"identifier", id.String(), logger.Err(err))
		return
	}
	p.l.Debug("scheduler - register: trigger armed",
		"identifier", id.String(), "fireAt", instant.String(), "repeats", repeats)
}
