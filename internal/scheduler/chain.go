package scheduler

import (
	"context"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/audio"
	"github.com/Raimguhinov/alarm-go/internal/notify"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/google/uuid"
)

const (
	// DefaultChainInterval is the gap between ringing continuations.
	DefaultChainInterval = 10 * time.Second

	// DefaultSweepLimit bounds the constructed identifier set the dismissal
	// cleanup removes. The chaining loop itself needs no bound: it advances
	// one link per delivery and stops once dismissed.
	DefaultSweepLimit = 100
)

// Chain keeps a ringing alarm signaling by registering one follow-up
// trigger per delivery until the alarm is dismissed, and implements the
// dismissal itself.
type Chain struct {
	store      notify.Store
	session    *Session
	ringer     audio.Ringer
	interval   time.Duration
	sweepLimit int
	l          *logger.Logger
}

func NewChain(store notify.Store, session *Session, ringer audio.Ringer, interval time.Duration, sweepLimit int, l *logger.Logger) *Chain {
	if interval <= 0 {
		interval = DefaultChainInterval
	}
	if sweepLimit <= 0 {
		sweepLimit = DefaultSweepLimit
	}
	return &Chain{
		store:      store,
		session:    session,
		ringer:     ringer,
		interval:   interval,
		sweepLimit: sweepLimit,
		l:          l,
	}
}

// OnDelivered advances the chain by one link: a root or weekday delivery
// schedules chain 0, chain N schedules N+1. Deliveries for a dismissed
// alarm and replays of an already-handled identifier are no-ops.
func (c *Chain) OnDelivered(ctx context.Context, d notify.Delivered) {
	tid, err := ParseTriggerID(d.ID)
	if err != nil {
		c.l.Warn("scheduler - OnDelivered: unrecognized identifier",
			"identifier", d.ID, logger.Err(err))
		return
	}
	if c.session.Dismissed(tid.Alarm) {
		return
	}
	if !c.session.MarkHandled(d.ID) {
		c.l.Debug("scheduler - OnDelivered: duplicate delivery", "identifier", d.ID)
		return
	}

	c.ringer.Play()

	next := tid.NextLink()
	if err := c.store.RegisterInterval(ctx, next.String(), c.interval, d.Payload); err != nil {
		c.l.Error("scheduler - OnDelivered - store.RegisterInterval",
			"identifier", next.String(), logger.Err(err))
		return
	}
	c.l.Debug("scheduler - OnDelivered: chained",
		"identifier", d.ID, "next", next.String())
}

// Dismiss terminates the alarm's ringing episode: no further chain links,
// every pending identifier with the alarm prefix cancelled, delivered
// records cleared, audio stopped. Safe to call repeatedly.
func (c *Chain) Dismiss(ctx context.Context, alarmID uuid.UUID) {
	if !c.session.Dismiss(alarmID) {
		return
	}
	c.store.CancelPrefix(ctx, Prefix(alarmID))
	c.store.RemoveDelivered(ctx, c.sweepIdentifiers(alarmID))
	c.ringer.Stop()
	c.l.Info("scheduler - Dismiss: alarm dismissed", "alarm", alarmID.String())
}

// sweepIdentifiers is the full constructed id set a dismissal clears:
// root, every weekday variant, and chain links up to the sweep bound.
func (c *Chain) sweepIdentifiers(alarmID uuid.UUID) []string {
	ids := make([]string, 0, 1+alarm.WeekdayMax+c.sweepLimit)
	ids = append(ids, Root(alarmID).String())
	for wd := alarm.WeekdayMin; wd <= alarm.WeekdayMax; wd++ {
		ids = append(ids, Weekday(alarmID, wd).String())
	}
	for i := 0; i < c.sweepLimit; i++ {
		ids = append(ids, ChainLink(alarmID, i).String())
	}
	return ids
}
