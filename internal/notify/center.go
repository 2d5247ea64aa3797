package notify

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/civil"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
)

const (
	_defaultTick       = time.Second
	_defaultEventDepth = 64
)

// PendingTrigger is the armed state of one registered identifier.
type PendingTrigger struct {
	ID      string           `json:"identifier"`
	At      civil.Components `json:"at"`
	Repeats bool             `json:"repeats"`
	FireAt  time.Time        `json:"fireAt"`
	Payload alarm.Payload    `json:"payload"`
}

// Center is the in-process schedule store. A single dispatcher goroutine
// scans the pending table and emits due triggers on Events; weekly triggers
// re-arm themselves after each delivery.
type Center struct {
	mu        sync.RWMutex
	loc       *time.Location
	granted   bool
	tick      time.Duration
	pending   map[string]*PendingTrigger
	delivered map[string]Delivered
	events    chan Delivered
	l         *logger.Logger
}

type Option func(*Center)

// WithTick sets the dispatcher scan interval.
func WithTick(d time.Duration) Option {
	return func(c *Center) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithPermission seeds the permission grant; it stands in for the OS-level
// notification authorization.
func WithPermission(granted bool) Option {
	return func(c *Center) { c.granted = granted }
}

// NewCenter creates a schedule store resolving calendar triggers in the
// given device-local zone.
func NewCenter(l *logger.Logger, loc *time.Location, opts ...Option) *Center {
	c := &Center{
		loc:       loc,
		granted:   true,
		tick:      _defaultTick,
		pending:   make(map[string]*PendingTrigger),
		delivered: make(map[string]Delivered),
		events:    make(chan Delivered, _defaultEventDepth),
		l:         l,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives the dispatcher until the context is cancelled.
func (c *Center) Run(ctx context.Context) error {
	t := time.NewTicker(c.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			c.dispatch(now)
		}
	}
}

// Events delivers fired triggers in dispatch order.
func (c *Center) Events() <-chan Delivered { return c.events }

// Location is the device-local zone calendar triggers resolve in.
func (c *Center) Location() *time.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loc
}

// SetLocation moves the store to a new device-local zone, the in-process
// equivalent of the system timezone changing under the app. Pending
// calendar triggers are re-resolved; callers are expected to follow up
// with a full replan.
func (c *Center) SetLocation(loc *time.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loc = loc
	now := time.Now()
	for _, p := range c.pending {
		p.FireAt = nextFire(p.At, p.Repeats, now, loc)
	}
}

func (c *Center) RequestPermission(_ context.Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.granted {
		c.l.Warn("notify - RequestPermission: denied")
	}
	return c.granted
}

func (c *Center) RegisterCalendar(_ context.Context, id string, at civil.Components, repeats bool, p alarm.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Identical identifiers overwrite, so a replan never needs to await
	// its cancellations.
	c.pending[id] = &PendingTrigger{
		ID:      id,
		At:      at,
		Repeats: repeats,
		FireAt:  nextFire(at, repeats, time.Now(), c.loc),
		Payload: p,
	}
	return nil
}

func (c *Center) RegisterInterval(_ context.Context, id string, delay time.Duration, p alarm.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fireAt := time.Now().Add(delay)
	c.pending[id] = &PendingTrigger{
		ID:      id,
		At:      civil.At(fireAt, c.loc),
		FireAt:  fireAt,
		Payload: p,
	}
	return nil
}

func (c *Center) Cancel(_ context.Context, ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.pending, id)
	}
}

func (c *Center) CancelPrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.pending {
		if strings.HasPrefix(id, prefix) {
			delete(c.pending, id)
		}
	}
}

func (c *Center) ListPending(_ context.Context) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns the full pending table, ordered by identifier.
func (c *Center) Snapshot(_ context.Context) []PendingTrigger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PendingTrigger, 0, len(c.pending))
	for _, p := range c.pending {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Center) ListDelivered(_ context.Context) []Delivered {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Delivered, 0, len(c.delivered))
	for _, d := range c.delivered {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

func (c *Center) RemoveDelivered(_ context.Context, ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.delivered, id)
	}
}

func (c *Center) dispatch(now time.Time) {
	c.mu.Lock()
	var due []Delivered
	for id, p := range c.pending {
		if p.FireAt.IsZero() || p.FireAt.After(now) {
			continue
		}
		d := Delivered{ID: id, Payload: p.Payload, At: now}
		c.delivered[id] = d
		due = append(due, d)
		if p.Repeats {
			p.FireAt = nextFire(p.At, true, now, c.loc)
		} else {
			delete(c.pending, id)
		}
	}
	c.mu.Unlock()

	for _, d := range due {
		select {
		case c.events <- d:
		default:
			c.l.Warn("notify - dispatch: event channel full, dropping", "identifier", d.ID)
		}
	}
}

// nextFire resolves civil components to the next absolute fire instant.
// A non-repeating trigger whose moment already passed gets the zero time,
// meaning it stays registered but never fires. Weekly triggers advance by
// civil weeks, so the wall-clock time survives DST transitions even though
// the absolute gap is not always 168h.
func nextFire(at civil.Components, repeats bool, now time.Time, loc *time.Location) time.Time {
	t := civil.Instant(at, loc)
	if !repeats {
		if !t.After(now) {
			return time.Time{}
		}
		return t
	}
	for !t.After(now) {
		c := civil.At(t, loc)
		c.Day += 7
		t = civil.Instant(c, loc)
	}
	return t
}
