package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/civil"
	"github.com/Raimguhinov/alarm-go/internal/notify"
	"github.com/Raimguhinov/alarm-go/internal/scheduler"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyRinger struct {
	mu    sync.Mutex
	plays int
	stops int
}

func (r *spyRinger) Play() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plays++
}

func (r *spyRinger) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
}

func (r *spyRinger) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plays, r.stops
}

func newChainEnv(t *testing.T) (*scheduler.Chain, *scheduler.Session, *notify.Center, *spyRinger) {
	t.Helper()
	l := logger.New("error", "prod")
	loc, err := civil.LoadZone("America/Los_Angeles")
	require.NoError(t, err)
	center := notify.NewCenter(l, loc)
	session := scheduler.NewSession()
	ringer := &spyRinger{}
	chain := scheduler.NewChain(center, session, ringer, 10*time.Second, 100, l)
	return chain, session, center, ringer
}

func delivered(a alarm.Alarm, tid scheduler.TriggerID) notify.Delivered {
	return notify.Delivered{ID: tid.String(), Payload: a.Payload(), At: time.Now()}
}

func TestChainProgression(t *testing.T) {
	chain, _, center, ringer := newChainEnv(t)
	ctx := context.Background()
	a := alarm.New("Standup", 9, 0, "Asia/Seoul")

	chain.OnDelivered(ctx, delivered(a, scheduler.Weekday(a.ID, 2)))
	assert.Equal(t, []string{scheduler.ChainLink(a.ID, 0).String()}, center.ListPending(ctx))

	chain.OnDelivered(ctx, delivered(a, scheduler.ChainLink(a.ID, 0)))
	chain.OnDelivered(ctx, delivered(a, scheduler.ChainLink(a.ID, 1)))
	assert.Contains(t, center.ListPending(ctx), scheduler.ChainLink(a.ID, 2).String())

	plays, _ := ringer.counts()
	assert.Equal(t, 3, plays)
}

func TestChainIgnoresDuplicateDelivery(t *testing.T) {
	chain, _, center, ringer := newChainEnv(t)
	ctx := context.Background()
	a := alarm.New("Standup", 9, 0, "Asia/Seoul")
	root := delivered(a, scheduler.Root(a.ID))

	chain.OnDelivered(ctx, root)
	// Drop the link the first delivery scheduled; a replayed callback for
	// the same identifier must not bring it back.
	center.Cancel(ctx, []string{scheduler.ChainLink(a.ID, 0).String()})
	chain.OnDelivered(ctx, root)

	assert.Empty(t, center.ListPending(ctx))
	plays, _ := ringer.counts()
	assert.Equal(t, 1, plays)
}

func TestChainIgnoresUnknownIdentifier(t *testing.T) {
	chain, _, center, ringer := newChainEnv(t)
	ctx := context.Background()

	chain.OnDelivered(ctx, notify.Delivered{ID: "definitely-not-ours", At: time.Now()})

	assert.Empty(t, center.ListPending(ctx))
	plays, _ := ringer.counts()
	assert.Zero(t, plays)
}

func TestDismissStopsChaining(t *testing.T) {
	chain, _, center, ringer := newChainEnv(t)
	ctx := context.Background()
	a := alarm.New("Standup", 9, 0, "Asia/Seoul")

	chain.OnDelivered(ctx, delivered(a, scheduler.Root(a.ID)))
	require.Len(t, center.ListPending(ctx), 1)

	chain.Dismiss(ctx, a.ID)
	assert.Empty(t, center.ListPending(ctx))

	// A link already in flight when the user dismissed still gets delivered;
	// it must die quietly instead of restarting the chain.
	chain.OnDelivered(ctx, delivered(a, scheduler.ChainLink(a.ID, 0)))
	chain.OnDelivered(ctx, delivered(a, scheduler.Root(a.ID)))
	assert.Empty(t, center.ListPending(ctx))

	plays, stops := ringer.counts()
	assert.Equal(t, 1, plays)
	assert.Equal(t, 1, stops)
}

func TestDismissIsIdempotent(t *testing.T) {
	chain, _, _, ringer := newChainEnv(t)
	ctx := context.Background()
	a := alarm.New("Standup", 9, 0, "Asia/Seoul")

	chain.Dismiss(ctx, a.ID)
	chain.Dismiss(ctx, a.ID)

	_, stops := ringer.counts()
	assert.Equal(t, 1, stops)
}

func TestDismissDoesNotTouchOtherAlarms(t *testing.T) {
	chain, _, center, _ := newChainEnv(t)
	ctx := context.Background()
	a := alarm.New("Standup", 9, 0, "Asia/Seoul")
	b := alarm.New("Workout", 7, 0, "Europe/Berlin")

	chain.OnDelivered(ctx, delivered(a, scheduler.Root(a.ID)))
	chain.OnDelivered(ctx, delivered(b, scheduler.Root(b.ID)))

	chain.Dismiss(ctx, a.ID)

	assert.Equal(t, []string{scheduler.ChainLink(b.ID, 0).String()}, center.ListPending(ctx))
}

func TestSessionResetReopensEpisode(t *testing.T) {
	chain, session, center, _ := newChainEnv(t)
	ctx := context.Background()
	a := alarm.New("Standup", 9, 0, "Asia/Seoul")

	chain.OnDelivered(ctx, delivered(a, scheduler.Root(a.ID)))
	chain.Dismiss(ctx, a.ID)
	require.Empty(t, center.ListPending(ctx))

	// A replan reopens the episode, so the next delivery chains again.
	session.Reset(a.ID)
	chain.OnDelivered(ctx, delivered(a, scheduler.Root(a.ID)))
	assert.Equal(t, []string{scheduler.ChainLink(a.ID, 0).String()}, center.ListPending(ctx))
}

func TestDismissSweepsDeliveredRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := alarm.New("Standup", 9, 0, "Asia/Seoul")

	// Build a delivered backlog by dispatching an immediate interval
	// trigger through the center loop.
	l := logger.New("error", "prod")
	center := notify.NewCenter(l, time.UTC, notify.WithTick(5*time.Millisecond))
	go func() { _ = center.Run(ctx) }()

	chain := scheduler.NewChain(center, scheduler.NewSession(), &spyRinger{}, 10*time.Second, 100, l)

	require.NoError(t, center.RegisterInterval(ctx, scheduler.Root(a.ID).String(), 0, a.Payload()))
	require.Eventually(t, func() bool {
		return len(center.ListDelivered(ctx)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	chain.Dismiss(ctx, a.ID)
	assert.Empty(t, center.ListDelivered(ctx))
}
