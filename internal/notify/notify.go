// Package notify is the schedule store boundary: the pending-notification
// table triggers are registered into and delivered from. The production
// backend on mobile targets is the OS notification center; this package
// carries an in-process implementation with the same contract.
package notify

import (
	"context"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/civil"
)

// Delivered is one notification that has already fired.
type Delivered struct {
	ID      string        `json:"identifier"`
	Payload alarm.Payload `json:"payload"`
	At      time.Time     `json:"deliveredAt"`
}

// Store is the pending-notification table. Registering under an identifier
// that already exists is an overwrite, so a replan does not have to await
// cancellation completion before re-registering.
//
// Calls are fire-and-forget from the scheduler's perspective: completion
// outcomes are only ever logged, never used for further scheduling.
type Store interface {
	// RequestPermission reports whether triggers may be registered at all.
	// A denial is terminal until changed externally; nothing here retries.
	RequestPermission(ctx context.Context) bool

	// RegisterCalendar arms a trigger at the next moment the device-local
	// wall clock matches the given components; with repeats it re-arms
	// weekly after each delivery.
	RegisterCalendar(ctx context.Context, id string, at civil.Components, repeats bool, p alarm.Payload) error

	// RegisterInterval arms a one-off trigger a fixed delay from now.
	RegisterInterval(ctx context.Context, id string, delay time.Duration, p alarm.Payload) error

	// Cancel drops the exact pending identifiers. Missing ids are not an
	// error.
	Cancel(ctx context.Context, ids []string)

	// CancelPrefix drops every pending identifier with the given prefix.
	CancelPrefix(ctx context.Context, prefix string)

	ListPending(ctx context.Context) []string
	ListDelivered(ctx context.Context) []Delivered
	RemoveDelivered(ctx context.Context, ids []string)
}
