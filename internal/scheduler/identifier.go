// Package scheduler turns alarm records into concrete notification triggers
// and keeps a ringing alarm signaling until it is dismissed.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Schedule store identifiers are all prefixed by the alarm id:
//
//	{id}                    root (one-shot or specific-date trigger)
//	{id}-weekday-{1..7}     one entry per selected weekday, 1=Sun..7=Sat
//	{id}-chain-{n}          ringing continuation links, n = 0,1,2,...
const (
	weekdayInfix = "-weekday-"
	chainInfix   = "-chain-"
)

type Kind int

const (
	KindRoot Kind = iota
	KindWeekday
	KindChain
)

// TriggerID is the typed form of a schedule store identifier. It is parsed
// once at the notification boundary so the rest of the scheduler never does
// string surgery.
type TriggerID struct {
	Kind  Kind
	Alarm uuid.UUID
	N     int
}

func Root(alarm uuid.UUID) TriggerID {
	return TriggerID{Kind: KindRoot, Alarm: alarm}
}

func Weekday(alarm uuid.UUID, n int) TriggerID {
	return TriggerID{Kind: KindWeekday, Alarm: alarm, N: n}
}

func ChainLink(alarm uuid.UUID, n int) TriggerID {
	return TriggerID{Kind: KindChain, Alarm: alarm, N: n}
}

func (t TriggerID) String() string {
	switch t.Kind {
	case KindWeekday:
		return t.Alarm.String() + weekdayInfix + strconv.Itoa(t.N)
	case KindChain:
		return t.Alarm.String() + chainInfix + strconv.Itoa(t.N)
	default:
		return t.Alarm.String()
	}
}

// ChainIndex is the delivered trigger's position in the ringing chain.
// Root and weekday deliveries count as -1, so the link scheduled after them
// is chain 0.
func (t TriggerID) ChainIndex() int {
	if t.Kind == KindChain {
		return t.N
	}
	return -1
}

// NextLink is the chain identifier to schedule after this trigger was
// delivered.
func (t TriggerID) NextLink() TriggerID {
	return ChainLink(t.Alarm, t.ChainIndex()+1)
}

// Prefix is the string every identifier belonging to the alarm starts with.
func Prefix(alarm uuid.UUID) string { return alarm.String() }

// ParseTriggerID decodes a schedule store identifier.
func ParseTriggerID(s string) (TriggerID, error) {
	if base, n, ok := splitSuffix(s, weekdayInfix); ok {
		alarm, err := uuid.Parse(base)
		if err != nil {
			return TriggerID{}, fmt.Errorf("scheduler - ParseTriggerID - uuid.Parse: %w", err)
		}
		return Weekday(alarm, n), nil
	}
	if base, n, ok := splitSuffix(s, chainInfix); ok {
		alarm, err := uuid.Parse(base)
		if err != nil {
			return TriggerID{}, fmt.Errorf("scheduler - ParseTriggerID - uuid.Parse: %w", err)
		}
		return ChainLink(alarm, n), nil
	}
	alarm, err := uuid.Parse(s)
	if err != nil {
		return TriggerID{}, fmt.Errorf("scheduler - ParseTriggerID - uuid.Parse: %w", err)
	}
	return Root(alarm), nil
}

func splitSuffix(s, infix string) (base string, n int, ok bool) {
	i := strings.LastIndex(s, infix)
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(s[i+len(infix):])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return s[:i], n, true
}
