// Package alarm defines the alarm record: a clock time pinned to a target
// timezone, plus its repeat rule. The hour and minute are interpreted in
// the target zone's civil calendar, never the device's.
package alarm

import (
	"fmt"
	"slices"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/civil"
	"github.com/google/uuid"
)

// Weekday numbers follow the notification identifier scheme: 1=Sunday
// through 7=Saturday.
const (
	WeekdayMin = 1
	WeekdayMax = 7
)

// Alarm is one configured alarm. Exactly one of Weekdays (non-empty) or
// Date (non-nil) may be set; with neither, the alarm is a one-shot that
// fires at the next matching clock time.
type Alarm struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Hour      int        `json:"hour"`
	Minute    int        `json:"minute"`
	Timezone  string     `json:"timezoneIdentifier"`
	Country   string     `json:"countryName"`
	Flag      string     `json:"countryFlag"`
	Weekdays  []int      `json:"selectedWeekdays,omitempty"`
	Date      *time.Time `json:"selectedDate,omitempty"`
	Enabled   bool       `json:"isEnabled"`
	SortOrder int        `json:"sortOrder"`
	CreatedAt time.Time  `json:"createdAt"`
}

// New creates an enabled alarm with a fresh id.
func New(name string, hour, minute int, timezone string) Alarm {
	return Alarm{
		ID:        uuid.New(),
		Name:      name,
		Hour:      hour,
		Minute:    minute,
		Timezone:  timezone,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
}

// SetWeekdays replaces the repeat rule with a weekly one and clears any
// specific date, keeping the two mutually exclusive in the same update.
func (a *Alarm) SetWeekdays(days ...int) {
	a.Weekdays = normalizeWeekdays(days)
	a.Date = nil
}

// SetDate replaces the repeat rule with a specific calendar date and clears
// the weekday set.
func (a *Alarm) SetDate(date time.Time) {
	d := date
	a.Date = &d
	a.Weekdays = nil
}

// ClearRepeat turns the alarm into a one-shot.
func (a *Alarm) ClearRepeat() {
	a.Weekdays = nil
	a.Date = nil
}

// Normalize dedupes and sorts the weekday set and enforces the repeat-rule
// exclusivity invariant (a date wins over a simultaneously present weekday
// set, matching SetDate semantics).
func (a *Alarm) Normalize() {
	a.Weekdays = normalizeWeekdays(a.Weekdays)
	if a.Date != nil {
		a.Weekdays = nil
	}
}

// Validate checks field ranges and that the target timezone resolves.
func (a Alarm) Validate() error {
	if a.ID == uuid.Nil {
		return fmt.Errorf("alarm - Validate: missing id")
	}
	if a.Hour < 0 || a.Hour > 23 {
		return fmt.Errorf("alarm - Validate: hour %d out of range", a.Hour)
	}
	if a.Minute < 0 || a.Minute > 59 {
		return fmt.Errorf("alarm - Validate: minute %d out of range", a.Minute)
	}
	for _, wd := range a.Weekdays {
		if wd < WeekdayMin || wd > WeekdayMax {
			return fmt.Errorf("alarm - Validate: weekday %d out of range", wd)
		}
	}
	if len(a.Weekdays) > 0 && a.Date != nil {
		return fmt.Errorf("alarm - Validate: weekdays and date are mutually exclusive")
	}
	if _, err := civil.LoadZone(a.Timezone); err != nil {
		return fmt.Errorf("alarm - Validate: %w", err)
	}
	return nil
}

// Repeating reports whether the alarm repeats weekly.
func (a Alarm) Repeating() bool { return len(a.Weekdays) > 0 }

// WeekdayNumber maps a time.Weekday onto the 1=Sunday..7=Saturday scheme.
func WeekdayNumber(wd time.Weekday) int { return int(wd) + 1 }

// GoWeekday is the inverse of WeekdayNumber.
func GoWeekday(n int) time.Weekday { return time.Weekday(n - 1) }

func normalizeWeekdays(days []int) []int {
	if len(days) == 0 {
		return nil
	}
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}
