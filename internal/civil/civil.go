// Package civil converts between absolute instants and wall-clock
// (calendar date + clock time) representations in a named timezone.
package civil

import (
	"fmt"
	"time"
)

// Components is a wall-clock moment as humans read it in some timezone,
// independent of UTC offset.
type Components struct {
	Year    int          `json:"year"`
	Month   time.Month   `json:"month"`
	Day     int          `json:"day"`
	Hour    int          `json:"hour"`
	Minute  int          `json:"minute"`
	Second  int          `json:"second"`
	Weekday time.Weekday `json:"weekday"`
}

// At breaks an absolute instant into civil components using the DST rules
// the zone has in effect at that instant.
func At(t time.Time, loc *time.Location) Components {
	lt := t.In(loc)
	return Components{
		Year:    lt.Year(),
		Month:   lt.Month(),
		Day:     lt.Day(),
		Hour:    lt.Hour(),
		Minute:  lt.Minute(),
		Second:  lt.Second(),
		Weekday: lt.Weekday(),
	}
}

// Instant resolves civil components to an absolute instant in the given zone.
//
// A time skipped by a spring-forward transition normalizes forward, and a
// time repeated by a fall-back transition resolves to the platform default
// (the first occurrence). Both follow time.Date and are accepted behavior,
// not special-cased here.
func Instant(c Components, loc *time.Location) time.Time {
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, 0, loc)
}

// WithClock returns a copy of c with the clock time replaced and seconds
// zeroed, keeping the calendar date.
func (c Components) WithClock(hour, minute int) Components {
	c.Hour = hour
	c.Minute = minute
	c.Second = 0
	return c
}

// LoadZone resolves an IANA timezone name. Unknown names come back as a
// lookup failure for the caller to handle; nothing panics.
func LoadZone(id string) (*time.Location, error) {
	if id == "" {
		return nil, fmt.Errorf("civil - LoadZone: empty timezone identifier")
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("civil - LoadZone - time.LoadLocation: %w", err)
	}
	return loc, nil
}
