package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/civil"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/emersion/go-ical"
)

// Index is a 1=Sun..7=Sat weekday number.
var icalByDay = [...]string{1: "SU", 2: "MO", 3: "TU", 4: "WE", 5: "TH", 6: "FR", 7: "SA"}

// exportICS renders the alarm list as an iCalendar document, one VEVENT per
// alarm with its clock time anchored in the target timezone.
func (h *alarmRoutes) exportICS(w http.ResponseWriter, r *http.Request) {
	alarms, err := h.alarms.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Raimguhinov//alarm-go//EN")

	now := time.Now()
	for _, a := range alarms {
		ev, err := alarmEvent(a, now)
		if err != nil {
			h.l.Warn("app - exportICS: skipping alarm",
				"alarm", a.ID.String(), logger.Err(err))
			continue
		}
		cal.Children = append(cal.Children, ev.Component)
	}

	w.Header().Set("Content-Type", ical.MIMEType)
	w.Header().Set("Content-Disposition", `attachment; filename="alarms.ics"`)
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		h.l.Error("app - exportICS - ical.Encode", logger.Err(err))
	}
}

func alarmEvent(a alarm.Alarm, now time.Time) (*ical.Event, error) {
	target, err := civil.LoadZone(a.Timezone)
	if err != nil {
		return nil, err
	}

	c := civil.At(now, target).WithClock(a.Hour, a.Minute)
	if a.Date != nil {
		c.Year, c.Month, c.Day = a.Date.Year(), a.Date.Month(), a.Date.Day()
	}
	start := civil.Instant(c, target)
	if a.Date == nil && !a.Repeating() && !start.After(now) {
		c.Day++
		start = civil.Instant(c, target)
	}

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, a.ID.String())
	ev.Props.SetDateTime(ical.PropDateTimeStamp, now)
	ev.Props.SetText(ical.PropSummary, a.Name)
	if a.Country != "" {
		ev.Props.SetText(ical.PropLocation, a.Country)
	}
	ev.Props.SetDateTime(ical.PropDateTimeStart, start)

	if a.Repeating() {
		days := make([]string, 0, len(a.Weekdays))
		for _, wd := range a.Weekdays {
			days = append(days, icalByDay[wd])
		}
		rule := ical.NewProp(ical.PropRecurrenceRule)
		rule.Value = "FREQ=WEEKLY;BYDAY=" + strings.Join(days, ",")
		ev.Props.Set(rule)
	}
	return ev, nil
}
