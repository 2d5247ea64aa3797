package alarm

import (
	"fmt"

	"github.com/google/uuid"
)

// Payload is the structured content a delivered notification carries. The
// country name and flag pass through verbatim for presentation; scheduling
// never reads them.
type Payload struct {
	AlarmID  string `json:"alarmId"`
	Name     string `json:"alarmName"`
	Hour     int    `json:"alarmHour"`
	Minute   int    `json:"alarmMinute"`
	Timezone string `json:"timezoneIdentifier"`
	Country  string `json:"countryName"`
	Flag     string `json:"countryFlag"`
}

// Payload builds the notification content for the alarm.
func (a Alarm) Payload() Payload {
	return Payload{
		AlarmID:  a.ID.String(),
		Name:     a.Name,
		Hour:     a.Hour,
		Minute:   a.Minute,
		Timezone: a.Timezone,
		Country:  a.Country,
		Flag:     a.Flag,
	}
}

// FromPayload reconstructs an alarm record from delivered notification
// content. Used by the cold-start recovery sweep; repeat rules and enabled
// state are not part of the payload and come back zero.
func FromPayload(p Payload) (Alarm, error) {
	id, err := uuid.Parse(p.AlarmID)
	if err != nil {
		return Alarm{}, fmt.Errorf("alarm - FromPayload - uuid.Parse: %w", err)
	}
	return Alarm{
		ID:       id,
		Name:     p.Name,
		Hour:     p.Hour,
		Minute:   p.Minute,
		Timezone: p.Timezone,
		Country:  p.Country,
		Flag:     p.Flag,
		Enabled:  true,
	}, nil
}
