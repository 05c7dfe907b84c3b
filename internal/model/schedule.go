// internal/model/schedule.go
package model

import (
	"fmt"
	"time"
)

type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekdays Frequency = "weekdays"
	FrequencyWeekends Frequency = "weekends"
)

func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekdays || f == FrequencyWeekends
}

// AdmitsDay reports whether the frequency allows a run on the given weekday.
func (f Frequency) AdmitsDay(day time.Weekday) bool {
	weekend := day == time.Saturday || day == time.Sunday
	switch f {
	case FrequencyDaily:
		return true
	case FrequencyWeekdays:
		return !weekend
	case FrequencyWeekends:
		return weekend
	default:
		return false
	}
}

type Schedule struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Time      string    `db:"time" json:"time"`
	Frequency Frequency `db:"frequency" json:"frequency"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ParseClock validates a 24h "HH:MM" value and returns it zero padded.
func ParseClock(value string) (string, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return "", fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	return t.Format("15:04"), nil
}

// Admits reports whether now, already converted to the schedule's location,
// falls on this schedule's minute and an allowed weekday.
func (s Schedule) Admits(now time.Time) bool {
	clock, err := ParseClock(s.Time)
	if err != nil {
		return false
	}
	return clock == now.Format("15:04") && s.Frequency.AdmitsDay(now.Weekday())
}
