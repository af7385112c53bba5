package model

import (
	"fmt"
	"time"
)

// TimeOfDay is minutes since midnight, with no date component.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" (single-digit hours are accepted).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM: %w", s, err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

// ClockOf projects t onto its time of day in t's own location, discarding seconds.
func ClockOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

type BusinessHours struct {
	Opening TimeOfDay
	Closing TimeOfDay
}

// Contains reports whether t lies in [Opening, Closing], both ends inclusive.
func (h BusinessHours) Contains(t TimeOfDay) bool {
	return t >= h.Opening && t <= h.Closing
}

func ParseBusinessHours(opening, closing string) (BusinessHours, error) {
	open, err := ParseTimeOfDay(opening)
	if err != nil {
		return BusinessHours{}, err
	}
	closeAt, err := ParseTimeOfDay(closing)
	if err != nil {
		return BusinessHours{}, err
	}
	if closeAt < open {
		return BusinessHours{}, fmt.Errorf("closing time %s is before opening time %s", closeAt, open)
	}
	return BusinessHours{Opening: open, Closing: closeAt}, nil
}
