package validator

import (
	"time"

	"deskbook/pkg/model"
)

// ValidateWindow applies the calendar rules to a proposed [begin, end] window.
// Rules run in a fixed order and the first failure is returned; nil means the
// window is acceptable. It reads no clock and no store.
func ValidateWindow(begin, end, now time.Time, hours model.BusinessHours) *model.Rejection {
	if !begin.Before(end) {
		return model.Reject(model.ReasonInvalidWindow)
	}

	if !hours.Contains(model.ClockOf(begin)) || !hours.Contains(model.ClockOf(end)) {
		return model.Reject(model.ReasonOutsideBusinessHours)
	}

	if !begin.After(now) || !end.After(now) {
		return model.Reject(model.ReasonInThePast)
	}

	// end is projected into begin's zone so both dates are read on one calendar.
	if model.DayOf(begin) != model.DayOf(end.In(begin.Location())) {
		return model.Reject(model.ReasonSpansMultipleDays)
	}

	return nil
}
