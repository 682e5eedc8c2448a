// internal/engine/prediction/render.go
package prediction

import (
	"fmt"
	"time"
)

// NoLodgementsMessage is rendered when no allocation date can be projected.
const NoLodgementsMessage = "No available lodgements."

// AvailableNowMessage is rendered when a unit is free today.
const AvailableNowMessage = "Available now."

// RenderRelative converts a predicted date into a human relative string,
// dropping leading zero components: "in 2 years, 3 months and 4 days",
// "in 3 months and 4 days", "in 4 days". A date not after now renders as
// available-now, a nil date as the no-lodgements message.
func RenderRelative(target *time.Time, now time.Time) string {
	if target == nil {
		return NoLodgementsMessage
	}

	years, months, days := calendarDelta(now, *target)

	switch {
	case years > 0:
		return fmt.Sprintf("in %d years, %d months and %d days", years, months, days)
	case months > 0:
		return fmt.Sprintf("in %d months and %d days", months, days)
	case days > 0:
		return fmt.Sprintf("in %d days", days)
	default:
		return AvailableNowMessage
	}
}

// calendarDelta returns the calendar-aware difference from now to target as
// whole years, months and days. A target in the past collapses to zero.
func calendarDelta(now, target time.Time) (years, months, days int) {
	if !target.After(now) {
		return 0, 0, 0
	}

	years = target.Year() - now.Year()
	months = int(target.Month()) - int(now.Month())
	days = target.Day() - now.Day()

	if days < 0 {
		months--
		// Borrow the length of the month preceding the target.
		prevMonth := target.AddDate(0, 0, -target.Day())
		days += prevMonth.Day()
	}
	if months < 0 {
		years--
		months += 12
	}
	return years, months, days
}
