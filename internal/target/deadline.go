package target

import "time"

// DeadlineWarningDays is how far ahead of a deadline the dashboard starts warning.
const DeadlineWarningDays = 7

// DaysRemaining counts calendar days from today until deadline, ignoring the
// time of day on both. The deadline's date is read in its own location, today's
// in today's, so a date-only deadline stored as UTC midnight keeps its date.
func DaysRemaining(deadline, today time.Time) int {
	dy, dm, dd := deadline.Date()
	ty, tm, td := today.Date()
	d := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(d.Sub(t).Hours() / 24)
}

// ShouldWarn reports whether the deadline falls within the warning horizon.
// A deadline that has already passed does not warn.
func ShouldWarn(deadline *time.Time, today time.Time) bool {
	if deadline == nil {
		return false
	}
	days := DaysRemaining(*deadline, today)
	return days >= 0 && days <= DeadlineWarningDays
}
