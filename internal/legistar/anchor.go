package legistar

import "time"

// PreviousWeekMonday returns local midnight of the Monday of the calendar
// week before the one containing now. Sunday belongs to the week that
// started six days earlier.
func PreviousWeekMonday(now time.Time) time.Time {
	sinceMonday := int(now.Weekday()) - 1
	if now.Weekday() == time.Sunday {
		sinceMonday = 6
	}
	y, m, d := now.Date()
	return time.Date(y, m, d-sinceMonday-7, 0, 0, 0, 0, now.Location())
}
