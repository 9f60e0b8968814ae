// Package domain defines the engagement-tracking business logic for EduAccess.
package domain

import "time"

// DayKey identifies one calendar day in UTC, formatted as 2006-01-02.
type DayKey string

// DayOf derives the calendar-day bucket from an event timestamp. Bucketing
// always uses the event's own timestamp, never server receipt time, so a
// delayed delivery still lands in the day the activity happened.
func DayOf(ts time.Time) DayKey {
	return DayKey(ts.UTC().Format("2006-01-02"))
}

// Time returns the midnight UTC instant of the day, for ordering and display.
func (d DayKey) Time() time.Time {
	t, _ := time.Parse("2006-01-02", string(d))
	return t
}

// ActivityRecord is the per-user-per-day engagement aggregate. Records are
// merge-only: TotalActiveTime and each PagesVisited counter never decrease,
// and LastUpdated only advances.
type ActivityRecord struct {
	UserID          string
	Date            DayKey
	TotalActiveTime float64
	PagesVisited    map[string]int
	LastUpdated     time.Time
}

// Breakdown exposes the page-visit distribution for drill-down views. An
// absent map is an empty distribution, not an error.
func (r ActivityRecord) Breakdown() map[string]int {
	if r.PagesVisited == nil {
		return map[string]int{}
	}
	return r.PagesVisited
}
