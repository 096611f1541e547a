package services

import (
	"time"

	"waste-route-service/internal/domain"
)

// IsDue applies the weekly recurrence rule for a collection point.
//
// Seven or more pickups a week means every day, six means Monday to
// Saturday, three to five means Monday, Wednesday and Friday. Anything
// lower is never scheduled by the daily run.
func IsDue(weeklyFrequency float64, day time.Weekday) bool {
	switch {
	case weeklyFrequency >= 7:
		return true
	case weeklyFrequency >= 6:
		return day >= time.Monday && day <= time.Saturday
	case weeklyFrequency >= 3:
		return day == time.Monday || day == time.Wednesday || day == time.Friday
	default:
		return false
	}
}

// FilterDueToday splits locations into those due on day and those that are not.
// Input order is preserved in both slices.
func FilterDueToday(locations []domain.Location, day time.Weekday) (due, notDue []domain.Location) {
	due = make([]domain.Location, 0, len(locations))
	for _, loc := range locations {
		if IsDue(loc.WeeklyFrequency, day) {
			due = append(due, loc)
			continue
		}
		notDue = append(notDue, loc)
	}
	return due, notDue
}
