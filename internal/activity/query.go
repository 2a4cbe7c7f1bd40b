package activity

import (
	"fmt"
	"strings"
	"time"

	"swapPilot/internal/model"
)

// Query filters entries by type, optional pool address, and a day window.
type Query struct {
	Type        string
	PoolAddress string
	DayStart    time.Time
	DayEnd      time.Time
}

// DayWindow parses a YYYY-MM-DD date in the given location and returns the
// half-open window [date 00:00, date+1 00:00).
func DayWindow(date string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return day, day.AddDate(0, 0, 1), nil
}

// CountMatching returns how many entries satisfy the query. Type matches
// exactly, pool address case-insensitively, timestamps within the window.
func CountMatching(entries []model.ActivityEntry, q Query) int {
	count := 0
	for _, entry := range entries {
		if entry.Type != q.Type {
			continue
		}
		if q.PoolAddress != "" && !strings.EqualFold(entry.PoolAddress, q.PoolAddress) {
			continue
		}
		ts := entry.Timestamp.In(q.DayStart.Location())
		if ts.Before(q.DayStart) || !ts.Before(q.DayEnd) {
			continue
		}
		count++
	}
	return count
}
