package trip

import (
	"sort"
	"strconv"
	"strings"

	"trip-planner/internal/domain"
)

// timeKey maps an "HH:MM" string to minutes since midnight. Anything
// unparseable (including the empty string) sorts after every real time.
func timeKey(t string) int {
	parts := strings.Split(t, ":")
	if len(parts) != 2 {
		return 24*60 + 1
	}
	hh, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	mm, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 24*60 + 1
	}
	return hh*60 + mm
}

// sortDayEvents keeps a day's events ordered by (time, lowercased title).
func sortDayEvents(day *domain.Day) {
	sort.SliceStable(day.Events, func(i, j int) bool {
		ki, kj := timeKey(day.Events[i].Time), timeKey(day.Events[j].Time)
		if ki != kj {
			return ki < kj
		}
		return strings.ToLower(day.Events[i].Title) < strings.ToLower(day.Events[j].Title)
	})
}
