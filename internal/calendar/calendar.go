// Package calendar holds the calendar model and its RFC 5545 encoding.
package calendar

import (
	"sort"
	"time"
)

// Event is a single calendar entry.
type Event struct {
	UID         string
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
}

// Calendar is the complete artifact produced by one run.
type Calendar struct {
	Title       string
	Description string
	GeneratedAt time.Time
	// Location is the zone used for DTSTART/DTEND. Nil means UTC.
	Location *time.Location
	Events   []Event
}

// SortEvents orders events by start time. Events starting at the same
// instant are ordered by summary so the output is deterministic.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].Summary < events[j].Summary
	})
}
