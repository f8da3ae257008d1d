// Package match turns raw match records scraped from HLTV listings into
// calendar events.
//
// A Record is the transient output of the extractor; the Builder applies the
// horizon and result-cap policies, computes event windows and synthesizes the
// [INFO] and [ERRO] placeholder events used when a run yields nothing or fails.
package match

import "time"

// Role identifies which listing a record came from.
type Role string

const (
	RoleUpcoming Role = "upcoming"
	RoleResults  Role = "results"
)

// Record is one candidate match extracted from a listing page.
type Record struct {
	// Time is the match start. Nil when no timestamp could be extracted.
	Time *time.Time
	// Approximate is set when Time is a placeholder ordering hint rather than
	// a real match time.
	Approximate bool
	Teams       []string
	Tournament  string
	Score       string
	SourceURL   string
}
