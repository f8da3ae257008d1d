package match

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/cs2-cal/internal/calendar"
)

const (
	// MatchDuration is the fixed length assumed for an upcoming match.
	MatchDuration = 2 * time.Hour
	// MarkerDuration is the window of a result marker and of placeholders.
	MarkerDuration = time.Minute
	// MaxErrorLength bounds the error text carried by a failure placeholder.
	MaxErrorLength = 140

	DefaultMatchTitle  = "CS2 match"
	DefaultResultTitle = "CS2 result"
	SourceLabel        = "Source: HLTV"
	ResultLabel        = "Recent result"
	ApproximateNote    = "Match time unknown; placed one hour before the calendar update."
	InfoSummary        = "[INFO] No matches found right now"
	InfoDescription    = "Calendar active. Updates automatically."
	FailureSummary     = "[ERRO] Calendar update failed"

	titleSeparator = " — "
)

// Builder converts records into calendar events.
type Builder struct {
	// Location is the zone events are expressed in.
	Location *time.Location
	// Horizon excludes upcoming matches starting later than now+Horizon.
	// Zero or negative disables the filter.
	Horizon time.Duration
	// MaxResults caps the number of most recent results kept per call to
	// Build. Zero or negative keeps all of them.
	MaxResults int
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// NewUID generates event identifiers. Defaults to calendar.NewUID.
	NewUID func() string
}

// Build converts records of the given role into events. Upcoming records
// without a time are skipped.
func (b *Builder) Build(records []Record, role Role) []calendar.Event {
	switch role {
	case RoleUpcoming:
		return b.buildUpcoming(records)
	case RoleResults:
		return b.buildResults(records)
	default:
		return nil
	}
}

func (b *Builder) buildUpcoming(records []Record) []calendar.Event {
	events := make([]calendar.Event, 0, len(records))
	cutoff := b.now().Add(b.Horizon)

	for _, rec := range records {
		if rec.Time == nil {
			continue
		}
		start := rec.Time.In(b.location())
		if b.Horizon > 0 && start.After(cutoff) {
			continue
		}

		summary := joinTeams(rec.Teams, DefaultMatchTitle)
		if rec.Tournament != "" {
			summary += titleSeparator + rec.Tournament
		}

		events = append(events, calendar.Event{
			UID:         b.newUID(),
			Start:       start,
			End:         start.Add(MatchDuration),
			Summary:     summary,
			Description: describe(SourceLabel, rec.SourceURL),
		})
	}
	return events
}

func (b *Builder) buildResults(records []Record) []calendar.Event {
	dated := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Time == nil {
			continue
		}
		dated = append(dated, rec)
	}

	// Most recent first; listing order breaks ties.
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Time.After(*dated[j].Time)
	})
	if b.MaxResults > 0 && len(dated) > b.MaxResults {
		dated = dated[:b.MaxResults]
	}

	events := make([]calendar.Event, 0, len(dated))
	for _, rec := range dated {
		summary := "[Final] " + joinTeams(rec.Teams, DefaultResultTitle)
		if rec.Score != "" {
			summary += " " + rec.Score
		}
		if rec.Tournament != "" {
			summary += titleSeparator + rec.Tournament
		}

		description := describe(ResultLabel, rec.SourceURL)
		if rec.Approximate {
			description += "\n" + ApproximateNote
		}

		start := rec.Time.In(b.location())
		events = append(events, calendar.Event{
			UID:         b.newUID(),
			Start:       start,
			End:         start.Add(MarkerDuration),
			Summary:     summary,
			Description: description,
		})
	}
	return events
}

// Info returns the placeholder used when no match was found for any team.
func (b *Builder) Info() calendar.Event {
	start := b.now().In(b.location()).Add(time.Minute)
	return calendar.Event{
		UID:         b.newUID(),
		Start:       start,
		End:         start.Add(MarkerDuration),
		Summary:     InfoSummary,
		Description: InfoDescription,
	}
}

// Failure returns the placeholder that replaces every event when a run
// aborts. The error text is truncated to MaxErrorLength characters.
func (b *Builder) Failure(err error) calendar.Event {
	start := b.now().In(b.location()).Add(time.Minute)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return calendar.Event{
		UID:         b.newUID(),
		Start:       start,
		End:         start.Add(MarkerDuration),
		Summary:     FailureSummary,
		Description: Truncate(msg, MaxErrorLength),
	}
}

// Truncate shortens s to at most n characters.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) location() *time.Location {
	if b.Location != nil {
		return b.Location
	}
	return time.Local
}

func (b *Builder) newUID() string {
	if b.NewUID != nil {
		return b.NewUID()
	}
	return calendar.NewUID()
}

func joinTeams(teams []string, fallback string) string {
	if len(teams) > 2 {
		teams = teams[:2]
	}
	if len(teams) == 0 {
		return fallback
	}
	return strings.Join(teams, " vs ")
}

func describe(label, sourceURL string) string {
	if sourceURL == "" {
		return label
	}
	return fmt.Sprintf("%s\n%s", label, sourceURL)
}
