// Package extract pulls match records out of HLTV listing pages.
//
// HLTV markup is not semantic and changes often, so every field is read
// through an ordered chain of independent strategies. The first strategy that
// produces a value wins; when a chain is exhausted the field is left empty and
// the event builder substitutes its default text. Only an upcoming match with
// no recoverable time is dropped.
package extract

import (
	"io"
	"net/url"
	"time"

	"github.com/pfrederiksen/cs2-cal/internal/dom"
	"github.com/pfrederiksen/cs2-cal/internal/match"
)

const (
	// MatchLinkSelector selects candidate match elements.
	MatchLinkSelector = `a[href^="/matches/"]`

	UpcomingAncestorDepth = 4
	ResultsAncestorDepth  = 2

	// ApproximateOffset places a result without a timestamp this long before
	// the extraction time.
	ApproximateOffset = time.Hour

	tournamentSelectors = ".matchEventName, .event-name"
	scoreSelectors      = ".result-score, .score"
)

// chains holds the strategy chains used for one listing role.
type chains struct {
	timestamp  []Strategy[int64]
	names      []Strategy[[]string]
	tournament []Strategy[string]
	score      []Strategy[string]
}

// Extractor turns listing documents into match records. Use New; the zero
// value has no strategies.
type Extractor struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	upcoming chains
	results  chains
}

// New returns an Extractor with the default strategy chains.
func New() *Extractor {
	names := []Strategy[[]string]{
		namesByMarker(".matchTeamName", 2),
		namesByMarker(".matchTeam", 2),
		namesByMarker(".team", 2),
		namesFromText,
		// Markers nest (.matchTeamName inside .matchTeam), so each is tried
		// alone to keep one announced team from being counted twice.
		namesByMarker(".matchTeamName", 1),
		namesByMarker(".matchTeam", 1),
		namesByMarker(".team", 1),
	}
	tournament := []Strategy[string]{
		textByMarker(tournamentSelectors),
		tournamentByKeyword,
	}

	return &Extractor{
		upcoming: chains{
			timestamp:  []Strategy[int64]{timestampWithin, timestampAbove(UpcomingAncestorDepth)},
			names:      names,
			tournament: tournament,
		},
		results: chains{
			timestamp:  []Strategy[int64]{timestampWithin, timestampAbove(ResultsAncestorDepth)},
			names:      names,
			tournament: tournament,
			score:      []Strategy[string]{scoreByMarker(scoreSelectors), scoreFromText},
		},
	}
}

// ExtractHTML parses r and extracts the records it contains.
func (x *Extractor) ExtractHTML(r io.Reader, role match.Role, pageURL string) ([]match.Record, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, err
	}
	return x.Extract(doc, role, pageURL), nil
}

// Extract returns one record per distinct match link in doc, in document
// order. pageURL is used to make the links absolute.
func (x *Extractor) Extract(doc dom.Node, role match.Role, pageURL string) []match.Record {
	c := x.chainsFor(role)
	now := x.now()

	records := make([]match.Record, 0)
	seen := make(map[string]bool)

	for _, el := range doc.FindAll(MatchLinkSelector) {
		href, _ := el.Attr("href")
		if seen[href] {
			continue
		}

		rec := match.Record{SourceURL: resolveURL(pageURL, href)}

		if ms, ok := firstOf(el, c.timestamp); ok {
			t := time.UnixMilli(ms)
			rec.Time = &t
		} else if role == match.RoleResults {
			t := now.Add(-ApproximateOffset)
			rec.Time = &t
			rec.Approximate = true
		} else {
			// An upcoming match without a time can't be scheduled.
			continue
		}
		seen[href] = true

		if names, ok := firstOf(el, c.names); ok {
			if len(names) > 2 {
				names = names[:2]
			}
			rec.Teams = names
		}
		if name, ok := firstOf(el, c.tournament); ok {
			rec.Tournament = name
		}
		if len(c.score) > 0 {
			if score, ok := firstOf(el, c.score); ok {
				rec.Score = score
			}
		}

		records = append(records, rec)
	}

	return records
}

func (x *Extractor) chainsFor(role match.Role) chains {
	if role == match.RoleResults {
		return x.results
	}
	return x.upcoming
}

func (x *Extractor) now() time.Time {
	if x.Now != nil {
		return x.Now()
	}
	return time.Now()
}

// resolveURL makes href absolute relative to pageURL. It returns href
// unchanged when either cannot be parsed.
func resolveURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
