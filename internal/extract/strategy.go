package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pfrederiksen/cs2-cal/internal/dom"
)

// Strategy extracts one field from a candidate element. It reports false
// when it cannot produce a value, so the next strategy in the chain is tried.
type Strategy[T any] func(dom.Node) (T, bool)

// firstOf runs chain in order and returns the first value produced.
func firstOf[T any](n dom.Node, chain []Strategy[T]) (T, bool) {
	for _, s := range chain {
		if v, ok := s(n); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

const timestampAttr = "data-unix"

var (
	vsPattern      = regexp.MustCompile(`(?i)^(.+?)\s+vs\.?\s+(.+?)(?:\s+[-–—|:]\s+(.*))?$`)
	scorePattern   = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	keywordPattern = regexp.MustCompile(`(?i)\b(BLAST|ESL|IEM|CCT|PGL|Cup|Liga|League|Series|Major)\b`)
)

// unixMillis reads the timestamp attribute from n itself.
func unixMillis(n dom.Node) (int64, bool) {
	raw, ok := n.Attr(timestampAttr)
	if !ok {
		return 0, false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms <= 0 {
		return 0, false
	}
	return ms, true
}

// timestampWithin looks for the timestamp on n or any of its descendants.
func timestampWithin(n dom.Node) (int64, bool) {
	if ms, ok := unixMillis(n); ok {
		return ms, true
	}
	for _, el := range n.FindAll("[" + timestampAttr + "]") {
		if ms, ok := unixMillis(el); ok {
			return ms, true
		}
	}
	return 0, false
}

// timestampAbove reads the timestamp from the closest ancestor carrying it,
// looking at most depth levels up.
func timestampAbove(depth int) Strategy[int64] {
	return func(n dom.Node) (int64, bool) {
		a, ok := n.FindAncestor(func(a dom.Node) bool {
			_, ok := unixMillis(a)
			return ok
		}, depth)
		if !ok {
			return 0, false
		}
		return unixMillis(a)
	}
}

// markerTexts collects the text of every element matching selector.
func markerTexts(n dom.Node, selector string) []string {
	texts := make([]string, 0, 2)
	for _, el := range n.FindAll(selector) {
		if text := dom.Text(el); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// namesByMarker succeeds when selector yields at least atLeast names.
func namesByMarker(selector string, atLeast int) Strategy[[]string] {
	return func(n dom.Node) ([]string, bool) {
		names := markerTexts(n, selector)
		if len(names) < atLeast {
			return nil, false
		}
		return names, true
	}
}

// namesFromText matches "<A> vs <B>" against the flattened text.
func namesFromText(n dom.Node) ([]string, bool) {
	// A standalone "vs" fragment separates the names in most layouts.
	fragments := n.Fragments()
	for i := 1; i+1 < len(fragments); i++ {
		if f := strings.ToLower(strings.TrimSuffix(fragments[i], ".")); f == "vs" {
			return []string{fragments[i-1], fragments[i+1]}, true
		}
	}
	a, b, _, ok := splitVersus(dom.Text(n))
	if !ok {
		return nil, false
	}
	return []string{a, b}, true
}

// splitVersus splits "<A> vs <B> [- <tournament>]". Without a separator the
// second name stops at the first tournament keyword, which then starts the
// tournament.
func splitVersus(text string) (a, b, tournament string, ok bool) {
	m := vsPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", "", false
	}
	a, b, tournament = strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
	if tournament == "" {
		if loc := keywordPattern.FindStringIndex(b); loc != nil && loc[0] > 0 {
			b, tournament = strings.TrimSpace(b[:loc[0]]), b[loc[0]:]
		}
	}
	return a, b, tournament, true
}

// textByMarker returns the text of the first element matching selector.
func textByMarker(selector string) Strategy[string] {
	return func(n dom.Node) (string, bool) {
		el, ok := n.FindFirst(selector)
		if !ok {
			return "", false
		}
		text := dom.Text(el)
		return text, text != ""
	}
}

// tournamentByKeyword returns the first text fragment naming a known
// organizer or competition format. A fragment that also carries the team
// names contributes only its tournament part.
func tournamentByKeyword(n dom.Node) (string, bool) {
	for _, fragment := range n.Fragments() {
		if !keywordPattern.MatchString(fragment) {
			continue
		}
		if _, _, tournament, ok := splitVersus(fragment); ok {
			if tournament != "" {
				return tournament, true
			}
			continue
		}
		return fragment, true
	}
	return "", false
}

// scoreFrom normalizes "16 - 9" style text to "16-9".
func scoreFrom(text string) (string, bool) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1] + "-" + m[2], true
}

func scoreByMarker(selector string) Strategy[string] {
	return func(n dom.Node) (string, bool) {
		el, ok := n.FindFirst(selector)
		if !ok {
			return "", false
		}
		return scoreFrom(dom.Text(el))
	}
}

func scoreFromText(n dom.Node) (string, bool) {
	return scoreFrom(dom.Text(n))
}
