package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ProductID       = "-//cs2-cal//HLTV//EN"
	UIDSuffix       = "@cs2-cal"
	ReminderText    = "Match reminder"
	ReminderBefore  = 15 * time.Minute
	MaxLineLength   = 74
	localTimeFormat = "20060102T150405"
	utcTimeFormat   = "20060102T150405Z"
)

// Encoder serializes a Calendar as iCalendar text.
type Encoder struct {
	ProductID      string
	ReminderText   string
	ReminderBefore time.Duration
	// NewUID generates identifiers for events that don't carry one.
	NewUID func() string
}

// NewEncoder returns an Encoder with the default product id and reminder.
func NewEncoder() *Encoder {
	return &Encoder{
		ProductID:      ProductID,
		ReminderText:   ReminderText,
		ReminderBefore: ReminderBefore,
		NewUID:         NewUID,
	}
}

// NewUID returns a random event identifier.
func NewUID() string {
	return uuid.NewString() + UIDSuffix
}

// Encode renders cal. Every content line is folded and terminated by CRLF.
func (e *Encoder) Encode(cal *Calendar) string {
	loc := cal.Location
	if loc == nil {
		loc = time.UTC
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"PRODID:" + e.ProductID,
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	if cal.Title != "" {
		lines = append(lines, "X-WR-CALNAME:"+EscapeText(cal.Title))
	}
	if cal.Description != "" {
		lines = append(lines, "X-WR-CALDESC:"+EscapeText(cal.Description))
	}
	lines = append(lines, "X-WR-TIMEZONE:"+loc.String())

	stamp := cal.GeneratedAt.UTC().Format(utcTimeFormat)
	seen := make(map[string]bool, len(cal.Events))

	for _, evt := range cal.Events {
		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+e.uniqueUID(evt.UID, seen),
			"DTSTAMP:"+stamp,
			fmt.Sprintf("DTSTART;TZID=%s:%s", loc, evt.Start.In(loc).Format(localTimeFormat)),
			fmt.Sprintf("DTEND;TZID=%s:%s", loc, evt.End.In(loc).Format(localTimeFormat)),
		)
		if evt.Summary != "" {
			lines = append(lines, "SUMMARY:"+EscapeText(evt.Summary))
		}
		if evt.Description != "" {
			lines = append(lines, "DESCRIPTION:"+EscapeText(evt.Description))
		}
		lines = append(lines,
			"BEGIN:VALARM",
			fmt.Sprintf("TRIGGER:-PT%dM", int(e.ReminderBefore/time.Minute)),
			"ACTION:DISPLAY",
			"DESCRIPTION:"+EscapeText(e.ReminderText),
			"END:VALARM",
			"END:VEVENT",
		)
	}
	lines = append(lines, "END:VCALENDAR")

	var ics strings.Builder
	for _, line := range lines {
		ics.WriteString(FoldLine(line))
		ics.WriteString("\r\n")
	}
	return ics.String()
}

// uniqueUID fills in a missing identifier and disambiguates repeats with a
// numeric suffix.
func (e *Encoder) uniqueUID(uid string, seen map[string]bool) string {
	if uid == "" {
		newUID := e.NewUID
		if newUID == nil {
			newUID = NewUID
		}
		uid = newUID()
	}
	base := uid
	for n := 2; seen[uid]; n++ {
		uid = fmt.Sprintf("%s-%d", base, n)
	}
	seen[uid] = true
	return uid
}

// FoldLine splits a content line longer than MaxLineLength characters into
// segments of at most MaxLineLength characters. Continuation segments start
// with a single space, which counts toward their length.
func FoldLine(line string) string {
	runes := []rune(line)
	if len(runes) <= MaxLineLength {
		return line
	}

	var b strings.Builder
	b.WriteString(string(runes[:MaxLineLength]))
	rest := runes[MaxLineLength:]
	for len(rest) > 0 {
		n := min(MaxLineLength-1, len(rest))
		b.WriteString("\r\n ")
		b.WriteString(string(rest[:n]))
		rest = rest[n:]
	}
	return b.String()
}

// EscapeText escapes special characters for iCalendar TEXT values.
// The backslash must be replaced first.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// UnescapeText reverses EscapeText.
func UnescapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch next := s[i+1]; next {
		case '\\', ';', ',':
			b.WriteByte(next)
			i++
		case 'n', 'N':
			b.WriteByte('\n')
			i++
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
