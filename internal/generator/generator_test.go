package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/cs2-cal/internal/calendar"
	"github.com/pfrederiksen/cs2-cal/internal/config"
	"github.com/pfrederiksen/cs2-cal/internal/metrics"
	"github.com/pfrederiksen/cs2-cal/internal/scraper"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

const upcomingPage = `<html><body>
<div class="upcomingMatch">
  <a href="/matches/2380001/furia-vs-mibr-iem-rio">
    <div class="matchTime" data-unix="1793556000000">15:00</div>
    <div class="matchTeamName">FURIA</div>
    <div class="matchTeamName">MIBR</div>
    <div class="matchEventName">IEM Rio</div>
  </a>
</div>
</body></html>`

const resultsPage = `<html><body>
<div class="result-con" data-unix="1791651600000">
  <a href="/matches/2370001/furia-vs-pain">
    <div class="team">FURIA</div>
    <span class="result-score">16 - 9</span>
    <div class="team">paiN</div>
    <span class="event-name">CCT South America</span>
  </a>
</div>
</body></html>`

type site struct {
	teams    map[string]string // search query → team id
	upcoming map[string]string // team id → page
	results  map[string]string
	fail     bool
	requests int32
}

func (s *site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requests, 1)
	if s.fail {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	switch r.URL.Path {
	case "/search":
		if id, ok := s.teams[r.URL.Query().Get("query")]; ok {
			fmt.Fprintf(w, `<a href="/team/%s/x">x</a>`, id)
		}
	case "/matches":
		fmt.Fprint(w, s.upcoming[r.URL.Query().Get("team")])
	case "/results":
		fmt.Fprint(w, s.results[r.URL.Query().Get("team")])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestGenerator(t *testing.T, baseURL string, teams ...config.Team) *Generator {
	t.Helper()

	settings := config.Defaults()
	settings.Teams = teams
	settings.BaseURL = baseURL
	settings.OutputPath = filepath.Join(t.TempDir(), "cs2.ics")

	g := New(settings, nil, metrics.New())
	client := g.Fetcher.(*scraper.Client)
	client.Backoff = time.Millisecond
	g.Now = func() time.Time { return fixedNow }

	var n int32
	g.Encoder.NewUID = func() string {
		return fmt.Sprintf("uid-%d@cs2-cal", atomic.AddInt32(&n, 1))
	}
	return g
}

func readOutput(t *testing.T, g *Generator) string {
	t.Helper()
	data, err := os.ReadFile(g.Settings.OutputPath)
	require.NoError(t, err)
	return string(data)
}

func summaries(ics string) []string {
	var out []string
	for _, line := range strings.Split(ics, "\r\n") {
		if strings.HasPrefix(line, "SUMMARY:") {
			out = append(out, strings.TrimPrefix(line, "SUMMARY:"))
		}
	}
	return out
}

func TestRun_Scenario(t *testing.T) {
	s := &site{
		teams:    map[string]string{"FURIA": "8297"},
		upcoming: map[string]string{"8297": upcomingPage},
		results:  map[string]string{"8297": resultsPage},
	}
	server := httptest.NewServer(s)
	defer server.Close()

	g := newTestGenerator(t, server.URL, config.Team{Name: "FURIA"})
	res := g.Run(context.Background())

	assert.False(t, res.Degraded)
	assert.Equal(t, PlaceholderNone, res.Placeholder)
	assert.Equal(t, 2, res.Events)
	assert.Equal(t, 1, res.Upcoming)
	assert.Equal(t, 1, res.Results)
	require.Len(t, res.Teams, 1)
	assert.Equal(t, TeamReport{Team: "FURIA", ID: "8297", Upcoming: 1, Results: 1}, res.Teams[0])

	ics := readOutput(t, g)
	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(ics, "END:VCALENDAR\r\n"))
	assert.Equal(t, []string{
		"[Final] FURIA vs paiN 16-9 — CCT South America",
		"FURIA vs MIBR — IEM Rio",
	}, summaries(ics), "events sorted by start")

	assert.Contains(t, ics, "DTSTART;TZID=America/Sao_Paulo:20261101T150000\r\n")
	assert.Contains(t, ics, "DTEND;TZID=America/Sao_Paulo:20261101T170000\r\n")
	assert.Contains(t, ics, "DTSTAMP:20261015T120000Z\r\n")
	assert.Contains(t, ics, "X-WR-CALDESC:Updated: 2026-10-15 09:00 -03\r\n")
	assert.Contains(t, ics, "TRIGGER:-PT15M\r\n")

	err := testutil.GatherAndCompare(g.Metrics.Registry(), strings.NewReader(`
# HELP cs2cal_events Events written to the calendar by role
# TYPE cs2cal_events gauge
cs2cal_events{role="results"} 1
cs2cal_events{role="upcoming"} 1
# HELP cs2cal_degraded 1 when the last run wrote a failure placeholder
# TYPE cs2cal_degraded gauge
cs2cal_degraded 0
`), "cs2cal_events", "cs2cal_degraded")
	assert.NoError(t, err)
}

func TestRun_KnownIDSkipsSearch(t *testing.T) {
	s := &site{
		upcoming: map[string]string{"8297": upcomingPage},
		results:  map[string]string{},
	}
	server := httptest.NewServer(s)
	defer server.Close()

	g := newTestGenerator(t, server.URL, config.Team{Name: "FURIA", ID: "8297"})
	res := g.Run(context.Background())

	assert.Equal(t, 1, res.Upcoming)
	assert.Equal(t, int32(2), atomic.LoadInt32(&s.requests), "only the two listings are fetched")
}

func TestRun_AllFetchesFail(t *testing.T) {
	s := &site{fail: true}
	server := httptest.NewServer(s)
	defer server.Close()

	g := newTestGenerator(t, server.URL, config.Team{Name: "FURIA", ID: "8297"}, config.Team{Name: "MIBR"})
	res := g.Run(context.Background())

	assert.False(t, res.Degraded)
	assert.Equal(t, PlaceholderInfo, res.Placeholder)
	assert.Equal(t, 1, res.Events)
	require.Len(t, res.Teams, 2)
	assert.NotEmpty(t, res.Teams[0].Error)
	assert.Contains(t, res.Teams[1].Error, "resolving team")

	ics := readOutput(t, g)
	assert.Equal(t, []string{"[INFO] No matches found right now"}, summaries(ics))
	assert.Contains(t, ics, "DESCRIPTION:Calendar active. Updates automatically.\r\n")
}

func TestRun_NoTeams(t *testing.T) {
	g := newTestGenerator(t, "http://127.0.0.1:1")
	res := g.Run(context.Background())

	assert.Equal(t, PlaceholderInfo, res.Placeholder)
	assert.Empty(t, res.Teams)
	assert.Equal(t, []string{"[INFO] No matches found right now"}, summaries(readOutput(t, g)))
}

func TestRun_TeamNotFound(t *testing.T) {
	server := httptest.NewServer(&site{teams: map[string]string{}})
	defer server.Close()

	g := newTestGenerator(t, server.URL, config.Team{Name: "Nobody"})
	res := g.Run(context.Background())

	require.Len(t, res.Teams, 1)
	assert.Equal(t, "team not found", res.Teams[0].Error)
	assert.Equal(t, PlaceholderInfo, res.Placeholder)
}

type panicFetcher struct{}

func (panicFetcher) Fetch(ctx context.Context, url string) (string, error) {
	panic("boom")
}

func TestRun_PanicDegrades(t *testing.T) {
	g := newTestGenerator(t, "http://unused", config.Team{Name: "FURIA", ID: "8297"})
	g.Fetcher = panicFetcher{}

	var res Result
	require.NotPanics(t, func() { res = g.Run(context.Background()) })

	assert.True(t, res.Degraded)
	assert.Equal(t, PlaceholderError, res.Placeholder)
	assert.Equal(t, "panic: boom", res.Error)
	assert.Equal(t, 1, res.Events)

	ics := readOutput(t, g)
	assert.Equal(t, []string{"[ERRO] Calendar update failed"}, summaries(ics))
	assert.Contains(t, ics, "DESCRIPTION:panic: boom\r\n")
	assert.NoError(t, testutil.GatherAndCompare(g.Metrics.Registry(), strings.NewReader(`
# HELP cs2cal_degraded 1 when the last run wrote a failure placeholder
# TYPE cs2cal_degraded gauge
cs2cal_degraded 1
`), "cs2cal_degraded"))
}

func TestRun_WriteFailure(t *testing.T) {
	g := newTestGenerator(t, "http://unused")

	var calls []string
	g.Write = func(path, content string) error {
		calls = append(calls, content)
		if len(calls) == 1 {
			return errors.New(strings.Repeat("disk full ", 30))
		}
		return nil
	}

	res := g.Run(context.Background())

	assert.True(t, res.Degraded)
	require.Len(t, calls, 2, "failure placeholder written after the failed write")
	assert.Contains(t, calls[1], "SUMMARY:[ERRO] Calendar update failed")
	assert.LessOrEqual(t, len([]rune(res.Error)), 140)

	for _, line := range strings.Split(calls[1], "\r\n") {
		if rest, ok := strings.CutPrefix(line, "DESCRIPTION:"); ok && rest != "Match reminder" {
			assert.True(t, strings.HasPrefix(rest, "writing "), "got %q", rest)
		}
	}
}

func TestRun_PlaceholderWriteFails(t *testing.T) {
	g := newTestGenerator(t, "http://unused")
	g.Write = func(path, content string) error { return errors.New("read-only") }

	res := g.Run(context.Background())

	assert.True(t, res.Degraded)
	assert.Equal(t, 0, res.Events)
}

func TestRun_ConcurrentMatchesSequential(t *testing.T) {
	s := &site{
		upcoming: map[string]string{},
		results:  map[string]string{},
	}
	var teams []config.Team
	for i := 1; i <= 6; i++ {
		id := fmt.Sprint(i)
		teams = append(teams, config.Team{Name: "T" + id, ID: id})
		s.upcoming[id] = strings.NewReplacer(
			"FURIA", "T"+id,
			"1793556000000", fmt.Sprint(1793556000000+int64(i%3)*3600000),
		).Replace(upcomingPage)
	}
	server := httptest.NewServer(s)
	defer server.Close()

	run := func(concurrency int) []string {
		g := newTestGenerator(t, server.URL, teams...)
		g.Settings.Concurrency = concurrency
		res := g.Run(context.Background())
		require.False(t, res.Degraded)
		return summaries(readOutput(t, g))
	}

	sequential := run(1)
	assert.Len(t, sequential, 6)
	assert.Equal(t, sequential, run(4))
}

func TestBuilderUsesSettings(t *testing.T) {
	g := newTestGenerator(t, "http://unused")
	g.Settings.Horizon = 24 * time.Hour
	g.Settings.PastResults = 2

	b := g.builder()
	assert.Equal(t, 24*time.Hour, b.Horizon)
	assert.Equal(t, 2, b.MaxResults)
	assert.Equal(t, "America/Sao_Paulo", b.Location.String())
	assert.Equal(t, "uid-1@cs2-cal", b.NewUID())
}

func TestGuard(t *testing.T) {
	g := &Generator{}

	err := g.guard(func() error { panic(errors.New("bad")) })
	assert.EqualError(t, err, "panic: bad")

	want := errors.New("plain")
	assert.Same(t, want, g.guard(func() error { return want }))
}

func TestWriteCalendarUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ics")
	g := &Generator{Settings: config.Settings{OutputPath: path}, Now: func() time.Time { return fixedNow }}

	require.NoError(t, g.writeCalendar([]calendar.Event{{UID: "a", Start: fixedNow, End: fixedNow}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "X-WR-TIMEZONE:UTC\r\n")
}
