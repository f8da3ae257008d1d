package generator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/cs2-cal/internal/calendar"
	"github.com/pfrederiksen/cs2-cal/internal/config"
	"github.com/pfrederiksen/cs2-cal/internal/extract"
	"github.com/pfrederiksen/cs2-cal/internal/logger"
	"github.com/pfrederiksen/cs2-cal/internal/match"
	"github.com/pfrederiksen/cs2-cal/internal/metrics"
	"github.com/pfrederiksen/cs2-cal/internal/scraper"
	"github.com/pfrederiksen/cs2-cal/internal/storage"
)

const updatedLayout = "2006-01-02 15:04 MST"

// Placeholder kinds reported in Result.
const (
	PlaceholderNone  = ""
	PlaceholderInfo  = "info"
	PlaceholderError = "error"
)

// TeamReport describes what one team contributed to the calendar.
type TeamReport struct {
	Team     string `json:"team"`
	ID       string `json:"id,omitempty"`
	Upcoming int    `json:"upcoming"`
	Results  int    `json:"results"`
	Error    string `json:"error,omitempty"`
}

// Result summarizes a run.
type Result struct {
	OutputPath  string       `json:"output_path"`
	Events      int          `json:"events"`
	Upcoming    int          `json:"upcoming"`
	Results     int          `json:"results"`
	Placeholder string       `json:"placeholder,omitempty"`
	Degraded    bool         `json:"degraded"`
	Error       string       `json:"error,omitempty"`
	Teams       []TeamReport `json:"teams"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
}

// TeamResolver maps a team name to its HLTV id.
type TeamResolver interface {
	Resolve(ctx context.Context, name string) (string, bool, error)
}

// Generator holds the collaborators of a run. Use New for the defaults.
type Generator struct {
	Settings  config.Settings
	Fetcher   scraper.Fetcher
	Resolver  TeamResolver
	Extractor *extract.Extractor
	Encoder   *calendar.Encoder
	Metrics   *metrics.Run

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Write replaces the output file. Defaults to storage.WriteCalendar.
	Write func(path, content string) error
}

// New wires a Generator for settings using the HTTP client, extractor and
// encoder defaults. cache may be nil.
func New(settings config.Settings, cache scraper.TeamCache, m *metrics.Run) *Generator {
	client := scraper.New()
	client.Metrics = m

	return &Generator{
		Settings: settings,
		Fetcher:  client,
		Resolver: &scraper.Resolver{
			Fetcher: client,
			BaseURL: settings.BaseURL,
			Cache:   cache,
		},
		Extractor: extract.New(),
		Encoder:   calendar.NewEncoder(),
		Metrics:   m,
	}
}

// Run performs one update. It never panics and always attempts to leave a
// calendar file at the output path; Result.Degraded reports whether that file
// holds the failure placeholder instead of matches.
func (g *Generator) Run(ctx context.Context) Result {
	res := Result{
		OutputPath: g.Settings.OutputPath,
		StartedAt:  g.now(),
	}

	err := g.guard(func() error { return g.update(ctx, &res) })
	if err != nil {
		g.degrade(err, &res)
	}

	res.FinishedAt = g.now()
	g.Metrics.Finish(res.Degraded, res.StartedAt, res.FinishedAt)

	logger.Info("Calendar update finished", logger.Fields{
		"output":   res.OutputPath,
		"events":   res.Events,
		"degraded": res.Degraded,
		"duration": res.FinishedAt.Sub(res.StartedAt).String(),
	})
	return res
}

// guard runs fn, converting a panic into an error.
func (g *Generator) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic", logger.Fields{"stack": string(debug.Stack())}, fmt.Errorf("%v", r))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (g *Generator) update(ctx context.Context, res *Result) error {
	teams := g.Settings.Teams
	if len(teams) == 0 {
		logger.Warn("No teams configured", nil)
	}

	builder := g.builder()
	outcomes := make([]teamOutcome, len(teams))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(g.concurrency())
	for i, team := range teams {
		group.Go(func() error {
			return g.guard(func() error {
				outcomes[i] = g.processTeam(gctx, team, builder)
				return nil
			})
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	events := make([]calendar.Event, 0)
	res.Teams = make([]TeamReport, 0, len(outcomes))
	for _, o := range outcomes {
		events = append(events, o.upcoming...)
		events = append(events, o.results...)
		res.Upcoming += len(o.upcoming)
		res.Results += len(o.results)
		res.Teams = append(res.Teams, o.report())
	}

	if len(events) == 0 {
		events = append(events, builder.Info())
		res.Placeholder = PlaceholderInfo
	}
	calendar.SortEvents(events)

	if err := g.writeCalendar(events); err != nil {
		return err
	}

	res.Events = len(events)
	g.Metrics.SetEvents(string(match.RoleUpcoming), res.Upcoming)
	g.Metrics.SetEvents(string(match.RoleResults), res.Results)
	return nil
}

// degrade replaces the calendar with a single failure placeholder.
func (g *Generator) degrade(cause error, res *Result) {
	logger.Error("Calendar update failed, writing failure placeholder", logger.Fields{
		"output": res.OutputPath,
	}, cause)

	res.Degraded = true
	res.Placeholder = PlaceholderError
	res.Error = match.Truncate(cause.Error(), match.MaxErrorLength)
	res.Events = 0
	res.Upcoming = 0
	res.Results = 0

	err := g.guard(func() error {
		return g.writeCalendar([]calendar.Event{g.builder().Failure(cause)})
	})
	if err != nil {
		logger.Error("Writing failure placeholder failed", logger.Fields{"output": res.OutputPath}, err)
		return
	}
	res.Events = 1
}

func (g *Generator) writeCalendar(events []calendar.Event) error {
	now := g.now()
	loc := g.location()

	cal := &calendar.Calendar{
		Title:       g.Settings.CalendarName,
		Description: "Updated: " + now.In(loc).Format(updatedLayout),
		GeneratedAt: now,
		Location:    loc,
		Events:      events,
	}

	content := g.encoder().Encode(cal)
	if err := g.write(g.Settings.OutputPath, content); err != nil {
		return fmt.Errorf("writing %s: %w", g.Settings.OutputPath, err)
	}
	return nil
}

// teamOutcome is the contribution of one team.
type teamOutcome struct {
	team     config.Team
	upcoming []calendar.Event
	results  []calendar.Event
	errs     []error
}

func (o teamOutcome) report() TeamReport {
	r := TeamReport{
		Team:     o.team.Label(),
		ID:       o.team.ID,
		Upcoming: len(o.upcoming),
		Results:  len(o.results),
	}
	if err := errors.Join(o.errs...); err != nil {
		r.Error = strings.ReplaceAll(err.Error(), "\n", "; ")
	}
	return r
}

func (g *Generator) processTeam(ctx context.Context, team config.Team, builder *match.Builder) teamOutcome {
	out := teamOutcome{team: team}
	fields := logger.Fields{"team": team.Label()}

	if team.ID == "" {
		id, ok, err := g.Resolver.Resolve(ctx, team.Name)
		if err != nil {
			logger.Error("Team resolution failed", fields, err)
			out.errs = append(out.errs, fmt.Errorf("resolving team: %w", err))
			return out
		}
		if !ok {
			logger.Warn("Team not found, skipping", fields)
			out.errs = append(out.errs, errors.New("team not found"))
			return out
		}
		team = team.WithID(id)
		out.team = team
	}
	fields["team_id"] = team.ID

	base := g.baseURL()
	for _, role := range []match.Role{match.RoleUpcoming, match.RoleResults} {
		pageURL := scraper.UpcomingURL(base, team.ID)
		if role == match.RoleResults {
			pageURL = scraper.ResultsURL(base, team.ID)
		}

		records, err := g.extract(ctx, pageURL, role)
		if err != nil {
			logger.Error("Listing unavailable", logger.Fields{"team": team.Label(), "role": string(role), "url": pageURL}, err)
			out.errs = append(out.errs, fmt.Errorf("%s: %w", role, err))
			continue
		}

		events := builder.Build(records, role)
		logger.Debug("Listing processed", logger.Fields{
			"team":    team.Label(),
			"role":    string(role),
			"records": len(records),
			"events":  len(events),
		})

		if role == match.RoleUpcoming {
			out.upcoming = events
		} else {
			out.results = events
		}
	}

	logger.Info("Team processed", logger.Fields{
		"team":     team.Label(),
		"team_id":  team.ID,
		"upcoming": len(out.upcoming),
		"results":  len(out.results),
	})
	return out
}

func (g *Generator) extract(ctx context.Context, pageURL string, role match.Role) ([]match.Record, error) {
	body, err := g.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return g.Extractor.ExtractHTML(strings.NewReader(body), role, pageURL)
}

func (g *Generator) builder() *match.Builder {
	b := &match.Builder{
		Location:   g.location(),
		Horizon:    g.Settings.Horizon,
		MaxResults: g.Settings.PastResults,
		Now:        g.now,
	}
	if g.Encoder != nil && g.Encoder.NewUID != nil {
		b.NewUID = g.Encoder.NewUID
	}
	return b
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Generator) location() *time.Location {
	if g.Settings.Location != nil {
		return g.Settings.Location
	}
	return time.UTC
}

func (g *Generator) concurrency() int {
	if g.Settings.Concurrency > 0 {
		return g.Settings.Concurrency
	}
	return 1
}

func (g *Generator) baseURL() string {
	if g.Settings.BaseURL != "" {
		return g.Settings.BaseURL
	}
	return scraper.BaseURL
}

func (g *Generator) encoder() *calendar.Encoder {
	if g.Encoder != nil {
		return g.Encoder
	}
	return calendar.NewEncoder()
}

func (g *Generator) write(path, content string) error {
	if g.Write != nil {
		return g.Write(path, content)
	}
	return storage.WriteCalendar(path, content)
}
