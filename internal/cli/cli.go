package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/cs2-cal/internal/config"
	"github.com/pfrederiksen/cs2-cal/internal/generator"
	"github.com/pfrederiksen/cs2-cal/internal/logger"
	"github.com/pfrederiksen/cs2-cal/internal/metrics"
	"github.com/pfrederiksen/cs2-cal/internal/scraper"
	"github.com/pfrederiksen/cs2-cal/internal/storage"
)

// ExitSuccess is the only exit status the command uses.
const ExitSuccess = 0

type options struct {
	configPath  string
	output      string
	dataDir     string
	format      string
	sortOrder   string
	verbose     bool
	logFile     string
	metricsFile string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cs2-cal",
		Short: "Build an iCalendar feed of CS2 team matches from HLTV",
		Long: `A CLI tool that scrapes HLTV for the upcoming matches and recent results
of a configured list of Counter-Strike 2 teams and writes them to a single
.ics file. Meant to run from a scheduler; it always exits with status 0 and
always leaves a valid calendar behind.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", config.DefaultPath, "Team list file (.json, or YAML otherwise)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Calendar output path (overrides the config file)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", storage.DefaultDataDir, "Data directory for the team id cache")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Report format: text or json")
	cmd.Flags().StringVar(&opts.sortOrder, "sort", string(SortByConfig), "Team order in the report: config, name or events")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "Also write logs to this file, rotated by size")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")

	return cmd
}

// runUpdate is the main command logic. Problems are logged and reported but
// never returned, so the process exit status stays 0.
func runUpdate(cmd *cobra.Command, opts *options) error {
	level := logger.LevelInfo
	if opts.verbose {
		level = logger.LevelDebug
	}
	log := logger.NewWithOptions(logger.Options{
		Level:  level,
		Output: cmd.ErrOrStderr(),
		File:   opts.logFile,
	})
	logger.SetDefault(log)
	defer log.Sync()

	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		logger.Warn("Invalid format, using text", logger.Fields{"format": opts.format})
		format = FormatText
	}

	settings := loadSettings(opts)

	var cache *storage.TeamCache
	store, err := storage.New(opts.dataDir)
	if err != nil {
		logger.Error("Storage unavailable, team ids will not be cached", logger.Fields{"data_dir": opts.dataDir}, err)
	} else if cache, err = store.LoadTeamCache(); err != nil {
		logger.Warn("Team cache unreadable, starting empty", logger.Fields{"error": err.Error()})
		cache = storage.NewTeamCache()
	}

	var teamCache scraper.TeamCache
	if cache != nil {
		teamCache = cache
	}

	m := metrics.New()
	res := generator.New(settings, teamCache, m).Run(cmd.Context())

	if store != nil && cache != nil {
		if err := store.SaveTeamCache(cache); err != nil {
			logger.Warn("Saving team cache failed", logger.Fields{"error": err.Error()})
		}
	}

	if opts.metricsFile != "" {
		path, err := storage.ExpandHome(opts.metricsFile)
		if err == nil {
			err = m.WriteTextfile(path)
		}
		if err != nil {
			logger.Error("Writing metrics failed", logger.Fields{"path": opts.metricsFile}, err)
		}
	}

	report := NewReport(res)
	sortTeams(report.Teams, SortOrder(strings.ToLower(opts.sortOrder)))

	if err := WriteOutput(cmd.OutOrStdout(), report, format, opts.verbose); err != nil {
		logger.Error("Writing report failed", nil, err)
	}
	return nil
}

// loadSettings builds the run settings. A missing or malformed config file
// yields an empty team list so the run still produces a calendar.
func loadSettings(opts *options) config.Settings {
	settings := config.Defaults()

	f, err := config.Load(opts.configPath)
	if err != nil {
		logger.Error("Config unusable, continuing without teams", logger.Fields{"config": opts.configPath}, err)
	} else {
		settings, err = f.Apply(settings)
		if err != nil {
			logger.Warn("Config partially applied", logger.Fields{"config": opts.configPath, "error": err.Error()})
		}
	}

	if opts.output != "" {
		settings.OutputPath = opts.output
	}
	if path, err := storage.ExpandHome(settings.OutputPath); err == nil {
		settings.OutputPath = path
	}

	logger.Debug("Settings loaded", logger.Fields{
		"teams":        len(settings.Teams),
		"horizon":      settings.Horizon.String(),
		"past_results": settings.PastResults,
		"timezone":     settings.Location.String(),
		"output":       settings.OutputPath,
		"concurrency":  settings.Concurrency,
	})
	return settings
}

// Execute runs the CLI. It returns normally in every case; command line
// errors are printed but do not change the exit status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
