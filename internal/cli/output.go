package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/cs2-cal/internal/generator"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Report is the run summary printed after an update.
type Report struct {
	generator.Result
	Duration string `json:"duration"`
}

// NewReport wraps a run result for output.
func NewReport(res generator.Result) *Report {
	return &Report{
		Result:   res,
		Duration: res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond).String(),
	}
}

// WriteOutput writes the report in the specified format
func WriteOutput(w io.Writer, report *Report, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeText(w, report, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the report as JSON
func writeJSON(w io.Writer, report *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// writeText outputs the report as human-readable text
func writeText(w io.Writer, report *Report, verbose bool) error {
	switch {
	case report.Degraded && report.Events == 0:
		fmt.Fprintf(w, "Update FAILED and no calendar could be written to %s\n", report.OutputPath)
	case report.Degraded:
		fmt.Fprintf(w, "Update FAILED, wrote failure placeholder to %s\n", report.OutputPath)
	case report.Placeholder == generator.PlaceholderInfo:
		fmt.Fprintf(w, "No matches found, wrote placeholder to %s\n", report.OutputPath)
	default:
		fmt.Fprintf(w, "Wrote %d events to %s (%d upcoming, %d results)\n",
			report.Events, report.OutputPath, report.Upcoming, report.Results)
	}

	if report.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", report.Error)
	}

	for _, team := range report.Teams {
		name := team.Team
		if team.ID != "" {
			name = fmt.Sprintf("%s (%s)", team.Team, team.ID)
		}
		fmt.Fprintf(w, "  %s: %d upcoming, %d results\n", name, team.Upcoming, team.Results)
		if team.Error != "" {
			fmt.Fprintf(w, "       Error: %s\n", team.Error)
		}
	}

	if verbose {
		fmt.Fprintf(w, "\nStarted: %s\n", report.StartedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "Duration: %s\n", report.Duration)
	}

	return nil
}
