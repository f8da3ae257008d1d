// Package cli implements the command-line interface for cs2-cal.
//
// The cli package provides the Cobra-based root command that loads the team
// list, runs one calendar update and prints a run report (text or JSON). The
// process exits with status 0 in every case, failures included, so an
// external scheduler never marks a run as crashed; the outcome is visible in
// the report, the logs, the optional metrics textfile and the calendar itself.
package cli
