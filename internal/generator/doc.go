// Package generator runs one calendar update end to end.
//
// A run resolves every configured team, fetches and extracts its upcoming
// matches and recent results, builds the events, sorts them, encodes the
// calendar and replaces the output file. Failures of a single team only
// remove that team's events. Anything that aborts the run, a panic included,
// is turned into a calendar holding a single [ERRO] placeholder, so a valid
// file is always left behind.
package generator
