// Package storage provides file persistence for cs2-cal.
//
// It writes the calendar artifact, replacing any previous version in a single
// rename, and keeps a small JSON cache of resolved HLTV team ids in the data
// directory (team_cache.json). The default data directory is
// ~/.local/share/cs2-cal/.
package storage
