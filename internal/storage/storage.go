package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultDataDir = "~/.local/share/cs2-cal"
	teamCacheFile  = "team_cache.json"
)

// Storage handles persistence under a data directory
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// DataDir returns the expanded data directory.
func (s *Storage) DataDir() string {
	return s.dataDir
}

// ExpandHome expands a leading ~/ to the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// WriteCalendar replaces the file at path with content. The content is
// written to a temporary file in the same directory and renamed over path,
// so readers never observe a partial calendar.
func WriteCalendar(path, content string) error {
	path, err := ExpandHome(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing calendar: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting calendar permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing calendar: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing calendar: %w", err)
	}
	return nil
}

func (s *Storage) teamCachePath() string {
	return filepath.Join(s.dataDir, teamCacheFile)
}

// LoadTeamCache loads the team id cache, returning an empty cache when none
// has been saved yet.
func (s *Storage) LoadTeamCache() (*TeamCache, error) {
	data, err := os.ReadFile(s.teamCachePath())
	if err != nil {
		if os.IsNotExist(err) {
			return NewTeamCache(), nil
		}
		return nil, fmt.Errorf("reading team cache: %w", err)
	}

	cache := NewTeamCache()
	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("parsing team cache: %w", err)
	}

	// Ensure maps are initialized
	if cache.IDs == nil {
		cache.IDs = make(map[string]string)
	}
	if cache.CachedAt == nil {
		cache.CachedAt = make(map[string]time.Time)
	}
	return cache, nil
}

// SaveTeamCache drops expired entries and writes the cache to disk.
func (s *Storage) SaveTeamCache(cache *TeamCache) error {
	cache.CleanExpired()

	cache.mu.Lock()
	data, err := json.MarshalIndent(cache, "", "  ")
	cache.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding team cache: %w", err)
	}

	if err := os.WriteFile(s.teamCachePath(), data, 0644); err != nil {
		return fmt.Errorf("writing team cache: %w", err)
	}
	return nil
}
