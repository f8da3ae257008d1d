package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath         = "teams.json"
	DefaultOutput       = "cs2.ics"
	DefaultTimezone     = "America/Sao_Paulo"
	DefaultCalendarName = "CS2 Matches"
	DefaultBaseURL      = "https://www.hltv.org"
	DefaultFutureDays   = 90
	DefaultPastResults  = 5
	DefaultConcurrency  = 1
)

// ConfigError reports a config file that could not be used.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Team identifies a tracked team by name, HLTV id, or both.
type Team struct {
	Name string
	ID   string
}

// Label returns the name, or the id when no name is set.
func (t Team) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// WithID returns a copy of t carrying id.
func (t Team) WithID(id string) Team {
	t.ID = id
	return t
}

type teamObject struct {
	Name string      `json:"name" yaml:"name"`
	ID   interface{} `json:"id" yaml:"id"`
}

func (t *Team) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*t = Team{Name: strings.TrimSpace(name)}
		return nil
	}

	var obj teamObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("team entry must be a name or an object: %w", err)
	}
	return t.fromObject(obj)
}

func (t *Team) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var name string
		if err := value.Decode(&name); err != nil {
			return err
		}
		*t = Team{Name: strings.TrimSpace(name)}
		return nil
	case yaml.MappingNode:
		var obj teamObject
		if err := value.Decode(&obj); err != nil {
			return err
		}
		return t.fromObject(obj)
	default:
		return fmt.Errorf("line %d: team entry must be a name or a mapping", value.Line)
	}
}

func (t *Team) fromObject(obj teamObject) error {
	id, err := idString(obj.ID)
	if err != nil {
		return err
	}
	*t = Team{Name: strings.TrimSpace(obj.Name), ID: id}
	return nil
}

func idString(v interface{}) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(id), nil
	case int:
		return strconv.Itoa(id), nil
	case float64:
		if id != float64(int64(id)) {
			return "", fmt.Errorf("team id %v is not an integer", id)
		}
		return strconv.FormatInt(int64(id), 10), nil
	default:
		return "", fmt.Errorf("unsupported team id %v", v)
	}
}

// File mirrors the config file. Pointer fields distinguish an absent key
// from an explicit zero.
type File struct {
	Teams        []Team `json:"teams" yaml:"teams"`
	FutureDays   *int   `json:"future_days" yaml:"future_days"`
	PastResults  *int   `json:"past_results" yaml:"past_results"`
	Timezone     string `json:"timezone" yaml:"timezone"`
	CalendarName string `json:"calendar_name" yaml:"calendar_name"`
	BaseURL      string `json:"base_url" yaml:"base_url"`
	Concurrency  int    `json:"concurrency" yaml:"concurrency"`
	Output       string `json:"output" yaml:"output"`
}

// Load reads and decodes the file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, &ConfigError{Path: path, Err: err}
	}
	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return File{}, &ConfigError{Path: path, Err: err}
	}
	return f, nil
}

// Parse decodes data. ext selects JSON for ".json" and YAML otherwise.
func Parse(data []byte, ext string) (File, error) {
	var f File
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return File{}, fmt.Errorf("parsing config: %w", err)
	}
	return f, nil
}

// Settings is the runtime configuration of one run. It is built once and
// passed by value.
type Settings struct {
	Teams        []Team
	Horizon      time.Duration
	PastResults  int
	Location     *time.Location
	CalendarName string
	BaseURL      string
	Concurrency  int
	OutputPath   string
}

// Defaults returns the Settings used when no file is available.
func Defaults() Settings {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return Settings{
		Horizon:      days(DefaultFutureDays),
		PastResults:  DefaultPastResults,
		Location:     loc,
		CalendarName: DefaultCalendarName,
		BaseURL:      DefaultBaseURL,
		Concurrency:  DefaultConcurrency,
		OutputPath:   DefaultOutput,
	}
}

// Apply overlays the values present in f onto base. Teams without a name
// or id are dropped. An unknown timezone leaves base's location in place and
// is reported in the returned error.
func (f File) Apply(base Settings) (Settings, error) {
	s := base

	s.Teams = make([]Team, 0, len(f.Teams))
	for _, t := range f.Teams {
		if t.Name == "" && t.ID == "" {
			continue
		}
		s.Teams = append(s.Teams, t)
	}

	if f.FutureDays != nil {
		s.Horizon = days(*f.FutureDays)
	}
	if f.PastResults != nil {
		s.PastResults = *f.PastResults
	}
	if f.CalendarName != "" {
		s.CalendarName = f.CalendarName
	}
	if f.BaseURL != "" {
		s.BaseURL = strings.TrimRight(f.BaseURL, "/")
	}
	if f.Concurrency > 0 {
		s.Concurrency = f.Concurrency
	}
	if f.Output != "" {
		s.OutputPath = f.Output
	}

	if f.Timezone != "" {
		loc, err := time.LoadLocation(f.Timezone)
		if err != nil {
			return s, &ConfigError{Path: "timezone", Err: err}
		}
		s.Location = loc
	}
	return s, nil
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
