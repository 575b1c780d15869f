package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tripwhen/internal/when"
)

// ActivityConfig describes one bookable activity or connection target the
// widget can plan for.
type ActivityConfig struct {
	// ID is an internal identifier used in API paths and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
	// LatestEnd is the latest acceptable activity end as "HH:MM" wall-clock
	// in the configured timezone.
	LatestEnd string `yaml:"latest_end" json:"latest_end"`
	// DurationMinutes is the expected activity duration.
	DurationMinutes int `yaml:"duration_minutes" json:"duration_minutes"`
	// OperatingDays is an optional RRULE naming the days the connection
	// runs (empty means daily).
	OperatingDays string `yaml:"operating_days,omitempty" json:"operating_days,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone all wall-clock configuration is read in
	// (e.g. "Europe/Vienna").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Language is the two-letter display language code (e.g. "DE").
	Language string `yaml:"language" json:"language"`

	// RefreshCron is a cron-style schedule for recomputing cached plans.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Translations overrides the built-in display strings. Missing keys
	// fall back to defaults, unknown keys resolve to themselves.
	Translations map[string]string `yaml:"translations,omitempty" json:"translations,omitempty"`

	// Activities is the list of plannable activities.
	Activities []ActivityConfig `yaml:"activities" json:"activities"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

func defaultTranslations() map[string]string {
	return map[string]string{
		when.KeyMinutesShort:   "min",
		when.KeyHoursShort:     "h",
		when.KeyEndBeforeStart: "end is before start",
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "Europe/Vienna",
		Language:     "EN",
		RefreshCron:  "*/15 * * * *",
		Translations: defaultTranslations(),
		Activities:   []ActivityConfig{},
		BasicAuth:    nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Vienna"
	}
	if c.Language == "" {
		c.Language = "EN"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}

	// Merge defaults under any user-supplied translation overrides.
	merged := defaultTranslations()
	for k, v := range c.Translations {
		if v != "" {
			merged[k] = v
		}
	}
	c.Translations = merged

	if c.Activities == nil {
		c.Activities = []ActivityConfig{}
	}
}

// Translator returns the translation function handed to the when package.
// Unknown keys resolve to the key itself so display code never gets "".
func (c *Config) Translator() when.Translator {
	return func(key string) string {
		if v, ok := c.Translations[key]; ok && v != "" {
			return v
		}
		return key
	}
}

// Activity looks up an activity by ID.
func (c *Config) Activity(id string) (ActivityConfig, error) {
	for _, a := range c.Activities {
		if a.ID == id {
			return a, nil
		}
	}
	return ActivityConfig{}, fmt.Errorf("config: unknown activity %q", id)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create parent directory if needed, write
//     a default config with 0600 perms and return it.
//   - If the file exists: read YAML, unmarshal and normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path: parent dir 0700, atomic temp-file
// write + rename, final permissions 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tripwhen-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save for call-site convenience.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
