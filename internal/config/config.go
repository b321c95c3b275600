package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the femg runtime configuration.
type Config struct {
	BackendURL string
	AnonKey    string
	Timeout    time.Duration

	Poll Poll

	NetworkAnalyticsFeed bool

	LogLevel string
	LogFile  string

	ReportDir string
}

// Poll holds the refetch interval of each polled view.
type Poll struct {
	Executive            time.Duration
	SystemHealth         time.Duration
	MissionControl       time.Duration
	BusinessIntelligence time.Duration
}

const (
	defaultConfigPath = "~/.config/femg/config.toml"
	defaultLogFile    = "~/.local/state/femg/femg.log"
	defaultReportDir  = "~/Downloads"
	defaultTimeout    = 10 * time.Second
	defaultLogLevel   = "info"

	// Environment overrides for the backend credentials.
	EnvBackendURL = "FEMG_BACKEND_URL"
	EnvAnonKey    = "FEMG_ANON_KEY"
)

// DefaultPoll returns the standard dashboard cadence.
func DefaultPoll() Poll {
	return Poll{
		Executive:            30 * time.Second,
		SystemHealth:         15 * time.Second,
		MissionControl:       10 * time.Second,
		BusinessIntelligence: 60 * time.Second,
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

type rawConfig struct {
	Backend struct {
		URL     string `toml:"url"`
		AnonKey string `toml:"anon_key"`
		Timeout string `toml:"timeout"`
	} `toml:"backend"`
	Poll struct {
		Executive            string `toml:"executive"`
		SystemHealth         string `toml:"system_health"`
		MissionControl       string `toml:"mission_control"`
		BusinessIntelligence string `toml:"business_intelligence"`
	} `toml:"poll"`
	Feeds struct {
		NetworkAnalytics *bool `toml:"network_analytics"`
	} `toml:"feeds"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
	Report struct {
		Dir string `toml:"dir"`
	} `toml:"report"`
}

func defaults() Config {
	return Config{
		Timeout:              defaultTimeout,
		Poll:                 DefaultPoll(),
		NetworkAnalyticsFeed: true,
		LogLevel:             defaultLogLevel,
		LogFile:              mustExpand(defaultLogFile),
		ReportDir:            mustExpand(defaultReportDir),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
// FEMG_BACKEND_URL and FEMG_ANON_KEY override the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.BackendURL = strings.TrimSpace(raw.Backend.URL)
	cfg.AnonKey = strings.TrimSpace(raw.Backend.AnonKey)
	if cfg.Timeout, err = parseDuration("backend.timeout", raw.Backend.Timeout, defaultTimeout, false); err != nil {
		return Config{}, err
	}

	poll := DefaultPoll()
	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"poll.executive", raw.Poll.Executive, &cfg.Poll.Executive},
		{"poll.system_health", raw.Poll.SystemHealth, &cfg.Poll.SystemHealth},
		{"poll.mission_control", raw.Poll.MissionControl, &cfg.Poll.MissionControl},
		{"poll.business_intelligence", raw.Poll.BusinessIntelligence, &cfg.Poll.BusinessIntelligence},
	}
	fallback := []time.Duration{poll.Executive, poll.SystemHealth, poll.MissionControl, poll.BusinessIntelligence}
	for i, d := range durations {
		if *d.dst, err = parseDuration(d.key, d.value, fallback[i], true); err != nil {
			return Config{}, err
		}
	}

	if raw.Feeds.NetworkAnalytics != nil {
		cfg.NetworkAnalyticsFeed = *raw.Feeds.NetworkAnalytics
	}

	if level := strings.TrimSpace(raw.Log.Level); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if logFile := strings.TrimSpace(raw.Log.File); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}
	if dir := strings.TrimSpace(raw.Report.Dir); dir != "" {
		cfg.ReportDir = mustExpand(dir)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Validate reports missing backend settings.
func (c Config) Validate() error {
	var missing []string
	if c.BackendURL == "" {
		missing = append(missing, "backend.url")
	}
	if c.AnonKey == "" {
		missing = append(missing, "backend.anon_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config is missing %s (set them in %s or via %s/%s)",
			strings.Join(missing, " and "), defaultConfigPath, EnvBackendURL, EnvAnonKey)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.BackendURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAnonKey)); v != "" {
		cfg.AnonKey = v
	}
}

// parseDuration parses value, returning fallback when it is empty. allowZero
// permits "0" to disable a timer.
func parseDuration(key, value string, fallback time.Duration, allowZero bool) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("parse %s: %q must be positive", key, value)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
