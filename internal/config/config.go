// Package config handles configuration loading and validation for the
// drawing inspector.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file, and INSPECT_* environment variables. A .env file in the working
// directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvLogLevel         = "INSPECT_LOG_LEVEL"
	EnvLogFile          = "INSPECT_LOG_FILE"
	EnvAPIURL           = "INSPECT_API_URL"
	EnvFeedURL          = "INSPECT_FEED_URL"
	EnvSessionID        = "INSPECT_SESSION_ID"
	EnvSnapshotFile     = "INSPECT_SNAPSHOT_FILE"
	EnvReconnectDelay   = "INSPECT_RECONNECT_DELAY"
	EnvKeepalive        = "INSPECT_KEEPALIVE"
	EnvRefreshInterval  = "INSPECT_REFRESH_INTERVAL"
	EnvEventLogCapacity = "INSPECT_EVENT_LOG_CAPACITY"
)

// Config holds the application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// APIURL is the base of the inspection REST API, for example
	// http://localhost:8000/api. Empty disables remote refresh.
	APIURL string `yaml:"api_url"`

	// FeedURL is the event feed WebSocket endpoint. Empty disables the feed.
	FeedURL string `yaml:"feed_url"`

	SessionID    string `yaml:"session_id"`
	SnapshotFile string `yaml:"snapshot_file"`

	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	Keepalive        time.Duration `yaml:"keepalive"`
	RefreshInterval  time.Duration `yaml:"refresh_interval"`
	WatchDebounce    time.Duration `yaml:"watch_debounce"`
	EventLogCapacity int           `yaml:"event_log_capacity"`
}

// DefaultConfig returns a Config with the stock timings.
func DefaultConfig() Config {
	return Config{
		LogLevel:         "info",
		ReconnectDelay:   2 * time.Second,
		Keepalive:        30 * time.Second,
		RefreshInterval:  10 * time.Second,
		WatchDebounce:    200 * time.Millisecond,
		EventLogCapacity: 500,
	}
}

// Load builds the configuration. envFile is loaded into the process
// environment when it exists (existing variables win); configPath is read
// when non-empty and present. The result is validated.
func Load(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvLogLevel:     &c.LogLevel,
		EnvLogFile:      &c.LogFile,
		EnvAPIURL:       &c.APIURL,
		EnvFeedURL:      &c.FeedURL,
		EnvSessionID:    &c.SessionID,
		EnvSnapshotFile: &c.SnapshotFile,
	}
	for k, p := range strs {
		if v, ok := lookup(k); ok {
			*p = v
		}
	}

	durs := map[string]*time.Duration{
		EnvReconnectDelay:  &c.ReconnectDelay,
		EnvKeepalive:       &c.Keepalive,
		EnvRefreshInterval: &c.RefreshInterval,
	}
	var errs criterio.FieldErrorsBuilder
	for k, p := range durs {
		v, ok := lookup(k)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = errs.Append(k, fmt.Errorf("invalid duration %q: %w", v, err))
			continue
		}
		*p = d
	}

	if v, ok := lookup(EnvEventLogCapacity); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = errs.Append(EnvEventLogCapacity, fmt.Errorf("invalid integer %q", v))
		} else {
			c.EventLogCapacity = n
		}
	}
	return errs.ToError()
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = errs.Append("log_level", fmt.Errorf("unknown level %q", c.LogLevel))
	}
	if err := validateURL(c.APIURL, "http", "https"); err != nil {
		errs = errs.Append("api_url", err)
	}
	if err := validateURL(c.FeedURL, "ws", "wss"); err != nil {
		errs = errs.Append("feed_url", err)
	}
	if c.ReconnectDelay <= 0 {
		errs = errs.Append("reconnect_delay", fmt.Errorf("must be positive"))
	}
	if c.Keepalive <= 0 {
		errs = errs.Append("keepalive", fmt.Errorf("must be positive"))
	}
	if c.RefreshInterval < 0 {
		errs = errs.Append("refresh_interval", fmt.Errorf("cannot be negative"))
	}
	if c.WatchDebounce < 0 {
		errs = errs.Append("watch_debounce", fmt.Errorf("cannot be negative"))
	}
	if c.EventLogCapacity < 1 {
		errs = errs.Append("event_log_capacity", fmt.Errorf("must be at least 1"))
	}
	if c.FeedURL != "" && c.SessionID == "" {
		errs = errs.Append("session_id", fmt.Errorf("required when feed_url is set"))
	}

	return errs.ToError()
}

func validateURL(raw string, schemes ...string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("url %q has no host", raw)
			}
			return nil
		}
	}
	return fmt.Errorf("url %q must use scheme %v", raw, schemes)
}
