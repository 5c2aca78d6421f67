package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ligustah/nrdp/internal/feed"
	nrdphttp "github.com/ligustah/nrdp/internal/http"
	"github.com/ligustah/nrdp/internal/progress"
)

// Log formats accepted by LogFormat.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config defines configuration for the nrdp CLI.
type Config struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`

	// Password is only ever read from the environment or a flag.
	Password string `yaml:"-"`

	Fares     string `yaml:"fares"`
	Routeing  string `yaml:"routeing"`
	Timetable string `yaml:"timetable"`

	BufferSize int64        `yaml:"buffer_size"`
	Progress   bool         `yaml:"progress"`
	LogFormat  string       `yaml:"log_format"`
	LogLevel   string       `yaml:"log_level"`
	HTTP       HTTPConfig   `yaml:"http"`
	Mirror     MirrorConfig `yaml:"mirror"`
}

// HTTPConfig defines HTTP client behavior.
type HTTPConfig struct {
	Timeout             time.Duration `yaml:"timeout"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	UserAgent           string        `yaml:"user_agent"`
}

// MirrorConfig names the object store downloaded feeds are copied to.
type MirrorConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	httpDefaults := nrdphttp.DefaultOptions()
	return Config{
		BaseURL:    feed.DefaultBaseURL,
		BufferSize: 64 * 1024,
		Progress:   true,
		LogFormat:  LogFormatText,
		LogLevel:   "warn",
		HTTP: HTTPConfig{
			MaxIdleConnsPerHost: httpDefaults.MaxIdleConnsPerHost,
			UserAgent:           httpDefaults.UserAgent,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	BaseURL    string         `yaml:"base_url"`
	Username   string         `yaml:"username"`
	Fares      string         `yaml:"fares"`
	Routeing   string         `yaml:"routeing"`
	Timetable  string         `yaml:"timetable"`
	BufferSize string         `yaml:"buffer_size"`
	Progress   *bool          `yaml:"progress"`
	LogFormat  string         `yaml:"log_format"`
	LogLevel   string         `yaml:"log_level"`
	HTTP       yamlHTTPConfig `yaml:"http"`
	Mirror     MirrorConfig   `yaml:"mirror"`
}

type yamlHTTPConfig struct {
	Timeout             string `yaml:"timeout"`
	MaxIdleConnsPerHost int    `yaml:"max_idle_conns_per_host"`
	UserAgent           string `yaml:"user_agent"`
}

// LoadFromFile loads configuration from a YAML file on top of Default().
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.Username != "" {
		cfg.Username = yc.Username
	}
	if yc.Fares != "" {
		cfg.Fares = yc.Fares
	}
	if yc.Routeing != "" {
		cfg.Routeing = yc.Routeing
	}
	if yc.Timetable != "" {
		cfg.Timetable = yc.Timetable
	}
	if yc.BufferSize != "" {
		size, err := progress.ParseBytes(yc.BufferSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse buffer_size: %w", err)
		}
		cfg.BufferSize = size
	}
	if yc.Progress != nil {
		cfg.Progress = *yc.Progress
	}
	if yc.LogFormat != "" {
		cfg.LogFormat = yc.LogFormat
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}
	if yc.HTTP.Timeout != "" {
		d, err := time.ParseDuration(yc.HTTP.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.timeout: %w", err)
		}
		cfg.HTTP.Timeout = d
	}
	if yc.HTTP.MaxIdleConnsPerHost != 0 {
		cfg.HTTP.MaxIdleConnsPerHost = yc.HTTP.MaxIdleConnsPerHost
	}
	if yc.HTTP.UserAgent != "" {
		cfg.HTTP.UserAgent = yc.HTTP.UserAgent
	}
	if yc.Mirror.Bucket != "" {
		cfg.Mirror.Bucket = yc.Mirror.Bucket
	}
	if yc.Mirror.Prefix != "" {
		cfg.Mirror.Prefix = yc.Mirror.Prefix
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment. Variables that
// are already set keep their values. An empty path means ".env" in the
// working directory, which may be absent.
func LoadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the NRDP_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("NRDP_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("NRDP_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("NRDP_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("NRDP_FARES"); v != "" {
		c.Fares = v
	}
	if v := os.Getenv("NRDP_ROUTEING"); v != "" {
		c.Routeing = v
	}
	if v := os.Getenv("NRDP_TIMETABLE"); v != "" {
		c.Timetable = v
	}
	if v := os.Getenv("NRDP_BUFFER_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse NRDP_BUFFER_SIZE: %w", err)
		}
		c.BufferSize = size
	}
	if v := os.Getenv("NRDP_PROGRESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse NRDP_PROGRESS: %w", err)
		}
		c.Progress = b
	}
	if v := os.Getenv("NRDP_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("NRDP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("NRDP_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse NRDP_HTTP_TIMEOUT: %w", err)
		}
		c.HTTP.Timeout = d
	}
	if v := os.Getenv("NRDP_MIRROR_BUCKET"); v != "" {
		c.Mirror.Bucket = v
	}
	if v := os.Getenv("NRDP_MIRROR_PREFIX"); v != "" {
		c.Mirror.Prefix = v
	}

	return nil
}

// Validate validates the configuration. Feed paths and credentials are not
// required here; the CLI reports those separately.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.BufferSize <= 0 {
		return errors.New("config: buffer_size must be positive")
	}
	if c.BufferSize > 1<<30 {
		return errors.New("config: buffer_size must not exceed 1GB")
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("config: log_format must be %q or %q, got %q", LogFormatText, LogFormatJSON, c.LogFormat)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.HTTP.Timeout < 0 {
		return errors.New("config: http.timeout must not be negative")
	}
	if c.HTTP.MaxIdleConnsPerHost < 0 {
		return errors.New("config: http.max_idle_conns_per_host must not be negative")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.Username != "" {
		c.Username = override.Username
	}
	if override.Password != "" {
		c.Password = override.Password
	}
	if override.Fares != "" {
		c.Fares = override.Fares
	}
	if override.Routeing != "" {
		c.Routeing = override.Routeing
	}
	if override.Timetable != "" {
		c.Timetable = override.Timetable
	}
	if override.BufferSize != 0 {
		c.BufferSize = override.BufferSize
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.LogFormat != "" {
		c.LogFormat = override.LogFormat
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	if override.HTTP.Timeout != 0 {
		c.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.MaxIdleConnsPerHost != 0 {
		c.HTTP.MaxIdleConnsPerHost = override.HTTP.MaxIdleConnsPerHost
	}
	if override.HTTP.UserAgent != "" {
		c.HTTP.UserAgent = override.HTTP.UserAgent
	}
	if override.Mirror.Bucket != "" {
		c.Mirror.Bucket = override.Mirror.Bucket
	}
	if override.Mirror.Prefix != "" {
		c.Mirror.Prefix = override.Mirror.Prefix
	}
	return c
}

// Requests maps each feed to its configured local path. Feeds without a
// path are included with an empty value.
func (c *Config) Requests() map[feed.Feed]string {
	return map[feed.Feed]string{
		feed.Fares:     c.Fares,
		feed.Routeing:  c.Routeing,
		feed.Timetable: c.Timetable,
	}
}

// HTTPOptions converts the HTTP section into client options.
func (c *Config) HTTPOptions() nrdphttp.Options {
	opts := nrdphttp.DefaultOptions()
	opts.Timeout = c.HTTP.Timeout
	if c.HTTP.MaxIdleConnsPerHost != 0 {
		opts.MaxIdleConnsPerHost = c.HTTP.MaxIdleConnsPerHost
	}
	if c.HTTP.UserAgent != "" {
		opts.UserAgent = c.HTTP.UserAgent
	}
	return opts
}

// ParseLogLevel parses debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
