package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ligustah/nrdp/internal/feed"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.BaseURL != feed.DefaultBaseURL {
		t.Errorf("expected default base URL %s, got %s", feed.DefaultBaseURL, cfg.BaseURL)
	}
	if cfg.BufferSize != 64*1024 {
		t.Errorf("expected default buffer size 64KB, got %d", cfg.BufferSize)
	}
	if !cfg.Progress {
		t.Error("expected progress enabled by default")
	}
	if cfg.LogFormat != LogFormatText {
		t.Errorf("expected default log format text, got %s", cfg.LogFormat)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected default log level warn, got %s", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
base_url: http://localhost:8080
username: alice
password: ignored
fares: /data/fares.zip
timetable: /data/timetable.zip
buffer_size: 128KB
progress: false
log_format: json
log_level: debug
http:
  timeout: 30s
  user_agent: nrdp-test
mirror:
  bucket: mem://
  prefix: feeds
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("expected base URL http://localhost:8080, got %s", cfg.BaseURL)
	}
	if cfg.Username != "alice" {
		t.Errorf("expected username alice, got %s", cfg.Username)
	}
	if cfg.Password != "" {
		t.Error("password must not be read from YAML")
	}
	if cfg.Fares != "/data/fares.zip" || cfg.Timetable != "/data/timetable.zip" || cfg.Routeing != "" {
		t.Errorf("unexpected feed paths: %q %q %q", cfg.Fares, cfg.Routeing, cfg.Timetable)
	}
	if cfg.BufferSize != 128*1024 {
		t.Errorf("expected buffer size 128KB, got %d", cfg.BufferSize)
	}
	if cfg.Progress {
		t.Error("expected progress disabled")
	}
	if cfg.LogFormat != LogFormatJSON || cfg.LogLevel != "debug" {
		t.Errorf("unexpected log settings: %s %s", cfg.LogFormat, cfg.LogLevel)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("expected http timeout 30s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.UserAgent != "nrdp-test" {
		t.Errorf("expected user agent nrdp-test, got %s", cfg.HTTP.UserAgent)
	}
	if cfg.HTTP.MaxIdleConnsPerHost != Default().HTTP.MaxIdleConnsPerHost {
		t.Errorf("expected default max idle conns, got %d", cfg.HTTP.MaxIdleConnsPerHost)
	}
	if cfg.Mirror.Bucket != "mem://" || cfg.Mirror.Prefix != "feeds" {
		t.Errorf("unexpected mirror config: %+v", cfg.Mirror)
	}
}

func TestLoadFromYAMLKeepsProgressDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("fares: f.zip\n"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if !cfg.Progress {
		t.Error("expected progress to stay enabled when unset")
	}
}

func TestLoadFromYAMLBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"buffer size", "buffer_size: lots\n"},
		{"timeout", "http:\n  timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write config file: %v", err)
			}
			if _, err := LoadFromFile(configPath); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NRDP_BASE_URL", "http://portal.test")
	t.Setenv("NRDP_USERNAME", "bob")
	t.Setenv("NRDP_PASSWORD", "s3cret")
	t.Setenv("NRDP_ROUTEING", "r.zip")
	t.Setenv("NRDP_BUFFER_SIZE", "1MB")
	t.Setenv("NRDP_PROGRESS", "false")
	t.Setenv("NRDP_LOG_LEVEL", "info")
	t.Setenv("NRDP_HTTP_TIMEOUT", "500ms")
	t.Setenv("NRDP_MIRROR_BUCKET", "file:///tmp/mirror")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.BaseURL != "http://portal.test" {
		t.Errorf("expected base URL from env, got %s", cfg.BaseURL)
	}
	if cfg.Username != "bob" || cfg.Password != "s3cret" {
		t.Errorf("expected credentials from env, got %q", cfg.Username)
	}
	if cfg.Routeing != "r.zip" {
		t.Errorf("expected routeing r.zip, got %s", cfg.Routeing)
	}
	if cfg.BufferSize != 1024*1024 {
		t.Errorf("expected buffer size 1MB, got %d", cfg.BufferSize)
	}
	if cfg.Progress {
		t.Error("expected progress disabled")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.LogLevel)
	}
	if cfg.HTTP.Timeout != 500*time.Millisecond {
		t.Errorf("expected http timeout 500ms, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Mirror.Bucket != "file:///tmp/mirror" {
		t.Errorf("expected mirror bucket from env, got %s", cfg.Mirror.Bucket)
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	for _, key := range []string{"NRDP_BUFFER_SIZE", "NRDP_PROGRESS", "NRDP_HTTP_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "not-a-value")
			cfg := Default()
			if err := cfg.LoadFromEnv(); err == nil {
				t.Errorf("expected error for %s", key)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "test.env")
	content := "NRDP_USERNAME=carol\nNRDP_TIMETABLE=tt.zip\n"
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// Registers cleanup for variables the file sets.
	t.Setenv("NRDP_USERNAME", "")
	os.Unsetenv("NRDP_USERNAME")
	t.Setenv("NRDP_TIMETABLE", "already-set.zip")

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Username != "carol" {
		t.Errorf("expected username from env file, got %q", cfg.Username)
	}
	if cfg.Timetable != "already-set.zip" {
		t.Errorf("env file must not override the environment, got %q", cfg.Timetable)
	}
}

func TestLoadDotEnvMissing(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for explicit missing env file")
	}

	t.Chdir(t.TempDir())
	if err := LoadDotEnv(""); err != nil {
		t.Errorf("absent default .env should be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Default()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"http base url", func(c *Config) { c.BaseURL = "http://localhost:9000" }, false},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, true},
		{"non-http base url", func(c *Config) { c.BaseURL = "ftp://example.com" }, true},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }, true},
		{"huge buffer", func(c *Config) { c.BufferSize = 2 << 30 }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"negative timeout", func(c *Config) { c.HTTP.Timeout = -time.Second }, true},
		{"no feeds is fine", func(c *Config) { c.Fares, c.Routeing, c.Timetable = "", "", "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	base.Username = "alice"
	base.Fares = "fares.zip"

	override := Config{
		Timetable:  "timetable.zip",
		BufferSize: 4096,
		Password:   "pw",
		Mirror:     MirrorConfig{Prefix: "nightly"},
	}

	merged := base.Merge(override)

	if merged.Username != "alice" {
		t.Errorf("expected Username preserved, got %s", merged.Username)
	}
	if merged.Fares != "fares.zip" {
		t.Errorf("expected Fares preserved, got %s", merged.Fares)
	}
	if merged.BaseURL != feed.DefaultBaseURL {
		t.Errorf("expected BaseURL preserved, got %s", merged.BaseURL)
	}

	if merged.Timetable != "timetable.zip" {
		t.Errorf("expected Timetable overridden, got %s", merged.Timetable)
	}
	if merged.BufferSize != 4096 {
		t.Errorf("expected BufferSize overridden to 4096, got %d", merged.BufferSize)
	}
	if merged.Password != "pw" {
		t.Error("expected Password overridden")
	}
	if merged.Mirror.Prefix != "nightly" {
		t.Errorf("expected Mirror.Prefix overridden, got %s", merged.Mirror.Prefix)
	}
}

func TestRequests(t *testing.T) {
	cfg := Default()
	cfg.Fares = "f.zip"
	cfg.Timetable = "t.zip"

	reqs := feed.BuildRequests(cfg.Requests())
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].Feed != feed.Fares || reqs[1].Feed != feed.Timetable {
		t.Errorf("unexpected request order: %v, %v", reqs[0].Feed, reqs[1].Feed)
	}
}

func TestHTTPOptions(t *testing.T) {
	cfg := Default()
	cfg.HTTP.Timeout = time.Minute
	cfg.HTTP.UserAgent = "custom"

	opts := cfg.HTTPOptions()
	if opts.Timeout != time.Minute {
		t.Errorf("expected timeout 1m, got %v", opts.Timeout)
	}
	if opts.UserAgent != "custom" {
		t.Errorf("expected user agent custom, got %s", opts.UserAgent)
	}
	if opts.MaxIdleConnsPerHost == 0 {
		t.Error("expected max idle conns to keep its default")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLogLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLogLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoadYAMLFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}
