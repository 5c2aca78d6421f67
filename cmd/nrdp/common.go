package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/ligustah/nrdp/internal/config"
	"github.com/ligustah/nrdp/internal/feed"
)

// Swapped out by tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// configFlags are the flags every command uses to locate its configuration.
type configFlags struct {
	configFile string
	envFile    string
	logFormat  string
	logLevel   string
}

func (c *configFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&c.envFile, "env-file", "", "Load NRDP_ variables from this file (default .env if present)")
	fs.StringVar(&c.logFormat, "log-format", "", "Log format: text or json")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// load builds the configuration from defaults, the YAML file, the
// environment and finally override, then validates it.
func (c *configFlags) load(override config.Config) (config.Config, error) {
	if err := config.LoadDotEnv(c.envFile); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if c.configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(c.configFile)
		if err != nil {
			return config.Config{}, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}

	override.LogFormat = c.logFormat
	override.LogLevel = c.logLevel
	cfg = cfg.Merge(override)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// feedFlags hold one local path per feed.
type feedFlags struct {
	fares     string
	routeing  string
	timetable string
}

func (f *feedFlags) register(fs *flag.FlagSet, verb string) {
	fs.StringVar(&f.fares, "fares", "", fmt.Sprintf("Local path of the fares feed to %s", verb))
	fs.StringVar(&f.routeing, "routeing", "", fmt.Sprintf("Local path of the routeing feed to %s", verb))
	fs.StringVar(&f.timetable, "timetable", "", fmt.Sprintf("Local path of the timetable feed to %s", verb))
}

func (f *feedFlags) apply(cfg *config.Config) {
	cfg.Fares = f.fares
	cfg.Routeing = f.routeing
	cfg.Timetable = f.timetable
}

func newLogger(cfg config.Config) logger.Logger {
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	format := logger.FormatText
	if cfg.LogFormat == config.LogFormatJSON {
		format = logger.FormatJSON
	}
	return logger.NewWithConfig(logger.Config{
		Name:   "nrdp",
		Format: format,
		Level:  level,
		Writer: stderr,
	})
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(stderr, "\n[nrdp] Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func statusf(format string, args ...any) {
	fmt.Fprintf(stderr, "[nrdp] "+format+"\n", args...)
}

// openBucket opens a mirror bucket with a bounded wait for the driver.
func openBucket(ctx context.Context, bucketURL string) (*blob.Bucket, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	bkt, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return bkt, nil
}

// requestsOrUsage returns the requested feeds, printing usage when there
// are none.
func requestsOrUsage(fs *flag.FlagSet, cfg config.Config) ([]feed.Request, bool) {
	reqs := feed.BuildRequests(cfg.Requests())
	if len(reqs) == 0 {
		fmt.Fprintln(stderr, "Error: no feeds requested; pass at least one of -fares, -routeing or -timetable")
		fs.Usage()
		return nil, false
	}
	return reqs, true
}

// usageError reports a configuration problem and returns ExitInvalidArgs.
func usageError(err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitInvalidArgs
}

var errNoBucket = errors.New("a mirror bucket is required (-bucket or NRDP_MIRROR_BUCKET)")
