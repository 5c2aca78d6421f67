package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"sort"
	"time"

	"github.com/ligustah/nrdp/internal/auth"
	"github.com/ligustah/nrdp/internal/config"
	"github.com/ligustah/nrdp/internal/downloader"
	"github.com/ligustah/nrdp/internal/feed"
	"github.com/ligustah/nrdp/internal/progress"
)

// runDownload logs in once and downloads every requested feed concurrently.
// Successfully downloaded feeds are optionally mirrored to object storage.
func runDownload(args []string) int {
	fs := flag.NewFlagSet("download", flag.ExitOnError)

	var cf configFlags
	cf.register(fs)
	var ff feedFlags
	ff.register(fs, "write")

	baseURL := fs.String("base-url", "", "Data portal base URL (default "+feed.DefaultBaseURL+")")
	username := fs.String("username", "", "Portal username (prompted if omitted)")
	password := fs.String("password", "", "Portal password (prompted without echo if omitted)")
	bufferSize := fs.String("buffer-size", "", "Read buffer per transfer, e.g. 64KB")
	showProgress := fs.Bool("progress", true, "Show progress output")
	httpTimeout := fs.Duration("http-timeout", 0, "Overall timeout per HTTP request (0 = none)")
	mirrorBucket := fs.String("mirror", "", "Bucket URL to copy downloaded feeds to (gs://, s3://, file://)")
	mirrorPrefix := fs.String("mirror-prefix", "", "Object key prefix for mirrored feeds")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: nrdp download [options]

Log in to the National Rail Data Portal and download the requested feeds
concurrently. At least one of -fares, -routeing or -timetable is required.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	override := config.Config{
		BaseURL:  *baseURL,
		Username: *username,
		Password: *password,
		HTTP:     config.HTTPConfig{Timeout: *httpTimeout},
		Mirror:   config.MirrorConfig{Bucket: *mirrorBucket, Prefix: *mirrorPrefix},
	}
	ff.apply(&override)
	if *bufferSize != "" {
		size, err := progress.ParseBytes(*bufferSize)
		if err != nil {
			return usageError(fmt.Errorf("invalid buffer size: %w", err))
		}
		override.BufferSize = size
	}

	cfg, err := cf.load(override)
	if err != nil {
		return usageError(err)
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "progress" {
			cfg.Progress = *showProgress
		}
	})

	reqs, ok := requestsOrUsage(fs, cfg)
	if !ok {
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	log := newLogger(cfg)

	// Open the mirror first so a bad URL fails before anything is fetched.
	var target *mirrorTarget
	if cfg.Mirror.Bucket != "" {
		bkt, err := openBucket(ctx, cfg.Mirror.Bucket)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		defer bkt.Close()
		target = &mirrorTarget{bucket: bkt, url: cfg.Mirror.Bucket, prefix: cfg.Mirror.Prefix}
	}

	creds, err := promptCredentials(auth.Credentials{Username: cfg.Username, Password: cfg.Password})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	var (
		sink     progress.Sink
		reporter *progress.Reporter
	)
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{Output: stderr})
		defer reporter.Stop()
		sink = reporter
	}

	statusf("Logging in")
	start := time.Now()

	res, err := downloader.Download(ctx, creds, reqs, downloader.Options{
		BaseURL:     cfg.BaseURL,
		BufferSize:  int(cfg.BufferSize),
		Progress:    sink,
		HTTPOptions: cfg.HTTPOptions(),
		Logger:      log,
		OnLogin: func(sess *auth.Session) {
			statusf("Logged in")
			printSessionInfo(sess)
			statusf("Downloading %d feed(s)", len(reqs))
			if reporter != nil {
				reporter.Start()
			}
		},
	})

	if reporter != nil {
		reporter.Stop()
	}

	code := downloadExitCode(err)
	if code == ExitAuthFailed || code == ExitInvalidArgs {
		return code
	}

	if res != nil {
		for _, o := range res.Outcomes {
			if o.Succeeded() {
				statusf("Saved %s (%s) to %s", o.Feed, progress.FormatBytes(o.Bytes), o.LocalPath)
			}
		}
	}

	if code != ExitSuccess {
		if ctx.Err() != nil {
			statusf("Download interrupted; partial files are left on disk")
		}
		return code
	}

	statusf("Downloaded %d feed(s), %s in %s", len(res.Outcomes), progress.FormatBytes(res.Bytes()), time.Since(start).Round(time.Millisecond))

	if target != nil {
		files := make([]feed.Request, 0, len(res.Outcomes))
		for _, o := range res.Outcomes {
			files = append(files, feed.NewRequest(o.Feed, o.LocalPath))
		}
		if err := target.upload(ctx, files, log); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitStorageError
		}
	}

	return ExitSuccess
}

// downloadExitCode maps a download error to an exit code and reports it.
func downloadExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		cfgErr  *downloader.ConfigurationError
		authErr *auth.AuthenticationError
		tfErr   *downloader.TransferFailedError
	)

	switch {
	case errors.As(err, &cfgErr):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	case errors.As(err, &authErr), errors.Is(err, auth.ErrMissingCredentials):
		fmt.Fprintf(stderr, "Could not log in: %v\n", err)
		return ExitAuthFailed
	case errors.As(err, &tfErr):
		fmt.Fprintf(stderr, "Logged in, but %d of %d downloads failed:\n", len(tfErr.Failures), tfErr.Total)
		for _, f := range tfErr.Failures {
			fmt.Fprintf(stderr, "  - %s: %v\n", f.Feed, f.Err)
		}
		return ExitDownloadFailed
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
}

// printSessionInfo writes the login response fields, minus the token, one
// per line in key order.
func printSessionInfo(sess *auth.Session) {
	info := sess.Info()
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, err := json.Marshal(info[k])
		if err != nil {
			v = []byte(fmt.Sprint(info[k]))
		}
		statusf("  %s: %s", k, v)
	}
}
