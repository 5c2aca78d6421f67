package downloader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/ligustah/nrdp/internal/auth"
	"github.com/ligustah/nrdp/internal/feed"
	nrdphttp "github.com/ligustah/nrdp/internal/http"
	"github.com/ligustah/nrdp/internal/progress"
	"github.com/ligustah/nrdp/internal/transfer"
)

// ErrNothingRequested is returned when a run names no feeds.
var ErrNothingRequested = errors.New("downloader: no feeds requested")

// Authenticator obtains a session for a download run.
type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Session, error)
}

// Options configures the downloader.
type Options struct {
	// BaseURL is the portal root.
	// Default: feed.DefaultBaseURL
	BaseURL string

	// BufferSize is the per-read buffer of each transfer.
	// Default: transfer.DefaultBufferSize
	BufferSize int

	// Progress receives transfer events. If it also has a
	// Track(id, label string) method, every task is registered with it
	// before starting.
	Progress progress.Sink

	// HTTPOptions configures the HTTP client.
	HTTPOptions nrdphttp.Options

	// Authenticator replaces the portal login used by Download.
	Authenticator Authenticator

	// OnLogin is called by Download after a successful login and before
	// any transfer starts.
	OnLogin func(*auth.Session)

	// Logger defaults to a logger named "downloader".
	Logger logger.Logger
}

// ConfigurationError is returned when a run is rejected before any network
// call.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// FailedFeed records a transfer that did not succeed.
type FailedFeed struct {
	Feed      feed.Feed
	LocalPath string
	Err       error
}

// TransferFailedError is returned when one or more transfers failed. Every
// transfer has finished by the time it is returned.
//
// Use errors.As to extract this error and inspect Failures for details.
type TransferFailedError struct {
	Total    int          // Number of transfers in the run
	Failures []FailedFeed // Details of failed transfers, in request order
}

func (e *TransferFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Err.Error())
	}
	return fmt.Sprintf("%d of %d downloads failed: %s", len(e.Failures), e.Total, strings.Join(parts, "; "))
}

func (e *TransferFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Feeds returns the names of the failed feeds.
func (e *TransferFailedError) Feeds() []feed.Feed {
	out := make([]feed.Feed, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Feed)
	}
	return out
}

// Result holds the outcome of every transfer in request order.
type Result struct {
	Outcomes []transfer.Outcome
}

// Failed returns the outcomes that carry an error.
func (r *Result) Failed() []transfer.Outcome {
	var failed []transfer.Outcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Bytes returns the total bytes written across all transfers.
func (r *Result) Bytes() int64 {
	var n int64
	for _, o := range r.Outcomes {
		n += o.Bytes
	}
	return n
}

// Err returns a *TransferFailedError if any transfer failed, otherwise nil.
func (r *Result) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}

	err := &TransferFailedError{Total: len(r.Outcomes)}
	for _, o := range failed {
		err.Failures = append(err.Failures, FailedFeed{
			Feed:      o.Feed,
			LocalPath: o.LocalPath,
			Err:       o.Err,
		})
	}
	return err
}

type tracker interface {
	Track(taskID, label string)
}

// Coordinator fans a set of requests out to concurrent transfers.
type Coordinator struct {
	client *nrdphttp.Client
	opts   Options
	log    logger.Logger
}

// NewCoordinator creates a Coordinator. A nil client is built from
// opts.HTTPOptions.
func NewCoordinator(client *nrdphttp.Client, opts Options) *Coordinator {
	opts = applyDefaults(opts)
	if client == nil {
		client = nrdphttp.NewClient(opts.HTTPOptions)
	}
	return &Coordinator{
		client: client,
		opts:   opts,
		log:    opts.Logger,
	}
}

// Run starts one transfer per request and waits for all of them. The
// returned Result is non-nil whenever at least one transfer was started;
// the error is Result.Err().
func (c *Coordinator) Run(ctx context.Context, reqs []feed.Request, sess *auth.Session) (*Result, error) {
	log := c.log.Function("Run")

	if len(reqs) == 0 {
		return nil, &ConfigurationError{Err: ErrNothingRequested}
	}

	var token string
	if sess != nil {
		token = sess.Token
	}

	tasks := make([]*transfer.Task, len(reqs))
	for i, req := range reqs {
		tasks[i] = transfer.NewTask(c.client, transfer.Spec{
			Feed:       req.Feed,
			URL:        req.URL(c.opts.BaseURL),
			Token:      token,
			LocalPath:  req.LocalPath,
			BufferSize: c.opts.BufferSize,
		}, c.opts.Progress, c.log)

		if t, ok := c.opts.Progress.(tracker); ok {
			t.Track(tasks[i].ID(), req.Feed.String())
		}
	}

	log.Info("Starting transfers", "count", len(tasks))

	res := &Result{Outcomes: make([]transfer.Outcome, len(tasks))}

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res.Outcomes[i] = task.Execute(ctx)
		}()
	}
	wg.Wait()

	if err := res.Err(); err != nil {
		return res, log.Err("transfers failed", err, "failed", len(res.Failed()), "total", len(tasks))
	}

	log.Info("All transfers complete", "count", len(tasks), "bytes", res.Bytes())

	return res, nil
}

// Download authenticates once with creds and then runs every request
// concurrently. An empty request set fails with a *ConfigurationError before
// any network call. Authentication errors are returned unchanged and no
// transfer is started.
func Download(ctx context.Context, creds auth.Credentials, reqs []feed.Request, opts Options) (*Result, error) {
	if len(reqs) == 0 {
		return nil, &ConfigurationError{Err: ErrNothingRequested}
	}

	opts = applyDefaults(opts)
	client := nrdphttp.NewClient(opts.HTTPOptions)

	authenticator := opts.Authenticator
	if authenticator == nil {
		authenticator = auth.NewAuthenticator(client, auth.Options{
			BaseURL: opts.BaseURL,
			Logger:  opts.Logger,
		})
	}

	sess, err := authenticator.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	if opts.OnLogin != nil {
		opts.OnLogin(sess)
	}

	return NewCoordinator(client, opts).Run(ctx, reqs, sess)
}

func applyDefaults(opts Options) Options {
	if opts.BaseURL == "" {
		opts.BaseURL = feed.DefaultBaseURL
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = transfer.DefaultBufferSize
	}
	if opts.Progress == nil {
		opts.Progress = progress.Discard
	}
	httpDefaults := nrdphttp.DefaultOptions()
	if opts.HTTPOptions.MaxIdleConnsPerHost == 0 {
		opts.HTTPOptions.MaxIdleConnsPerHost = httpDefaults.MaxIdleConnsPerHost
	}
	if opts.HTTPOptions.UserAgent == "" {
		opts.HTTPOptions.UserAgent = httpDefaults.UserAgent
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("downloader")
	}
	return opts
}
