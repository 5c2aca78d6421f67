package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"

	"github.com/ligustah/nrdp/internal/feed"
	nrdphttp "github.com/ligustah/nrdp/internal/http"
	"github.com/ligustah/nrdp/internal/progress"
)

// TokenHeader carries the session token on feed requests.
const TokenHeader = "X-Auth-Token"

// DefaultBufferSize is the read buffer used when Spec.BufferSize is unset.
const DefaultBufferSize = 64 * 1024

// Spec describes one transfer.
type Spec struct {
	// ID identifies the task in progress events. A random ID is used if empty.
	ID        string
	Feed      feed.Feed
	URL       string
	Token     string
	LocalPath string

	// BufferSize bounds the bytes held in memory per read.
	BufferSize int
}

// State is a point-in-time view of a task.
type State struct {
	TaskID           string
	BytesTotal       int64
	TotalKnown       bool
	BytesTransferred int64
	Status           Status
}

// Outcome is the terminal result of a task.
type Outcome struct {
	TaskID    string
	Feed      feed.Feed
	LocalPath string
	Bytes     int64
	Err       error
}

// Succeeded reports whether the task finished without error.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// DownloadError describes a failed transfer.
type DownloadError struct {
	Feed feed.Feed

	// StatusCode is 0 when the failure was not a non-success response.
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: status %d", e.Feed, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.Feed, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Task downloads one feed to one local file.
type Task struct {
	client *nrdphttp.Client
	spec   Spec
	sink   progress.Sink
	log    logger.Logger

	mu    sync.Mutex
	state State
}

// NewTask creates a pending task. A nil sink discards progress and a nil log
// uses a logger named "transfer".
func NewTask(client *nrdphttp.Client, spec Spec, sink progress.Sink, log logger.Logger) *Task {
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if spec.BufferSize <= 0 {
		spec.BufferSize = DefaultBufferSize
	}
	if sink == nil {
		sink = progress.Discard
	}
	if log == nil {
		log = logger.New("transfer")
	}

	return &Task{
		client: client,
		spec:   spec,
		sink:   sink,
		log:    log.With("feed", spec.Feed.String(), "task", spec.ID),
		state: State{
			TaskID: spec.ID,
			Status: StatusPending,
		},
	}
}

// ID returns the task's progress identity.
func (t *Task) ID() string {
	return t.spec.ID
}

// State returns a copy of the current state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Execute runs the transfer to completion. The error, if any, is reported in
// the Outcome as a *DownloadError.
func (t *Task) Execute(ctx context.Context) Outcome {
	log := t.log.Function("Execute")

	t.setStatus(StatusRunning)
	log.Debug("Starting transfer", "url", t.spec.URL, "path", t.spec.LocalPath)

	written, err := t.run(ctx)

	outcome := Outcome{
		TaskID:    t.spec.ID,
		Feed:      t.spec.Feed,
		LocalPath: t.spec.LocalPath,
		Bytes:     written,
	}

	if err != nil {
		t.setStatus(StatusFailed)
		outcome.Err = log.Err("transfer failed", &DownloadError{
			Feed:       t.spec.Feed,
			StatusCode: nrdphttp.StatusCode(err),
			Err:        err,
		}, "written", written)
		return outcome
	}

	t.setStatus(StatusSucceeded)
	log.Info("Transfer complete", "path", t.spec.LocalPath, "bytes", written)

	return outcome
}

func (t *Task) run(ctx context.Context) (int64, error) {
	header := http.Header{}
	if t.spec.Token != "" {
		header.Set(TokenHeader, t.spec.Token)
	}

	resp, err := t.client.Stream(ctx, t.spec.URL, header)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.ContentLength >= 0 {
		t.mu.Lock()
		t.state.BytesTotal = resp.ContentLength
		t.state.TotalKnown = true
		t.mu.Unlock()
		t.sink.Send(progress.Event{TaskID: t.spec.ID, Kind: progress.TotalKnown, Bytes: resp.ContentLength})
	}

	f, err := os.Create(t.spec.LocalPath)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	written, err := t.copy(f, resp.Body)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close file: %w", closeErr)
	}

	return written, err
}

// copy streams r into w one buffer at a time, reporting each write.
func (t *Task) copy(w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, t.spec.BufferSize)
	var written int64

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			nw, writeErr := w.Write(buf[:n])
			if nw > 0 {
				written += int64(nw)
				t.advance(int64(nw))
			}
			if writeErr != nil {
				return written, fmt.Errorf("write: %w", writeErr)
			}
			if nw != n {
				return written, fmt.Errorf("write: %w", io.ErrShortWrite)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, fmt.Errorf("read: %w", readErr)
		}
	}

	return written, nil
}

func (t *Task) advance(n int64) {
	t.mu.Lock()
	t.state.BytesTransferred += n
	t.mu.Unlock()
	t.sink.Send(progress.Event{TaskID: t.spec.ID, Kind: progress.Advanced, Bytes: n})
}

func (t *Task) setStatus(s Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Status.IsTerminal() {
		return
	}
	t.state.Status = s
}
