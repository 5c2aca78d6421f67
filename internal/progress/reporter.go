package progress

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration

	// QueueSize is the capacity of the event queue. Events that do not fit
	// are merged into per-task counters instead of waiting.
	// Default: 1024
	QueueSize int

	// Prefix starts every rendered line.
	// Default: "[nrdp]"
	Prefix string
}

// TaskProgress is the recorded state of one task.
type TaskProgress struct {
	ID          string
	Label       string
	Total       int64
	TotalKnown  bool
	Transferred int64
}

// Percent returns the completed percentage. ok is false while the total is
// unknown.
func (p TaskProgress) Percent() (pct float64, ok bool) {
	if !p.TotalKnown {
		return 0, false
	}
	if p.Total <= 0 {
		return 100, true
	}
	return float64(p.Transferred) / float64(p.Total) * 100, true
}

type taskState struct {
	TaskProgress
	lastBytes  int64
	lastUpdate time.Time
	speed      float64
}

// Reporter records progress events and renders them periodically.
//
// Send hands events to a recording goroutine over a buffered channel. When
// the channel is full the event is merged into a pending counter for its task
// instead. Rendering copies the state out under mu and writes with the lock
// released.
type Reporter struct {
	opts Options

	events  chan Event
	wake    chan struct{}
	quit    chan struct{}
	drained chan struct{}

	pendingMu     sync.Mutex
	pending       map[string]*pendingCounts
	pendingClosed bool

	mu        sync.Mutex
	tasks     map[string]*taskState
	order     []string
	startTime time.Time
	started   bool
	stopped   bool
	rendered  chan struct{}

	// lastLines is owned by the render goroutine.
	lastLines int
}

// pendingCounts accumulates events that overflowed the queue.
type pendingCounts struct {
	total      int64
	totalKnown bool
	advanced   int64
}

// NewReporter creates a reporter and starts recording events. Call Start to
// render and Stop to release it.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.Prefix == "" {
		opts.Prefix = "[nrdp]"
	}

	r := &Reporter{
		opts:      opts,
		events:    make(chan Event, opts.QueueSize),
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		drained:   make(chan struct{}),
		pending:   make(map[string]*pendingCounts),
		tasks:     make(map[string]*taskState),
		startTime: time.Now(),
	}

	go r.recordLoop()

	return r
}

// Track registers a task so it is rendered under label, in call order.
func (r *Reporter) Track(taskID, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.taskLocked(taskID).Label = label
}

// Send enqueues e and never waits: a full queue merges e into the task's
// pending counters, and after Stop e is recorded directly.
func (r *Reporter) Send(e Event) {
	select {
	case <-r.drained:
		r.record(e)
		return
	default:
	}

	select {
	case r.events <- e:
	default:
		r.merge(e)
	}
}

func (r *Reporter) merge(e Event) {
	r.pendingMu.Lock()
	if r.pendingClosed {
		r.pendingMu.Unlock()
		r.record(e)
		return
	}
	p, ok := r.pending[e.TaskID]
	if !ok {
		p = &pendingCounts{}
		r.pending[e.TaskID] = p
	}
	switch e.Kind {
	case TotalKnown:
		p.total = e.Bytes
		p.totalKnown = true
	case Advanced:
		p.advanced += e.Bytes
	}
	r.pendingMu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.startTime = time.Now()
	r.rendered = make(chan struct{})
	r.mu.Unlock()

	go r.updateLoop()
}

// Stop records every queued event, stops rendering and prints the final
// status if Start was called. Events sent afterwards are still recorded.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.mu.Unlock()

	close(r.quit)
	<-r.drained
	if started {
		<-r.rendered
	}
}

// Snapshot returns the recorded state of every task in display order.
func (r *Reporter) Snapshot() []TaskProgress {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]TaskProgress, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id].TaskProgress)
	}
	return out
}

func (r *Reporter) recordLoop() {
	defer close(r.drained)

	for {
		select {
		case e := <-r.events:
			r.record(e)
		case <-r.wake:
			r.flushPending(false)
		case <-r.quit:
			for {
				select {
				case e := <-r.events:
					r.record(e)
				default:
					r.flushPending(true)
					return
				}
			}
		}
	}
}

// flushPending records the merged overflow. With closing set, later merges
// are recorded directly.
func (r *Reporter) flushPending(closing bool) {
	r.pendingMu.Lock()
	pending := r.pending
	r.pending = make(map[string]*pendingCounts)
	if closing {
		r.pendingClosed = true
	}
	r.pendingMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range pending {
		t := r.taskLocked(id)
		if p.totalKnown {
			t.Total = p.total
			t.TotalKnown = true
		}
		t.Transferred += p.advanced
	}
}

func (r *Reporter) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.taskLocked(e.TaskID)
	switch e.Kind {
	case TotalKnown:
		t.Total = e.Bytes
		t.TotalKnown = true
	case Advanced:
		t.Transferred += e.Bytes
	}
}

// taskLocked returns the state for id, creating it if needed. r.mu must be held.
func (r *Reporter) taskLocked(id string) *taskState {
	t, ok := r.tasks[id]
	if !ok {
		t = &taskState{
			TaskProgress: TaskProgress{ID: id, Label: id},
			lastUpdate:   time.Now(),
		}
		r.tasks[id] = t
		r.order = append(r.order, id)
	}
	return t
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	defer close(r.rendered)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			<-r.drained
			r.writeLines(r.finalLines())
			return
		case <-ticker.C:
			r.writeLines(r.progressLines())
		}
	}
}

// progressLines renders one line per task.
func (r *Reporter) progressLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	lines := make([]string, 0, len(r.order))
	width := r.labelWidth()

	for _, id := range r.order {
		t := r.tasks[id]

		elapsed := now.Sub(t.lastUpdate).Seconds()
		if elapsed < 0.1 {
			elapsed = 0.1
		}
		t.speed = float64(t.Transferred-t.lastBytes) / elapsed
		t.lastBytes = t.Transferred
		t.lastUpdate = now

		lines = append(lines, r.formatLine(t, width, t.speed, now.Sub(r.startTime), false))
	}

	return lines
}

// finalLines renders every task with its average speed, then the totals.
func (r *Reporter) finalLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	duration := time.Since(r.startTime)
	secs := duration.Seconds()
	if secs < 0.001 {
		secs = 0.001
	}
	width := r.labelWidth()
	lines := make([]string, 0, len(r.order)+1)

	var total int64
	for _, id := range r.order {
		t := r.tasks[id]
		total += t.Transferred
		avg := float64(t.Transferred) / secs
		lines = append(lines, r.formatLine(t, width, avg, duration, true))
	}
	lines = append(lines, fmt.Sprintf("%s Total: %s in %s | Average speed: %s/s",
		r.opts.Prefix,
		formatBytes(total),
		formatDuration(duration),
		formatBytes(int64(float64(total)/secs)),
	))

	return lines
}

func (r *Reporter) formatLine(t *taskState, width int, speed float64, elapsed time.Duration, final bool) string {
	label := fmt.Sprintf("%-*s", width, t.Label)

	pct, known := t.Percent()
	if !known {
		return fmt.Sprintf("%s %s  %s / ? | %s/s | %s elapsed",
			r.opts.Prefix, label,
			formatBytes(t.Transferred),
			formatBytes(int64(speed)),
			formatDuration(elapsed),
		)
	}

	var eta string
	switch {
	case t.Transferred >= t.Total:
		eta = "done"
	case final:
		eta = "incomplete"
	case speed > 0:
		remaining := float64(t.Total - t.Transferred)
		eta = "ETA " + formatDuration(time.Duration(remaining/speed*float64(time.Second)))
	default:
		eta = "ETA calculating..."
	}

	return fmt.Sprintf("%s %s %5.1f%% | %s / %s | %s/s | %s",
		r.opts.Prefix, label,
		pct,
		formatBytes(t.Transferred),
		formatBytes(t.Total),
		formatBytes(int64(speed)),
		eta,
	)
}

func (r *Reporter) labelWidth() int {
	width := 0
	for _, id := range r.order {
		if n := len(r.tasks[id].Label); n > width {
			width = n
		}
	}
	return width
}

// writeLines overwrites the block printed last time. It runs without r.mu.
func (r *Reporter) writeLines(lines []string) {
	var b strings.Builder
	if r.lastLines > 0 {
		fmt.Fprintf(&b, "\033[%dA", r.lastLines)
	}
	for _, line := range lines {
		b.WriteString("\r")
		b.WriteString(line)
		b.WriteString("\033[K\n")
	}
	io.WriteString(r.opts.Output, b.String())
	r.lastLines = len(lines)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}

// ParseBytes parses a human-readable byte string (e.g., "64KB").
// Units are binary: 1KB is 1024 bytes.
func ParseBytes(s string) (int64, error) {
	var multiplier int64 = 1
	s = strings.ToUpper(strings.TrimSpace(s))

	switch {
	case strings.HasSuffix(s, "TB"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative byte string: %s", s)
	}

	return int64(value * float64(multiplier)), nil
}
