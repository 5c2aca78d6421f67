// Package testutils provides shared test infrastructure: an in-process fake
// of the data portal, a progress recorder and file assertions. Container
// helpers for integration tests live behind the integration build tag.
package testutils

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ligustah/nrdp/internal/progress"
)

// TestFile defines a test file with size and data.
type TestFile struct {
	Name string
	Size int64
	Data []byte
}

// GenerateTestData generates test data of the given size.
// For files <= 10MB, uses deterministic pattern. For larger files, uses random data.
func GenerateTestData(t *testing.T, size int64) []byte {
	t.Helper()
	data := make([]byte, size)
	if size <= 10*1024*1024 {
		for i := range data {
			data[i] = byte(i % 256)
		}
	} else {
		if _, err := rand.Read(data); err != nil {
			t.Fatalf("generate random data: %v", err)
		}
	}
	return data
}

// PortalOptions configures a fake data portal.
type PortalOptions struct {
	Username string
	Password string
	Token    string

	// Feeds maps remote paths to bodies.
	Feeds map[string][]byte

	// Chunked lists remote paths served without a Content-Length header.
	Chunked map[string]bool

	// Status forces a response status for a remote path.
	Status map[string]int

	// Truncate drops the connection after sending this many body bytes. The
	// declared Content-Length stays the full size.
	Truncate map[string]int

	// OmitToken makes a successful login response carry no token.
	OmitToken bool
}

// Portal is a fake data portal backed by httptest.
type Portal struct {
	*httptest.Server

	opts      PortalOptions
	authCalls atomic.Int32

	mu        sync.Mutex
	feedCalls map[string]int
	tokens    []string
}

// StartPortal starts a fake portal that is closed when the test ends.
func StartPortal(t *testing.T, opts PortalOptions) *Portal {
	t.Helper()

	if opts.Token == "" && !opts.OmitToken {
		opts.Token = "test-token"
	}

	p := &Portal{
		opts:      opts,
		feedCalls: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/authenticate", p.authenticate)
	mux.HandleFunc("/", p.feed)

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)

	return p
}

// AuthCalls returns how many login requests were received.
func (p *Portal) AuthCalls() int {
	return int(p.authCalls.Load())
}

// FeedCalls returns how many feed requests were received, across all paths.
func (p *Portal) FeedCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.feedCalls {
		total += n
	}
	return total
}

// FeedCallsFor returns how many requests were received for path.
func (p *Portal) FeedCallsFor(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feedCalls[path]
}

// Tokens returns the X-Auth-Token values seen on feed requests.
func (p *Portal) Tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.tokens...)
}

func (p *Portal) authenticate(w http.ResponseWriter, r *http.Request) {
	p.authCalls.Add(1)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if r.PostForm.Get("username") != p.opts.Username || r.PostForm.Get("password") != p.opts.Password {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid credentials"}`))
		return
	}

	resp := map[string]any{
		"username": p.opts.Username,
		"roles":    map[string]bool{"ROLE_STANDARD": true},
	}
	if !p.opts.OmitToken {
		resp["token"] = p.opts.Token
	}
	json.NewEncoder(w).Encode(resp)
}

func (p *Portal) feed(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Auth-Token")

	p.mu.Lock()
	p.feedCalls[r.URL.Path]++
	p.tokens = append(p.tokens, token)
	p.mu.Unlock()

	if status, ok := p.opts.Status[r.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}

	data, ok := p.opts.Feeds[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}

	if p.opts.Token == "" || token != p.opts.Token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if n, ok := p.opts.Truncate[r.URL.Path]; ok {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		w.Write(data[:min(n, len(data))])
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
			}
		}
		return
	}

	if !p.opts.Chunked[r.URL.Path] {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
		return
	}

	// Flushing before the handler returns forces chunked encoding.
	flusher, _ := w.(http.Flusher)
	const piece = 4096
	for off := 0; off < len(data); off += piece {
		end := min(off+piece, len(data))
		w.Write(data[off:end])
		if flusher != nil {
			flusher.Flush()
		}
	}
	if len(data) == 0 && flusher != nil {
		flusher.Flush()
	}
}

// Recorder is a progress.Sink that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []progress.Event
}

// Send records e.
func (r *Recorder) Send(e progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns the events recorded for taskID, in arrival order.
func (r *Recorder) Events(taskID string) []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []progress.Event
	for _, e := range r.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// TaskIDs returns each task ID that sent an event, in first-seen order.
func (r *Recorder) TaskIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for _, e := range r.events {
		if !seen[e.TaskID] {
			seen[e.TaskID] = true
			ids = append(ids, e.TaskID)
		}
	}
	return ids
}

// Advanced sums the Advanced events for taskID.
func (r *Recorder) Advanced(taskID string) int64 {
	var sum int64
	for _, e := range r.Events(taskID) {
		if e.Kind == progress.Advanced {
			sum += e.Bytes
		}
	}
	return sum
}

// CompareFileToData fails the test unless the file at path holds exactly expected.
func CompareFileToData(t *testing.T, path string, expected []byte) {
	t.Helper()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(got) != len(expected) {
		t.Fatalf("size mismatch for %s: got %d bytes, want %d", path, len(got), len(expected))
	}
	if !bytes.Equal(got, expected) {
		t.Fatalf("content mismatch for %s", path)
	}
}
