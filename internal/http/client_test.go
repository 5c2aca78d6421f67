package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestPostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %s", ct)
		}
		if accept := r.Header.Get("Accept"); accept != "application/json" {
			t.Errorf("expected Accept header to be passed through, got %q", accept)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("username") != "alice" {
			t.Errorf("expected username alice, got %q", r.PostForm.Get("username"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"abc"}`))
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	resp, err := client.PostForm(context.Background(), server.URL,
		url.Values{"username": {"alice"}, "password": {"secret"}},
		http.Header{"Accept": {"application/json"}},
	)
	if err != nil {
		t.Fatalf("PostForm: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"token":"abc"}` {
		t.Errorf("unexpected body: %s", resp.Body)
	}
}

func TestPostFormUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad credentials"))
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	_, err := client.PostForm(context.Background(), server.URL, url.Values{}, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if se.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", se.StatusCode)
	}
	if se.Body != "bad credentials" {
		t.Errorf("expected body to be kept, got %q", se.Body)
	}
}

func TestStream(t *testing.T) {
	data := []byte("Hello, World! This is test data for a streamed feed.")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Auth-Token") != "token-1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write(data)
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	resp, err := client.Stream(context.Background(), server.URL, http.Header{"X-Auth-Token": {"token-1"}})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != int64(len(data)) {
		t.Errorf("expected content length %d, got %d", len(data), resp.ContentLength)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != string(data) {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestStreamUnknownLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flushing before the handler returns forces chunked encoding.
		w.Write([]byte("part one,"))
		w.(http.Flusher).Flush()
		w.Write([]byte("part two"))
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	resp, err := client.Stream(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != -1 {
		t.Errorf("expected unknown content length, got %d", resp.ContentLength)
	}
}

func TestStreamForbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	_, err := client.Stream(context.Background(), server.URL, nil)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if StatusCode(err) != http.StatusForbidden {
		t.Errorf("expected StatusCode 403, got %d", StatusCode(err))
	}
}

func TestNoRetryOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	_, err := client.Stream(context.Background(), server.URL, nil)
	if !errors.Is(err, ErrServerError) {
		t.Errorf("expected ErrServerError, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", attempts)
	}
}

func TestUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.UserAgent = "nrdp-test/1.0"
	client := NewClient(opts)

	resp, err := client.Stream(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	resp.Body.Close()

	if got != "nrdp-test/1.0" {
		t.Errorf("expected user agent nrdp-test/1.0, got %q", got)
	}
}

func TestCheckStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected error
	}{
		{200, nil},
		{204, nil},
		{401, ErrUnauthorized},
		{403, ErrForbidden},
		{404, ErrNotFound},
		{500, ErrServerError},
		{503, ErrServerError},
		{418, ErrUnexpected},
	}

	for _, tt := range tests {
		if err := checkStatusCode(tt.code); err != tt.expected {
			t.Errorf("checkStatusCode(%d) = %v, want %v", tt.code, err, tt.expected)
		}
	}
}

func TestStatusCodeOfOtherError(t *testing.T) {
	if code := StatusCode(errors.New("boom")); code != 0 {
		t.Errorf("expected 0, got %d", code)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(DefaultOptions())
	_, err := client.Stream(ctx, server.URL, nil)
	if err == nil {
		t.Error("expected error due to context cancellation")
	}
}
