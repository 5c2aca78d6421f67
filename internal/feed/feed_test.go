package feed

import "testing"

func TestPath(t *testing.T) {
	tests := []struct {
		feed     Feed
		expected string
	}{
		{Fares, "/api/staticfeeds/2.0/fares"},
		{Routeing, "/api/staticfeeds/2.0/routeing"},
		{Timetable, "/api/staticfeeds/3.0/timetable"},
		{Feed("nope"), ""},
	}

	for _, tt := range tests {
		if got := tt.feed.Path(); got != tt.expected {
			t.Errorf("%s.Path() = %q, want %q", tt.feed, got, tt.expected)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Feed
		wantErr bool
	}{
		{"fares", Fares, false},
		{" Routeing ", Routeing, false},
		{"TIMETABLE", Timetable, false},
		{"routing", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuildRequests(t *testing.T) {
	reqs := BuildRequests(map[Feed]string{
		Timetable: "timetable.zip",
		Fares:     "fares.zip",
		Routeing:  "",
	})

	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].Feed != Fares || reqs[0].LocalPath != "fares.zip" {
		t.Errorf("unexpected first request: %+v", reqs[0])
	}
	if reqs[1].Feed != Timetable || reqs[1].RemotePath != "/api/staticfeeds/3.0/timetable" {
		t.Errorf("unexpected second request: %+v", reqs[1])
	}
}

func TestBuildRequestsEmpty(t *testing.T) {
	if reqs := BuildRequests(nil); len(reqs) != 0 {
		t.Errorf("expected no requests, got %d", len(reqs))
	}
	if reqs := BuildRequests(map[Feed]string{Fares: ""}); len(reqs) != 0 {
		t.Errorf("expected no requests for empty paths, got %d", len(reqs))
	}
}

func TestRequestURL(t *testing.T) {
	r := NewRequest(Fares, "fares.zip")

	if got := r.URL(DefaultBaseURL); got != "https://opendata.nationalrail.co.uk/api/staticfeeds/2.0/fares" {
		t.Errorf("unexpected URL: %s", got)
	}
	if got := r.URL("http://127.0.0.1:8080/"); got != "http://127.0.0.1:8080/api/staticfeeds/2.0/fares" {
		t.Errorf("unexpected URL with trailing slash: %s", got)
	}
}
