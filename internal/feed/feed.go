package feed

import (
	"fmt"
	"strings"
)

// Feed names one of the static data files offered by the portal.
type Feed string

const (
	Fares     Feed = "fares"
	Routeing  Feed = "routeing"
	Timetable Feed = "timetable"
)

// DefaultBaseURL is the data portal all feed paths are relative to.
const DefaultBaseURL = "https://opendata.nationalrail.co.uk"

var paths = map[Feed]string{
	Fares:     "/api/staticfeeds/2.0/fares",
	Routeing:  "/api/staticfeeds/2.0/routeing",
	Timetable: "/api/staticfeeds/3.0/timetable",
}

// All returns every known feed in a stable order.
func All() []Feed {
	return []Feed{Fares, Routeing, Timetable}
}

// Parse resolves a feed by name, ignoring case and surrounding whitespace.
func Parse(s string) (Feed, error) {
	f := Feed(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := paths[f]; !ok {
		return "", fmt.Errorf("feed: unknown feed %q", s)
	}
	return f, nil
}

// Path returns the remote path of the feed relative to the portal base URL.
// Unknown feeds return an empty string.
func (f Feed) Path() string {
	return paths[f]
}

func (f Feed) String() string {
	return string(f)
}

// Request is one feed to download and the local file it is written to.
type Request struct {
	Feed       Feed
	LocalPath  string
	RemotePath string
}

// NewRequest returns the request for writing f to localPath.
func NewRequest(f Feed, localPath string) Request {
	return Request{
		Feed:       f,
		LocalPath:  localPath,
		RemotePath: f.Path(),
	}
}

// URL joins the request's remote path onto baseURL.
func (r Request) URL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + r.RemotePath
}

// BuildRequests turns a feed-to-path mapping into requests. Feeds with an
// empty path are not requested. The result follows the order of All and may
// be empty; rejecting an empty set is left to the caller.
func BuildRequests(localPaths map[Feed]string) []Request {
	var reqs []Request
	for _, f := range All() {
		if p := localPaths[f]; p != "" {
			reqs = append(reqs, NewRequest(f, p))
		}
	}
	return reqs
}
