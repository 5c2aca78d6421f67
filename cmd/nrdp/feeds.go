package main

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/ligustah/nrdp/internal/feed"
)

// runFeeds lists the known feeds and where they are downloaded from.
func runFeeds(args []string) int {
	fs := flag.NewFlagSet("feeds", flag.ExitOnError)
	baseURL := fs.String("base-url", feed.DefaultBaseURL, "Data portal base URL")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: nrdp feeds [options]

List the feeds that can be downloaded and their URLs.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FEED\tFLAG\tURL")
	for _, f := range feed.All() {
		fmt.Fprintf(w, "%s\t-%s\t%s\n", f, f, feed.NewRequest(f, "").URL(*baseURL))
	}
	w.Flush()

	return ExitSuccess
}
