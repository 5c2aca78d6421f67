// Package downloader coordinates a download run: one login followed by one
// concurrent transfer per requested feed.
//
// # Usage
//
// The main entry point is the Download function:
//
//	res, err := downloader.Download(ctx, creds, feed.BuildRequests(paths), downloader.Options{
//	    Progress: reporter,
//	})
//
// Download rejects an empty request set before any network activity, then
// authenticates exactly once. An authentication failure is returned as-is and
// no transfer is started.
//
// # Transfers
//
// Every request gets its own goroutine and its own transfer.Task. Tasks share
// the session token read-only and report progress through the configured
// progress.Sink under distinct task IDs. A failing task does not cancel its
// siblings: the coordinator waits for all of them and then reports every
// failure together in a *TransferFailedError.
//
// Files from failed transfers are left where they are.
package downloader
