// Package transfer streams one feed from the portal to a local file.
//
// A [Task] issues a single GET carrying the session token, then copies the
// response body to disk through a fixed-size buffer so memory use does not
// depend on the feed size. After each successful write the task publishes an
// Advanced event with the number of bytes written; when the response declares
// its length a TotalKnown event is published first.
//
// The local file is created only once the portal has answered with success
// and is truncated, so a re-run overwrites it. A failure part-way through the
// body leaves the partially written file in place.
package transfer
