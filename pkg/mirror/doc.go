// Package mirror copies downloaded feed files into object storage.
//
// Storage is accessed through gocloud.dev/blob, so any bucket URL the caller
// has registered a driver for works (gs://, s3://, file://, mem://).
//
// # Upload
//
// [Upload] streams a local file into a single object. By default it records
// the file's SHA256 in the object metadata so that [Validate] can detect
// content drift later.
//
// Options:
//   - [WithMetadata]: Caller-defined metadata stored on the object (optional)
//   - [WithContentType]: Content type of the object (optional)
//   - [WithBufferSize]: Upload buffer size (optional)
//   - [WithChecksum]: Compute and store the SHA256 (default: true)
//
// # Validation
//
// [Validate] compares a mirrored object against the local file by size and,
// when a checksum was stored, by SHA256. A missing object is reported in the
// result, not as an error.
//
// # Storage Layout
//
//	{bucket}/{prefix}/{feed}/{file name}
//
// See example_test.go for usage examples.
package mirror
