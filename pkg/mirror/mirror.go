package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Metadata keys written by Upload.
const (
	MetaSHA256     = "sha256"
	MetaSourceFile = "source_file"
)

// DefaultContentType is used when WithContentType is not given.
const DefaultContentType = "application/octet-stream"

// Object describes an uploaded object.
type Object struct {
	Key      string
	Size     int64
	SHA256   string // empty when checksums are disabled
	Metadata map[string]string
}

// Options configures mirror operations.
type Options struct {
	Metadata        map[string]string
	ContentType     string
	BufferSize      int
	ComputeChecksum bool
}

// Option is a functional option for configuring mirror operations.
type Option func(*Options)

// WithMetadata sets caller-defined metadata stored on the object. Keys are
// lowercased by most providers.
func WithMetadata(metadata map[string]string) Option {
	return func(o *Options) {
		o.Metadata = metadata
	}
}

// WithContentType sets the object's content type.
func WithContentType(contentType string) Option {
	return func(o *Options) {
		o.ContentType = contentType
	}
}

// WithBufferSize sets the driver's upload buffer size. Zero leaves the
// driver default.
func WithBufferSize(size int) Option {
	return func(o *Options) {
		o.BufferSize = size
	}
}

// WithChecksum enables or disables SHA256 computation during uploads.
// Default is true.
func WithChecksum(compute bool) Option {
	return func(o *Options) {
		o.ComputeChecksum = compute
	}
}

// Key returns the object key for a feed file: prefix/feed/base name of
// localPath. An empty prefix is omitted.
func Key(prefix, feedName, localPath string) string {
	return path.Join(strings.Trim(prefix, "/"), feedName, filepath.Base(localPath))
}

// Upload copies the file at localPath to key in bucket, replacing any
// existing object.
//
// Returns an error if:
//   - The local file cannot be opened or read
//   - The object cannot be written (permission denied, network error)
//   - The context is cancelled (context.Canceled or context.DeadlineExceeded)
//
// A failed upload leaves no new object behind.
func Upload(ctx context.Context, bucket *blob.Bucket, key, localPath string, opts ...Option) (*Object, error) {
	o := Options{ComputeChecksum: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ContentType == "" {
		o.ContentType = DefaultContentType
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("mirror: open %s: %w", localPath, err)
	}
	defer f.Close()

	metadata := make(map[string]string, len(o.Metadata)+2)
	for k, v := range o.Metadata {
		metadata[k] = v
	}
	metadata[MetaSourceFile] = filepath.Base(localPath)

	// Metadata is fixed when the writer opens, so the checksum is computed
	// in a first pass.
	var sum string
	if o.ComputeChecksum {
		sum, err = checksum(f)
		if err != nil {
			return nil, fmt.Errorf("mirror: checksum %s: %w", localPath, err)
		}
		metadata[MetaSHA256] = sum
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("mirror: rewind %s: %w", localPath, err)
		}
	}

	// Cancelling the writer's context aborts the upload on Close.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := bucket.NewWriter(wctx, key, &blob.WriterOptions{
		ContentType: o.ContentType,
		Metadata:    metadata,
		BufferSize:  o.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("mirror: create writer %s: %w", key, err)
	}

	n, err := io.Copy(w, f)
	if err != nil {
		cancel()
		w.Close()
		return nil, fmt.Errorf("mirror: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("mirror: close %s: %w", key, err)
	}

	return &Object{
		Key:      key,
		Size:     n,
		SHA256:   sum,
		Metadata: metadata,
	}, nil
}

// ValidationResult contains the results of comparing an object with a local file.
type ValidationResult struct {
	Valid            bool     // true if the object exists and matches
	Missing          bool     // true if the object does not exist
	LocalSize        int64    // size of the local file
	RemoteSize       int64    // size of the object
	ChecksumChecked  bool     // true if a stored checksum was compared
	ChecksumMismatch bool     // true if the stored checksum differs
	Errors           []string // detailed error messages
}

// Validate checks that the object at key matches the local file. It reads
// object attributes only; the local file is hashed when the object carries a
// checksum.
//
// Returns an error if:
//   - The local file cannot be read
//   - Cannot access object store attributes (network/permission error)
//   - The context is cancelled (context.Canceled or context.DeadlineExceeded)
//
// Note: A missing object or a mismatch is NOT returned as an error.
// Instead, it is reported in the ValidationResult with Valid=false.
func Validate(ctx context.Context, bucket *blob.Bucket, key, localPath string) (*ValidationResult, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("mirror: stat %s: %w", localPath, err)
	}

	result := &ValidationResult{
		Valid:     true,
		LocalSize: info.Size(),
		Errors:    make([]string, 0),
	}

	attrs, err := bucket.Attributes(ctx, key)
	if err != nil {
		if IsNotExist(err) {
			result.Valid = false
			result.Missing = true
			result.Errors = append(result.Errors, fmt.Sprintf("object missing: %s", key))
			return result, nil
		}
		return nil, fmt.Errorf("mirror: attributes %s: %w", key, err)
	}

	result.RemoteSize = attrs.Size
	if attrs.Size != info.Size() {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("size mismatch: local %d, remote %d", info.Size(), attrs.Size))
		return result, nil
	}

	stored := attrs.Metadata[MetaSHA256]
	if stored == "" {
		return result, nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("mirror: open %s: %w", localPath, err)
	}
	defer f.Close()

	sum, err := checksum(f)
	if err != nil {
		return nil, fmt.Errorf("mirror: checksum %s: %w", localPath, err)
	}

	result.ChecksumChecked = true
	if sum != stored {
		result.Valid = false
		result.ChecksumMismatch = true
		result.Errors = append(result.Errors,
			fmt.Sprintf("checksum mismatch: local %s, remote %s", sum, stored))
	}

	return result, nil
}

// Delete removes the object at key.
//
// Returns an error if:
//   - The object doesn't exist (error wraps gcerrors.NotFound)
//   - The object cannot be deleted (permission denied, network error)
//   - The context is cancelled (context.Canceled or context.DeadlineExceeded)
func Delete(ctx context.Context, bucket *blob.Bucket, key string) error {
	if err := bucket.Delete(ctx, key); err != nil {
		return fmt.Errorf("mirror: delete %s: %w", key, err)
	}
	return nil
}

// IsNotExist reports whether err means the object does not exist.
func IsNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}

func checksum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
