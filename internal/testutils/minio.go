//go:build integration

package testutils

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/wait"
	"gocloud.dev/blob"
)

const (
	minioImage  = "minio/minio:latest"
	minioPort   = "9000/tcp"
	minioUser   = "nrdp-test"
	minioSecret = "nrdp-test-secret"
	minioRegion = "us-east-1"
)

// ObjectStore is a throwaway S3-compatible bucket for mirror tests.
type ObjectStore struct {
	// URL opens the bucket through gocloud's s3blob driver.
	URL string

	// Endpoint is the host:port the S3 API listens on.
	Endpoint string

	container testcontainers.Container
}

// Close stops the backing container.
func (s *ObjectStore) Close(ctx context.Context) error {
	if s.container == nil {
		return nil
	}
	return s.container.Terminate(ctx)
}

// OpenBucket opens the store's bucket.
func (s *ObjectStore) OpenBucket(ctx context.Context) (*blob.Bucket, error) {
	return blob.OpenBucket(ctx, s.URL)
}

// StartObjectStore runs a single MinIO server, creates bucket inside it with
// the bundled mc client and exports matching AWS credentials for the test.
func StartObjectStore(t *testing.T, ctx context.Context, bucket string) *ObjectStore {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        minioImage,
			ExposedPorts: []string{minioPort},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioSecret,
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort(minioPort),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start object store: %v", err)
	}

	store := &ObjectStore{container: container}

	mc := [][]string{
		{"mc", "alias", "set", "local", "http://127.0.0.1:9000", minioUser, minioSecret},
		{"mc", "mb", "--ignore-existing", "local/" + bucket},
	}
	for _, cmd := range mc {
		if err := execIn(ctx, container, cmd); err != nil {
			store.Close(ctx)
			t.Fatalf("create bucket %s: %v", bucket, err)
		}
	}

	host, err := container.Host(ctx)
	if err != nil {
		store.Close(ctx)
		t.Fatalf("object store host: %v", err)
	}
	port, err := container.MappedPort(ctx, minioPort)
	if err != nil {
		store.Close(ctx)
		t.Fatalf("object store port: %v", err)
	}
	store.Endpoint = fmt.Sprintf("%s:%s", host, port.Port())

	t.Setenv("AWS_ACCESS_KEY_ID", minioUser)
	t.Setenv("AWS_SECRET_ACCESS_KEY", minioSecret)

	q := url.Values{}
	q.Set("endpoint", "http://"+store.Endpoint)
	q.Set("use_path_style", "true")
	q.Set("disable_https", "true")
	q.Set("region", minioRegion)
	store.URL = (&url.URL{Scheme: "s3", Host: bucket, RawQuery: q.Encode()}).String()

	return store
}

// execIn runs cmd inside c and fails on a non-zero exit code.
func execIn(ctx context.Context, c testcontainers.Container, cmd []string) error {
	code, out, err := c.Exec(ctx, cmd, tcexec.Multiplexed())
	if err != nil {
		return err
	}
	if code != 0 {
		msg, _ := io.ReadAll(out)
		return fmt.Errorf("%v exited %d: %s", cmd, code, msg)
	}
	return nil
}
