package main

import (
	"context"
	"flag"
	"fmt"

	logger "github.com/Bparsons0904/goLogger"
	"gocloud.dev/blob"

	"github.com/ligustah/nrdp/internal/config"
	"github.com/ligustah/nrdp/internal/feed"
	"github.com/ligustah/nrdp/pkg/mirror"
)

// mirrorTarget is an open mirror bucket plus the key prefix feeds go under.
type mirrorTarget struct {
	bucket *blob.Bucket
	url    string
	prefix string
}

func (m *mirrorTarget) key(req feed.Request) string {
	return mirror.Key(m.prefix, req.Feed.String(), req.LocalPath)
}

// upload copies each file in turn and stops at the first failure.
func (m *mirrorTarget) upload(ctx context.Context, files []feed.Request, log logger.Logger) error {
	log = log.Function("upload")

	for _, req := range files {
		key := m.key(req)
		obj, err := mirror.Upload(ctx, m.bucket, key, req.LocalPath,
			mirror.WithMetadata(map[string]string{"feed": req.Feed.String()}),
		)
		if err != nil {
			return log.Err("mirror failed", err, "feed", req.Feed.String(), "key", key)
		}
		log.Info("Mirrored feed", "feed", req.Feed.String(), "key", key, "bytes", obj.Size)
		statusf("Mirrored %s to %s/%s", req.Feed, m.url, obj.Key)
	}
	return nil
}

// storageCommand parses the flags shared by mirror, validate and delete and
// opens the bucket.
type storageCommand struct {
	fs     *flag.FlagSet
	cf     configFlags
	ff     feedFlags
	bucket *string
	prefix *string
}

func newStorageCommand(name, verb string) *storageCommand {
	c := &storageCommand{fs: flag.NewFlagSet(name, flag.ExitOnError)}
	c.cf.register(c.fs)
	c.ff.register(c.fs, verb)
	c.bucket = c.fs.String("bucket", "", "Mirror bucket URL (gs://, s3://, file://)")
	c.prefix = c.fs.String("prefix", "", "Object key prefix")
	return c
}

// setup parses args and returns the configuration, the requested feeds and
// an open mirror. It returns a non-zero exit code on failure.
func (c *storageCommand) setup(ctx context.Context, args []string) (config.Config, []feed.Request, *mirrorTarget, int) {
	if err := c.fs.Parse(args); err != nil {
		return config.Config{}, nil, nil, ExitInvalidArgs
	}

	override := config.Config{Mirror: config.MirrorConfig{Bucket: *c.bucket, Prefix: *c.prefix}}
	c.ff.apply(&override)

	cfg, err := c.cf.load(override)
	if err != nil {
		return cfg, nil, nil, usageError(err)
	}
	if cfg.Mirror.Bucket == "" {
		c.fs.Usage()
		return cfg, nil, nil, usageError(errNoBucket)
	}

	reqs, ok := requestsOrUsage(c.fs, cfg)
	if !ok {
		return cfg, nil, nil, ExitInvalidArgs
	}

	bkt, err := openBucket(ctx, cfg.Mirror.Bucket)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return cfg, nil, nil, ExitStorageError
	}

	return cfg, reqs, &mirrorTarget{bucket: bkt, url: cfg.Mirror.Bucket, prefix: cfg.Mirror.Prefix}, ExitSuccess
}

// runMirror copies already downloaded feed files to object storage.
func runMirror(args []string) int {
	c := newStorageCommand("mirror", "upload")
	c.fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: nrdp mirror [options]

Copy downloaded feed files to object storage under
{prefix}/{feed}/{file name}. The SHA256 of each file is stored with it.

Options:`)
		c.fs.PrintDefaults()
	}

	ctx, cancel := signalContext()
	defer cancel()

	cfg, reqs, target, code := c.setup(ctx, args)
	if code != ExitSuccess {
		return code
	}
	defer target.bucket.Close()

	if err := target.upload(ctx, reqs, newLogger(cfg)); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	return ExitSuccess
}
