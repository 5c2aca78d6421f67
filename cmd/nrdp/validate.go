package main

import (
	"fmt"

	"github.com/ligustah/nrdp/pkg/mirror"
)

// runValidate compares mirrored feeds with the local files by size and
// stored checksum.
func runValidate(args []string) int {
	c := newStorageCommand("validate", "compare")
	c.fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: nrdp validate [options]

Check that each mirrored feed exists and matches the local file.

Options:`)
		c.fs.PrintDefaults()
	}

	ctx, cancel := signalContext()
	defer cancel()

	_, reqs, target, code := c.setup(ctx, args)
	if code != ExitSuccess {
		return code
	}
	defer target.bucket.Close()

	code = ExitSuccess
	for _, req := range reqs {
		key := target.key(req)

		result, err := mirror.Validate(ctx, target.bucket, key, req.LocalPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitStorageError
		}

		fmt.Fprintf(stdout, "Feed: %s\n", req.Feed)
		fmt.Fprintf(stdout, "Object: %s\n", key)
		fmt.Fprintf(stdout, "Local size: %d bytes\n", result.LocalSize)

		if result.Valid {
			fmt.Fprintln(stdout, "Status: VALID")
			fmt.Fprintln(stdout)
			continue
		}

		fmt.Fprintln(stdout, "Status: INVALID")
		for _, e := range result.Errors {
			fmt.Fprintf(stdout, "  - %s\n", e)
		}
		fmt.Fprintln(stdout)
		code = ExitValidationFailed
	}

	return code
}
