package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/ligustah/nrdp/pkg/mirror"
)

// runDelete removes mirrored feeds from object storage.
// By default prompts for confirmation unless -force is specified.
func runDelete(args []string) int {
	c := newStorageCommand("delete", "locate")
	force := c.fs.Bool("force", false, "Skip confirmation prompt")
	c.fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: nrdp delete [options]

Remove mirrored feeds from object storage. Local files are not touched;
their names only determine the object keys.

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

	if !*force {
		keys := make([]string, 0, len(reqs))
		for _, req := range reqs {
			keys = append(keys, target.key(req))
		}
		fmt.Fprintf(stdout, "Delete %s from %s? [y/N]: ", strings.Join(keys, ", "), target.url)
		reader := bufio.NewReader(stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(stderr, "Cancelled")
			return ExitSuccess
		}
	}

	for _, req := range reqs {
		key := target.key(req)
		if err := mirror.Delete(ctx, target.bucket, key); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		statusf("Deleted: %s/%s", target.url, key)
	}

	return ExitSuccess
}
