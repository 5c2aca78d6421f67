package main

import (
	"fmt"
	"os"
	"strings"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitAuthFailed       = 3
	ExitDownloadFailed   = 4
	ExitStorageError     = 5
	ExitValidationFailed = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	// Bare flags mean download.
	if strings.HasPrefix(command, "-") && command != "-h" && command != "--help" {
		return runDownload(args)
	}

	switch command {
	case "download":
		return runDownload(cmdArgs)
	case "login":
		return runLogin(cmdArgs)
	case "feeds":
		return runFeeds(cmdArgs)
	case "mirror":
		return runMirror(cmdArgs)
	case "validate":
		return runValidate(cmdArgs)
	case "delete":
		return runDelete(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(stderr, `Usage: nrdp <command> [options]

Commands:
  download  Log in to the National Rail Data Portal and download feeds
  login     Check credentials and print the session details
  feeds     List the available feeds and their URLs
  mirror    Copy downloaded feed files to object storage
  validate  Compare mirrored feed files with the local copies
  delete    Remove mirrored feed files from object storage

Running 'nrdp -fares fares.zip ...' is the same as 'nrdp download -fares fares.zip ...'.
Run 'nrdp <command> -h' for command-specific help.`)
}
