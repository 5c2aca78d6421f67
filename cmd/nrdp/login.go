package main

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/ligustah/nrdp/internal/auth"
	"github.com/ligustah/nrdp/internal/config"
	nrdphttp "github.com/ligustah/nrdp/internal/http"
)

// runLogin authenticates without downloading anything and prints the
// session details as JSON.
func runLogin(args []string) int {
	fs := flag.NewFlagSet("login", flag.ExitOnError)

	var cf configFlags
	cf.register(fs)
	baseURL := fs.String("base-url", "", "Data portal base URL")
	username := fs.String("username", "", "Portal username (prompted if omitted)")
	password := fs.String("password", "", "Portal password (prompted without echo if omitted)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: nrdp login [options]

Log in to the data portal and print the session details. The token is not
printed.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, err := cf.load(config.Config{BaseURL: *baseURL, Username: *username, Password: *password})
	if err != nil {
		return usageError(err)
	}

	creds, err := promptCredentials(auth.Credentials{Username: cfg.Username, Password: cfg.Password})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	ctx, cancel := signalContext()
	defer cancel()

	statusf("Logging in")

	client := nrdphttp.NewClient(cfg.HTTPOptions())
	sess, err := auth.NewAuthenticator(client, auth.Options{
		BaseURL: cfg.BaseURL,
		Logger:  newLogger(cfg),
	}).Authenticate(ctx, creds)
	if err != nil {
		fmt.Fprintf(stderr, "Could not log in: %v\n", err)
		return ExitAuthFailed
	}

	statusf("Logged in")
	if sess.Token == "" {
		statusf("Warning: the portal returned no token")
	}

	out, err := json.MarshalIndent(sess.Info(), "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	fmt.Fprintln(stdout, string(out))

	return ExitSuccess
}
