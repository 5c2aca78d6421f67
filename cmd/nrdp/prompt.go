package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ligustah/nrdp/internal/auth"
)

// promptCredentials asks for whichever of the username and password is
// missing. The password is read without echo when stdin is a terminal.
func promptCredentials(creds auth.Credentials) (auth.Credentials, error) {
	if creds.Username != "" && creds.Password != "" {
		return creds, nil
	}

	reader := bufio.NewReader(stdin)

	if creds.Username == "" {
		fmt.Fprint(stderr, "Username: ")
		line, err := readLine(reader)
		if err != nil {
			return creds, fmt.Errorf("read username: %w", err)
		}
		creds.Username = line
	}

	if creds.Password == "" {
		fmt.Fprint(stderr, "Password: ")
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			pw, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(stderr)
			if err != nil {
				return creds, fmt.Errorf("read password: %w", err)
			}
			creds.Password = string(pw)
		} else {
			line, err := readLine(reader)
			if err != nil {
				return creds, fmt.Errorf("read password: %w", err)
			}
			creds.Password = line
		}
	}

	return creds, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
