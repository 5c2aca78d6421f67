package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	logger "github.com/Bparsons0904/goLogger"

	nrdphttp "github.com/ligustah/nrdp/internal/http"
)

// ErrMissingCredentials is returned when the username or password is empty.
var ErrMissingCredentials = errors.New("auth: username and password are required")

// tokenField is the response field holding the session token.
const tokenField = "token"

// Credentials are the portal login. They are never persisted or logged.
type Credentials struct {
	Username string
	Password string
}

// Validate reports whether both fields are present.
func (c Credentials) Validate() error {
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// String keeps the password out of formatted output.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username: %q, Password: <redacted>}", c.Username)
}

// Session is the result of a successful login.
type Session struct {
	// Token is empty when the response carried no usable token.
	Token string

	// Raw is the decoded response body.
	Raw map[string]any
}

// Info returns the response fields other than the token, for display.
func (s *Session) Info() map[string]any {
	info := make(map[string]any, len(s.Raw))
	for k, v := range s.Raw {
		if k == tokenField {
			continue
		}
		info[k] = v
	}
	return info
}

// AuthenticationError is returned when the portal rejects the login.
type AuthenticationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("authentication failed: %v", e.Err)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("authentication failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("authentication failed: status %d: %s", e.StatusCode, body)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Options configures an Authenticator.
type Options struct {
	// BaseURL is the portal root; "/authenticate" is appended.
	BaseURL string

	// Logger defaults to a logger named "auth".
	Logger logger.Logger
}

// Authenticator logs in to the portal.
type Authenticator struct {
	client *nrdphttp.Client
	opts   Options
	log    logger.Logger
}

// NewAuthenticator creates an Authenticator that sends its request through client.
func NewAuthenticator(client *nrdphttp.Client, opts Options) *Authenticator {
	log := opts.Logger
	if log == nil {
		log = logger.New("auth")
	}
	return &Authenticator{
		client: client,
		opts:   opts,
		log:    log,
	}
}

// Authenticate exchanges creds for a Session with one request.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	log := a.log.Function("Authenticate")

	if err := creds.Validate(); err != nil {
		return nil, err
	}

	endpoint := strings.TrimSuffix(a.opts.BaseURL, "/") + "/authenticate"
	form := url.Values{
		"username": {creds.Username},
		"password": {creds.Password},
	}
	header := http.Header{"Accept": {"application/json"}}

	log.Debug("Logging in", "endpoint", endpoint)

	resp, err := a.client.PostForm(ctx, endpoint, form, header)
	if err != nil {
		var se *nrdphttp.StatusError
		if errors.As(err, &se) {
			return nil, log.Err("login rejected", &AuthenticationError{
				StatusCode: se.StatusCode,
				Body:       se.Body,
				Err:        err,
			}, "status", se.StatusCode)
		}
		return nil, log.Err("login request failed", &AuthenticationError{Err: err})
	}

	raw := make(map[string]any)
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, log.Err("decode login response", &AuthenticationError{
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Err:        fmt.Errorf("decode response: %w", err),
		})
	}

	token, _ := raw[tokenField].(string)
	if token == "" {
		log.Warn("Login response has no token", "fields", len(raw))
	}

	log.Info("Logged in")

	return &Session{
		Token: token,
		Raw:   raw,
	}, nil
}
