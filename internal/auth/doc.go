// Package auth exchanges portal credentials for a session token.
//
// [Authenticator.Authenticate] performs a single form-encoded POST to
// {base}/authenticate and asks for a JSON response. The response body is kept
// verbatim in [Session.Raw]; its "token" field becomes [Session.Token] and is
// sent by every feed transfer as the X-Auth-Token header. A missing token is
// not an error here: the portal rejects the downloads instead.
//
// Non-success responses are returned as [*AuthenticationError]. There is no
// retry.
package auth
