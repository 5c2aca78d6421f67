// Package http provides the HTTP client used to talk to the data portal.
//
// This package handles:
//   - Connection pooling shared by concurrent feed transfers
//   - Form-encoded POST requests with fully buffered responses
//   - Streamed GET requests for large response bodies
//   - Mapping non-success status codes to typed errors
//
// Requests are attempted exactly once. Callers decide what a failure means.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	resp, err := client.PostForm(ctx, baseURL+"/authenticate", form, header)
//	// resp.StatusCode, resp.Body
//
//	stream, err := client.Stream(ctx, url, header)
//	defer stream.Body.Close()
//	// stream.ContentLength is -1 when the server did not declare it
package http
