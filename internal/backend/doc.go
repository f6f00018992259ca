// Package backend is a client for the bot backend's REST API.
//
// Every call classifies failures with the core error codes:
//   - core.ErrTransport: no response, HTTP status >= 400, or an undecodable body
//   - core.ErrBackend: the backend answered with status "error"
//   - core.ErrNoData: a successful answer without any bars
//
// Requests are never retried; the caller's poll cadence is the retry.
package backend
