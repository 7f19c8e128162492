// Package backend is the HTTP client for the interview backend REST API.
//
// Every request passes through a small transport pipeline that adds the
// bearer token, user agent, and X-Request-ID header. Idempotent GETs retry
// transient failures with exponential backoff; POSTs (answers, starts,
// completions) are sent exactly once so a retry never duplicates a turn.
// Non-2xx responses surface as *StatusError, which unwraps to the matching
// marker in package services.
package backend
