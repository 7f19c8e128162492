// Package credentials persists the backend sign-in token and exposes it to
// the HTTP client through a process-wide Context.
package credentials
