// Package services defines shared utilities consumed by the backend client,
// the voice turn controller, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp interview IDs and correlation identifiers for
//     logging and request tracing.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is, and Hint which turns a classification into the
//     next step shown to the user.
package services
