// Package logs reads prepcoach's daily log files for the `prepcoach logs`
// command.
//
// It locates the newest daily file, returns the last N lines with bounded
// memory, and follows appended lines by polling. An optional substring match
// narrows output to one interview id or event type.
package logs
