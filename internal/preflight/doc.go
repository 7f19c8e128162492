// Package preflight provides readiness checks for the backend, local state
// directories, audio hardware, and the speech fallback that prepcoach
// depends on.
//
// The CLI "prepcoach doctor" command runs RunAll and renders the results;
// "prepcoach voice start" runs CheckBackend before requesting microphone
// access so an unreachable server is reported before any recording begins.
package preflight
