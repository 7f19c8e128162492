// Package main hosts the prepcoach CLI entrypoint and command graph.
//
// The Cobra-based command tree signs users in, starts and resumes voice and
// text interviews, and renders history, reports, and progress from the
// interview backend. It centralizes configuration resolution, credential
// loading, backend client construction, and structured logging setup so
// subcommands can focus on the terminal experience.
//
// Keep this package lean: the turn loop, audio, and REST client live in
// internal packages; commands here only wire them to the terminal.
package main
