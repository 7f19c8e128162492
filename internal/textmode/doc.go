// Package textmode runs a typed interview: the same turn rules as a voice
// session (ordered, append-only, one answer in flight, terminal completion)
// without audio.
package textmode
