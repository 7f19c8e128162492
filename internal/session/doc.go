// Package session models an interview conversation: an ordered, append-only
// list of turns plus a one-way completion flag.
package session
