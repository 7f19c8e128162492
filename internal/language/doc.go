// Package language normalizes interview language codes.
//
// The backend accepts "en", "ru", and "kz". Users may type BCP 47 tags,
// ISO 639-2 codes, or English names; everything resolves through one table
// backed by golang.org/x/text tags so display names and speech synthesizer
// codes stay consistent.
package language
