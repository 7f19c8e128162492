// Package speech provides on-device speech synthesis, used when the backend
// returns a prompt without audio or its audio cannot be played.
package speech
