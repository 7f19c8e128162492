// Package device binds the voice controller's microphone and speaker ports to
// PortAudio. Callers must Initialize before opening streams.
package device
