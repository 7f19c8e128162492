// Package voice implements the spoken interview turn loop: microphone
// capture with a live level meter, answer upload, and prompt playback, all
// sequenced by Controller so the microphone and speaker are never active at
// the same time and only one answer is ever in flight.
package voice
