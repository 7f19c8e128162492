// Package audio holds the pure-Go audio codecs used by the voice client:
// PCM16 clips, WAV encoding and decoding, and MP3 decoding. Device I/O lives
// in the device subpackage so these helpers build without cgo.
package audio
