package audio

import (
	"bytes"
	"fmt"
	"strings"
)

// Decode turns an encoded payload into a playable clip. format may be a MIME
// type ("audio/mp3", "audio/mpeg", "audio/wav", "audio/pcm16;rate=24000") or
// a bare extension; when it is empty or unrecognised the payload is sniffed.
// Headerless PCM is never sniffed and must be declared.
func Decode(data []byte, format string) (Clip, error) {
	if len(data) == 0 {
		return Clip{}, fmt.Errorf("%w: empty payload", ErrUnsupportedFormat)
	}
	switch normalizeFormat(format) {
	case "wav":
		return DecodeWAV(data)
	case "mp3":
		return DecodeMP3(data)
	case "pcm16":
		rate, channels := pcmParams(format)
		return DecodePCM16(data, rate, channels)
	}
	switch Sniff(data) {
	case "wav":
		return DecodeWAV(data)
	case "mp3":
		return DecodeMP3(data)
	}
	return Clip{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Sniff guesses the container from magic bytes: "wav", "mp3", or "".
func Sniff(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return "wav"
	case len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")):
		return "mp3"
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "mp3"
	default:
		return ""
	}
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if i := strings.Index(format, ";"); i >= 0 {
		format = strings.TrimSpace(format[:i])
	}
	format = strings.TrimPrefix(format, "audio/")
	format = strings.TrimPrefix(format, ".")
	switch format {
	case "wav", "wave", "x-wav", "vnd.wave":
		return "wav"
	case "mp3", "mpeg", "mpeg3", "x-mpeg-3":
		return "mp3"
	case "pcm16", "pcm", "l16", "x-pcm16", "pcm_s16le", "s16le":
		return "pcm16"
	default:
		return ""
	}
}
