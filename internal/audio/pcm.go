package audio

import (
	"fmt"
	"strconv"
	"strings"
)

// Raw PCM16 carries no header; these apply unless the format declares
// rate= or channels= parameters.
const (
	DefaultPCMSampleRate = 24000
	DefaultPCMChannels   = 1
)

// DecodePCM16 wraps raw little-endian 16-bit samples in a clip.
func DecodePCM16(data []byte, sampleRate, channels int) (Clip, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultPCMSampleRate
	}
	if channels <= 0 {
		channels = DefaultPCMChannels
	}
	if len(data) == 0 {
		return Clip{}, fmt.Errorf("%w: empty pcm payload", ErrUnsupportedFormat)
	}
	if len(data)%(2*channels) != 0 {
		return Clip{}, fmt.Errorf("%w: pcm16 payload of %d bytes is not whole %d-channel frames", ErrUnsupportedFormat, len(data), channels)
	}
	return Clip{Samples: BytesToInt16(data), SampleRate: sampleRate, Channels: channels}, nil
}

// pcmParams reads rate= and channels= from a format such as
// "audio/L16;rate=16000;channels=1". Missing or invalid values yield 0.
func pcmParams(format string) (rate, channels int) {
	parts := strings.Split(format, ";")
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.Trim(strings.TrimSpace(value), `"`))
		if err != nil || n <= 0 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "rate":
			rate = n
		case "channels":
			channels = n
		}
	}
	return rate, channels
}
