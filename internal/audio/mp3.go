package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// mp3Channels is fixed: go-mp3 always emits interleaved stereo PCM16.
const mp3Channels = 2

// DecodeMP3 decodes an MP3 stream into a stereo clip.
func DecodeMP3(data []byte) (Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("%w: mp3: %w", ErrUnsupportedFormat, err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return Clip{}, fmt.Errorf("decode mp3: %w", err)
	}
	return Clip{
		Samples:    BytesToInt16(pcm),
		SampleRate: dec.SampleRate(),
		Channels:   mp3Channels,
	}, nil
}
