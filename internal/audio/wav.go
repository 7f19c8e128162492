package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const wavHeaderSize = 44

// WAVContentType is the MIME type of encoded recordings.
const WAVContentType = "audio/wav"

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// EncodeWAV wraps little-endian PCM16 bytes in a canonical 44-byte WAV header.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	dataSize := len(pcm)
	byteRate := sampleRate * channels * BitsPerSample / 8
	blockAlign := channels * BitsPerSample / 8

	wav := make([]byte, wavHeaderSize+dataSize)
	copy(wav[0:4], "RIFF")
	binary.LittleEndian.PutUint32(wav[4:8], uint32(36+dataSize))
	copy(wav[8:12], "WAVE")

	copy(wav[12:16], "fmt ")
	binary.LittleEndian.PutUint32(wav[16:20], 16)
	binary.LittleEndian.PutUint16(wav[20:22], 1)
	binary.LittleEndian.PutUint16(wav[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(wav[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(wav[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(wav[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(wav[34:36], BitsPerSample)

	copy(wav[36:40], "data")
	binary.LittleEndian.PutUint32(wav[40:44], uint32(dataSize))
	copy(wav[44:], pcm)
	return wav
}

// DecodeWAV parses a RIFF/WAVE file carrying 16-bit PCM. Unknown chunks
// (LIST, fact, ...) are skipped.
func DecodeWAV(data []byte) (Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrUnsupportedFormat)
	}
	var (
		clip     Clip
		haveFmt  bool
		haveData bool
	)
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		end := body + size
		if size < 0 || end > len(data) {
			// Streaming writers leave the data size unset; take what is there.
			if id != "data" {
				return Clip{}, fmt.Errorf("%w: truncated %q chunk", ErrUnsupportedFormat, id)
			}
			end = len(data)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedFormat)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if (format != 1 && format != 0xFFFE) || bits != BitsPerSample {
				return Clip{}, fmt.Errorf("%w: format %d with %d bits", ErrUnsupportedFormat, format, bits)
			}
			clip.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			clip.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			haveFmt = true
		case "data":
			clip.Samples = BytesToInt16(data[body:end])
			haveData = true
		}
		offset = end + end%2
	}
	if !haveFmt || !haveData {
		return Clip{}, fmt.Errorf("%w: missing fmt or data chunk", ErrUnsupportedFormat)
	}
	if clip.Channels <= 0 || clip.SampleRate <= 0 {
		return Clip{}, fmt.Errorf("%w: invalid channel count or sample rate", ErrUnsupportedFormat)
	}
	return clip, nil
}
