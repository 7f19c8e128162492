package testsupport

import (
	"math"
	"testing"

	"prepcoach/internal/audio"
)

// ToneWAV returns a mono PCM16 WAV of a 440 Hz tone lasting frames samples.
func ToneWAV(t testing.TB, frames, sampleRate int) []byte {
	t.Helper()

	if frames <= 0 {
		t.Fatalf("ToneWAV: frames must be positive, got %d", frames)
	}
	samples := make([]int16, frames)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}
	return audio.EncodeWAV(audio.Int16ToBytes(samples), sampleRate, 1)
}
