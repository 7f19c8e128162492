package device

import (
	"context"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"prepcoach/internal/audio"
	"prepcoach/internal/logging"
)

const defaultOutputFrames = 1024

// Speaker plays clips through a blocking PortAudio output stream.
type Speaker struct {
	device string
	frames int
	logger *slog.Logger
}

// NewSpeaker returns a Speaker for the named output device ("" for default).
func NewSpeaker(deviceName string, framesPerBuffer int, logger *slog.Logger) *Speaker {
	if framesPerBuffer <= 0 {
		framesPerBuffer = defaultOutputFrames
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Speaker{device: deviceName, frames: framesPerBuffer, logger: logger}
}

// Play blocks until clip has been written or ctx is cancelled, in which case
// the stream is aborted and ctx.Err is returned.
func (s *Speaker) Play(ctx context.Context, clip audio.Clip) error {
	if clip.Empty() {
		return nil
	}
	info, err := lookup(s.device, output)
	if err != nil {
		return mapError("open speaker", err)
	}
	if clip.Channels > info.MaxOutputChannels {
		clip = clip.Mono()
	}

	buf := make([]int16, s.frames*clip.Channels)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: clip.Channels,
			Latency:  info.DefaultHighOutputLatency,
		},
		SampleRate:      float64(clip.SampleRate),
		FramesPerBuffer: s.frames,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return mapError("open speaker", err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return mapError("start speaker", err)
	}
	s.logger.DebugContext(ctx, "playing prompt audio",
		logging.String("device", info.Name),
		logging.Duration("duration", clip.Duration()),
		logging.Int("sample_rate", clip.SampleRate),
	)

	for _, chunk := range chunks(clip.Samples, len(buf)) {
		if ctx.Err() != nil {
			_ = stream.Abort()
			return ctx.Err()
		}
		copy(buf, chunk)
		clear(buf[len(chunk):])
		if err := stream.Write(); err != nil && !transient(err) {
			_ = stream.Abort()
			return mapError("write speaker", err)
		}
	}
	return mapError("stop speaker", stream.Stop())
}

// chunks splits samples into slices of at most size elements.
func chunks(samples []int16, size int) [][]int16 {
	if size <= 0 {
		return nil
	}
	out := make([][]int16, 0, (len(samples)+size-1)/size)
	for start := 0; start < len(samples); start += size {
		end := min(start+size, len(samples))
		out = append(out, samples[start:end])
	}
	return out
}
