package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"prepcoach/internal/logging"
	"prepcoach/internal/voice"
)

// Microphone opens blocking PortAudio input streams.
type Microphone struct {
	logger *slog.Logger
}

// NewMicrophone returns a Microphone.
func NewMicrophone(logger *slog.Logger) *Microphone {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Microphone{logger: logger}
}

// Open selects the configured device and starts a stream on it.
func (m *Microphone) Open(ctx context.Context, cfg voice.StreamConfig) (voice.InputStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := lookup(cfg.Device, input)
	if err != nil {
		return nil, mapError("open microphone", err)
	}
	if cfg.Channels > info.MaxInputChannels {
		return nil, mapError("open microphone", fmt.Errorf("%q offers %d input channels, %d requested: %w",
			info.Name, info.MaxInputChannels, cfg.Channels, errNoMatch))
	}
	// PortAudio has no portable switch for either constraint; the OS input
	// chain applies them when it supports them.
	if cfg.EchoCancellation || cfg.NoiseSuppression {
		m.logger.DebugContext(ctx, "capture constraints left to the host audio stack",
			logging.Bool("echo_cancellation", cfg.EchoCancellation),
			logging.Bool("noise_suppression", cfg.NoiseSuppression),
		)
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: cfg.Channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}
	buf := make([]int16, cfg.FramesPerBuffer*cfg.Channels)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, mapError("open microphone", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, mapError("start microphone", err)
	}
	m.logger.InfoContext(ctx, "microphone opened",
		logging.String(logging.FieldEventType, "microphone_opened"),
		logging.String("device", info.Name),
		logging.Int("sample_rate", cfg.SampleRate),
		logging.Int("channels", cfg.Channels),
	)
	return &inputStream{stream: stream, buf: buf, logger: m.logger}, nil
}

type inputStream struct {
	stream *portaudio.Stream
	buf    []int16
	logger *slog.Logger

	once     sync.Once
	closeErr error
}

func (s *inputStream) Read() ([]int16, error) {
	if err := s.stream.Read(); err != nil {
		if !transient(err) {
			return nil, mapError("read microphone", err)
		}
		s.logger.Debug("microphone input overflowed")
	}
	out := make([]int16, len(s.buf))
	copy(out, s.buf)
	return out, nil
}

func (s *inputStream) Close() error {
	s.once.Do(func() {
		stopErr := s.stream.Stop()
		s.closeErr = s.stream.Close()
		if s.closeErr == nil {
			s.closeErr = stopErr
		}
	})
	return s.closeErr
}
