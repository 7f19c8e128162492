package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"prepcoach/internal/audio"
	"prepcoach/internal/logging"
)

// StreamConfig is the requested input format. Constraints a backend cannot
// honour are reported by the Microphone and never fail the open.
type StreamConfig struct {
	Device           string
	SampleRate       int
	Channels         int
	FramesPerBuffer  int
	EchoCancellation bool
	NoiseSuppression bool
}

// InputStream is an open microphone. Read blocks for at most one buffer and
// returns interleaved PCM16 samples the caller may keep.
type InputStream interface {
	Read() ([]int16, error)
	Close() error
}

// Microphone opens input streams. Open must map OS refusals to ErrPermission
// and missing hardware to ErrDevice.
type Microphone interface {
	Open(ctx context.Context, cfg StreamConfig) (InputStream, error)
}

// Payload is a finalized recording.
type Payload struct {
	Data       []byte
	Frames     int
	SampleRate int
	Channels   int
	Truncated  bool
}

// Empty reports whether nothing was captured.
func (p Payload) Empty() bool {
	return p.Frames == 0 || len(p.Data) == 0
}

// Duration is the recorded length.
func (p Payload) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(p.Frames) * time.Second / time.Duration(p.SampleRate)
}

// CaptureOptions configures a Capture.
type CaptureOptions struct {
	Stream        StreamConfig
	LockPath      string
	MaxDuration   time.Duration
	LevelInterval time.Duration
	OnLevel       func(int)
	Logger        *slog.Logger
}

// Capture owns the microphone for one recording at a time. Ownership is
// exclusive within the process (one active recording) and across processes
// (flock on LockPath).
type Capture struct {
	mic  Microphone
	opts CaptureOptions

	mu     sync.Mutex
	active *recording
}

type recording struct {
	stream  InputStream
	lock    *flock.Flock
	cancel  context.CancelFunc
	group   *errgroup.Group
	ended   chan struct{}
	monitor *levelMonitor

	mu        sync.Mutex
	chunks    [][]int16
	frames    int
	truncated bool
}

// NewCapture builds a Capture over mic.
func NewCapture(mic Microphone, opts CaptureOptions) *Capture {
	if opts.Stream.SampleRate <= 0 {
		opts.Stream.SampleRate = 16000
	}
	if opts.Stream.Channels <= 0 {
		opts.Stream.Channels = 1
	}
	if opts.Stream.FramesPerBuffer <= 0 {
		opts.Stream.FramesPerBuffer = 1024
	}
	if opts.LevelInterval <= 0 {
		opts.LevelInterval = time.Second / 30
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Capture{mic: mic, opts: opts}
}

// Active reports whether a recording is in progress.
func (c *Capture) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Ended is closed when the current recording stopped reading on its own
// (maximum length reached or a device error). It is nil when idle.
func (c *Capture) Ended() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	return c.active.ended
}

// Truncated reports whether the current recording reached the maximum
// length. Once Ended is closed it separates that case from a device failure.
func (c *Capture) Truncated() bool {
	c.mu.Lock()
	rec := c.active
	c.mu.Unlock()
	if rec == nil {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.truncated
}

// Start acquires the microphone and begins buffering audio.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return fmt.Errorf("%w: capture already active", ErrInvalidState)
	}
	if c.mic == nil {
		return fmt.Errorf("%w: no microphone configured", ErrDevice)
	}

	var lock *flock.Flock
	if c.opts.LockPath != "" {
		lock = flock.New(c.opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("%w: lock microphone: %w", ErrDevice, err)
		}
		if !ok {
			return ErrDeviceBusy
		}
	}

	stream, err := c.mic.Open(ctx, c.opts.Stream)
	if err != nil {
		releaseLock(lock)
		if !errors.Is(err, ErrPermission) && !errors.Is(err, ErrDevice) {
			err = fmt.Errorf("%w: %w", ErrDevice, err)
		}
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	group, groupCtx := errgroup.WithContext(runCtx)
	rec := &recording{
		stream: stream,
		lock:   lock,
		cancel: cancel,
		group:  group,
		ended:  make(chan struct{}),
		monitor: &levelMonitor{
			interval: c.opts.LevelInterval,
			observer: c.opts.OnLevel,
		},
	}
	maxFrames := 0
	if c.opts.MaxDuration > 0 {
		maxFrames = int(int64(c.opts.MaxDuration) * int64(c.opts.Stream.SampleRate) / int64(time.Second))
	}
	group.Go(func() error { return rec.read(groupCtx, c.opts.Stream.Channels, maxFrames) })
	group.Go(func() error { return rec.monitor.run(groupCtx) })
	c.active = rec

	c.opts.Logger.DebugContext(ctx, "microphone capture started",
		logging.Int("sample_rate", c.opts.Stream.SampleRate),
		logging.Int("channels", c.opts.Stream.Channels),
		logging.Int("frames_per_buffer", c.opts.Stream.FramesPerBuffer),
	)
	return nil
}

// Stop ends the recording, releases the microphone on every path, and
// returns the WAV-encoded payload. An empty payload is not an error here.
func (c *Capture) Stop() (Payload, error) {
	rec, err := c.detach()
	if err != nil {
		return Payload{}, err
	}
	if err := rec.finish(); err != nil {
		return Payload{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	payload := Payload{
		Frames:     rec.frames,
		SampleRate: c.opts.Stream.SampleRate,
		Channels:   c.opts.Stream.Channels,
		Truncated:  rec.truncated,
	}
	if rec.frames > 0 {
		pcm := make([]byte, 0, rec.frames*c.opts.Stream.Channels*2)
		for _, chunk := range rec.chunks {
			pcm = append(pcm, audio.Int16ToBytes(chunk)...)
		}
		payload.Data = audio.EncodeWAV(pcm, c.opts.Stream.SampleRate, c.opts.Stream.Channels)
	}
	rec.chunks = nil
	c.opts.Logger.Debug("microphone capture stopped",
		logging.Duration("duration", payload.Duration()),
		logging.Bool("truncated", payload.Truncated),
	)
	return payload, nil
}

// Abort ends the recording and discards the audio.
func (c *Capture) Abort() error {
	rec, err := c.detach()
	if err != nil {
		return err
	}
	return rec.finish()
}

func (c *Capture) detach() (*recording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.active
	if rec == nil {
		return nil, fmt.Errorf("%w: no active capture", ErrInvalidState)
	}
	c.active = nil
	return rec, nil
}

// finish stops the reader and monitor, then closes the stream and releases
// the lock whatever the reader returned.
func (r *recording) finish() error {
	r.cancel()
	readErr := r.group.Wait()
	closeErr := r.stream.Close()
	releaseLock(r.lock)
	if readErr != nil {
		return readErr
	}
	if closeErr != nil {
		return fmt.Errorf("%w: close input: %w", ErrDevice, closeErr)
	}
	return nil
}

func (r *recording) read(ctx context.Context, channels, maxFrames int) error {
	defer close(r.ended)
	for {
		if ctx.Err() != nil {
			return nil
		}
		frame, err := r.stream.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: read input: %w", ErrDevice, err)
		}
		if len(frame) == 0 {
			continue
		}
		r.monitor.store(frame)

		r.mu.Lock()
		r.chunks = append(r.chunks, frame)
		r.frames += len(frame) / channels
		full := maxFrames > 0 && r.frames >= maxFrames
		if full {
			r.truncated = true
		}
		r.mu.Unlock()

		if full {
			r.monitor.current.Store(0)
			return nil
		}
	}
}

func releaseLock(lock *flock.Flock) {
	if lock != nil {
		_ = lock.Unlock()
	}
}
