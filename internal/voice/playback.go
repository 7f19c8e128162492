package voice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"prepcoach/internal/audio"
	"prepcoach/internal/logging"
)

// Speaker plays a decoded clip to completion or until ctx is cancelled.
type Speaker interface {
	Play(ctx context.Context, clip audio.Clip) error
}

// Synthesizer speaks text on the device. It returns when speech finishes or
// ctx is cancelled.
type Synthesizer interface {
	Speak(ctx context.Context, text, language string) error
}

var errNoSynthesizer = errors.New("no speech synthesizer configured")

// Playback sequences prompt audio: decoded server audio first, on-device
// synthesis as the fallback. Only one prompt plays at a time.
type Playback struct {
	speaker Speaker
	synth   Synthesizer
	logger  *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	speaking atomic.Bool
}

// NewPlayback builds a Playback. Either port may be nil.
func NewPlayback(speaker Speaker, synth Synthesizer, logger *slog.Logger) *Playback {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Playback{speaker: speaker, synth: synth, logger: logger}
}

// IsSpeaking reports whether a prompt is playing.
func (p *Playback) IsSpeaking() bool {
	return p.speaking.Load()
}

// Play stops any active prompt and plays prompt, blocking until it ends.
// Interruption by Stop or ctx is not an error.
func (p *Playback) Play(ctx context.Context, prompt Prompt) error {
	p.Stop()

	p.mu.Lock()
	playCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.speaking.Store(true)
	p.mu.Unlock()

	defer func() {
		p.speaking.Store(false)
		cancel()
		close(done)
	}()
	return p.play(playCtx, prompt)
}

func (p *Playback) play(ctx context.Context, prompt Prompt) error {
	if len(prompt.Audio) > 0 && p.speaker != nil {
		clip, err := audio.Decode(prompt.Audio, prompt.Format)
		if err == nil {
			err = p.speaker.Play(ctx, clip)
			if err == nil || ctx.Err() != nil {
				return nil
			}
			p.logger.WarnContext(ctx, "audio playback failed; falling back to speech synthesis",
				logging.String(logging.FieldEventType, "playback_fallback"),
				logging.Error(err),
			)
		} else {
			p.logger.DebugContext(ctx, "prompt audio not decodable; using speech synthesis", logging.Error(err))
		}
	}

	text := strings.TrimSpace(prompt.Text)
	if text == "" {
		return nil
	}
	if p.synth == nil {
		return &PlaybackError{Stage: "synthesis", Err: errNoSynthesizer}
	}
	if err := p.synth.Speak(ctx, text, prompt.Language); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return &PlaybackError{Stage: "synthesis", Err: err}
	}
	return nil
}

// Stop interrupts the active prompt and waits for it to unwind.
func (p *Playback) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}
