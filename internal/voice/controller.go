package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"prepcoach/internal/logging"
	"prepcoach/internal/session"
)

const defaultFinalMessage = "Thank you. The interview is complete."

// Options wires a Controller to its ports.
type Options struct {
	Session     *session.Session
	Backend     Backend
	Microphone  Microphone
	Speaker     Speaker
	Synthesizer Synthesizer
	Capture     CaptureOptions
	Language    string
	// OnState observes transitions. It runs with the controller locked and
	// must not call back into the controller.
	OnState func(State)
	Logger  *slog.Logger
}

// Controller drives one voice interview through
// IDLE -> RECORDING -> UPLOADING -> AI_SPEAKING -> IDLE until COMPLETE.
// All transitions are serialized; device, network and playback work runs
// outside the lock behind state guards.
type Controller struct {
	session  *session.Session
	api      Backend
	capture  *Capture
	uploader *Uploader
	playback *Playback
	language string
	onState  func(State)
	logger   *slog.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu           sync.Mutex
	state        State
	pending      *Payload
	uploadCancel context.CancelFunc
	speakDone    chan struct{}
	speakErr     error
	closed       bool
}

// NewController validates opts and returns an idle controller.
func NewController(opts Options) (*Controller, error) {
	if opts.Session == nil {
		return nil, &session.InvalidSessionError{Reason: "no session"}
	}
	if opts.Backend == nil {
		return nil, errors.New("voice controller: backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldInterviewID, opts.Session.ID()))
	opts.Capture.Logger = logger

	baseCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		session:    opts.Session,
		api:        opts.Backend,
		capture:    NewCapture(opts.Microphone, opts.Capture),
		uploader:   NewUploader(opts.Backend, logger),
		playback:   NewPlayback(opts.Speaker, opts.Synthesizer, logger),
		language:   opts.Language,
		onState:    opts.OnState,
		logger:     logger,
		baseCtx:    baseCtx,
		baseCancel: cancel,
		state:      StateIdle,
	}
	if opts.Session.IsComplete() {
		c.state = StateComplete
	}
	return c, nil
}

// Session returns the conversation being driven.
func (c *Controller) Session() *session.Session { return c.session }

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsRecording reports whether the microphone is capturing.
func (c *Controller) IsRecording() bool {
	return c.State() == StateRecording
}

// IsSpeaking reports whether the interviewer prompt is playing.
func (c *Controller) IsSpeaking() bool {
	return c.State() == StateSpeaking
}

// HasPending reports whether a failed answer is retained for RetrySubmit.
func (c *Controller) HasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// RecordingEnded is closed when the active recording stopped on its own
// (length limit or device failure). It is nil when not recording.
func (c *Controller) RecordingEnded() <-chan struct{} {
	return c.capture.Ended()
}

// RecordingTruncated reports whether the active recording stopped because it
// reached the configured maximum length.
func (c *Controller) RecordingTruncated() bool {
	return c.capture.Truncated()
}

func (c *Controller) setStateLocked(next State) {
	if c.state == next {
		return
	}
	c.logger.Debug("turn state changed",
		logging.String(logging.FieldTurnState, next.String()),
		logging.String("previous", c.state.String()),
	)
	c.state = next
	if c.onState != nil {
		c.onState(next)
	}
}

// Present appends the opening interviewer prompt and speaks it.
func (c *Controller) Present(prompt Prompt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return err
	}
	if err := c.appendPromptLocked(&prompt); err != nil {
		return err
	}
	c.speakLocked(prompt)
	return nil
}

// Speak replays prompt without touching the conversation.
func (c *Controller) Speak(prompt Prompt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return err
	}
	if prompt.Language == "" {
		prompt.Language = c.language
	}
	c.speakLocked(prompt)
	return nil
}

// StopSpeaking interrupts the current prompt; the state returns to IDLE.
func (c *Controller) StopSpeaking() {
	c.playback.Stop()
}

// WaitSpeaking blocks until the current prompt has finished and returns its
// playback error, if any.
func (c *Controller) WaitSpeaking(ctx context.Context) error {
	c.mu.Lock()
	done := c.speakDone
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speakErr
}

// StartRecording opens the microphone. Any retained failed answer is
// discarded.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if err := c.readyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.pending != nil {
		c.logger.InfoContext(ctx, "discarding unsent answer for a new recording")
		c.pending = nil
	}
	c.setStateLocked(StateRecording)
	c.mu.Unlock()

	err := c.capture.Start(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.state == StateRecording {
			c.setStateLocked(StateIdle)
		}
		return err
	}
	if c.closed || c.state != StateRecording {
		_ = c.capture.Abort()
		if c.closed {
			return ErrClosed
		}
		return ErrSessionComplete
	}
	return nil
}

// StopAndSubmit finalizes the recording and uploads it. On success both turns
// are appended and the next prompt starts playing (AI_SPEAKING), or the
// session completes. On failure no turn is appended and the payload is
// retained for RetrySubmit.
func (c *Controller) StopAndSubmit(ctx context.Context) (Reply, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Reply{}, ErrClosed
	}
	if c.state != StateRecording {
		state := c.state
		c.mu.Unlock()
		return Reply{}, fmt.Errorf("%w: cannot stop recording while %s", ErrInvalidState, state)
	}
	c.mu.Unlock()

	payload, err := c.capture.Stop()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Reply{}, ErrClosed
	}
	if c.state != StateRecording {
		c.mu.Unlock()
		return Reply{}, ErrSessionComplete
	}
	if err != nil {
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		return Reply{}, err
	}
	if payload.Empty() {
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		return Reply{}, ErrEmptyRecording
	}
	if payload.Truncated {
		c.logger.InfoContext(ctx, "recording reached the maximum length", logging.Duration("duration", payload.Duration()))
	}
	return c.submitLocked(ctx, payload)
}

// RetrySubmit resends the retained payload unchanged.
func (c *Controller) RetrySubmit(ctx context.Context) (Reply, error) {
	c.mu.Lock()
	if err := c.readyLocked(); err != nil {
		c.mu.Unlock()
		return Reply{}, err
	}
	if c.pending == nil {
		c.mu.Unlock()
		return Reply{}, ErrNoPending
	}
	payload := *c.pending
	return c.submitLocked(ctx, payload)
}

// DiscardPending drops the retained payload so the user can re-record.
func (c *Controller) DiscardPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	had := c.pending != nil
	c.pending = nil
	return had
}

// submitLocked is entered with c.mu held and returns with it released.
func (c *Controller) submitLocked(ctx context.Context, payload Payload) (Reply, error) {
	upCtx, cancel := context.WithCancel(ctx)
	c.uploadCancel = cancel
	c.setStateLocked(StateUploading)
	c.mu.Unlock()

	started := time.Now()
	reply, err := c.uploader.Submit(upCtx, c.session.ID(), payload)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploadCancel = nil
	if c.closed || c.state != StateUploading {
		// Closed or ended while the request was in flight; the late reply
		// must not touch the conversation.
		c.logger.DebugContext(ctx, "ignoring late upload response", logging.Bool("had_error", err != nil))
		if c.closed {
			return Reply{}, ErrClosed
		}
		return Reply{}, ErrSessionComplete
	}
	if err != nil {
		c.pending = &payload
		c.setStateLocked(StateIdle)
		c.logger.WarnContext(ctx, "answer upload failed",
			logging.String(logging.FieldEventType, "upload_failed"),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		return Reply{}, err
	}
	c.pending = nil
	c.logger.InfoContext(ctx, "answer accepted",
		logging.Duration("elapsed", time.Since(started)),
		logging.Bool("complete", reply.Complete),
	)
	if err := c.applyReplyLocked(&reply); err != nil {
		return reply, err
	}
	return reply, nil
}

func (c *Controller) applyReplyLocked(reply *Reply) error {
	answered := c.session.CurrentTurn()
	if err := c.session.AppendTurn(session.Turn{
		Speaker:  session.SpeakerUser,
		Text:     reply.Transcript,
		Sequence: answered,
	}); err != nil {
		c.setStateLocked(StateIdle)
		return err
	}
	c.session.SetTotal(reply.Total)

	if reply.Complete {
		text := reply.FinalMessage
		if text == "" {
			text = defaultFinalMessage
		}
		if err := c.session.AppendTurn(session.Turn{
			Speaker:  session.SpeakerAI,
			Text:     text,
			Sequence: c.clampSequence(reply.Sequence),
		}); err != nil {
			return err
		}
		c.session.MarkComplete()
		c.setStateLocked(StateComplete)
		return nil
	}

	prompt := *reply.Next
	if err := c.appendPromptLocked(&prompt); err != nil {
		c.setStateLocked(StateIdle)
		return err
	}
	reply.Next = &prompt
	c.speakLocked(prompt)
	return nil
}

func (c *Controller) appendPromptLocked(prompt *Prompt) error {
	if prompt.Language == "" {
		prompt.Language = c.language
	}
	prompt.Sequence = c.clampSequence(prompt.Sequence)
	turn := session.Turn{
		Speaker:     session.SpeakerAI,
		Text:        strings.TrimSpace(prompt.Text),
		Audio:       prompt.Audio,
		AudioFormat: prompt.Format,
		Category:    prompt.Category,
		Sequence:    prompt.Sequence,
	}
	return c.session.AppendTurn(turn)
}

// clampSequence keeps server numbering from running backwards.
func (c *Controller) clampSequence(seq int) int {
	if last := c.session.CurrentTurn(); seq > 0 && seq < last {
		c.logger.Debug("server sequence behind conversation; clamping",
			logging.Int("sequence", seq), logging.Int("last", last))
		return last
	}
	return seq
}

func (c *Controller) speakLocked(prompt Prompt) {
	c.setStateLocked(StateSpeaking)
	done := make(chan struct{})
	c.speakDone = done
	c.speakErr = nil
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.playback.Play(c.baseCtx, prompt)
		c.mu.Lock()
		c.speakErr = err
		if c.state == StateSpeaking {
			c.setStateLocked(StateIdle)
		}
		c.mu.Unlock()
		close(done)
		if err != nil {
			c.logger.Warn("prompt playback failed; showing text only",
				logging.String(logging.FieldEventType, "playback_failed"),
				logging.Error(err),
			)
		}
	}()
}

// readyLocked gates operations that need an idle controller.
func (c *Controller) readyLocked() error {
	if c.closed {
		return ErrClosed
	}
	switch c.state {
	case StateComplete:
		return ErrSessionComplete
	case StateUploading:
		return ErrBusy
	case StateSpeaking:
		return ErrSpeaking
	case StateRecording:
		return fmt.Errorf("%w: already recording", ErrInvalidState)
	}
	if c.playback.IsSpeaking() {
		return ErrSpeaking
	}
	return nil
}

// End finishes the interview from any non-terminal state. The server is
// notified best-effort; a failed notification is logged, never returned.
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state == StateComplete {
		c.mu.Unlock()
		return nil
	}
	wasRecording := c.state == StateRecording
	if c.uploadCancel != nil {
		c.uploadCancel()
	}
	c.pending = nil
	c.setStateLocked(StateComplete)
	c.session.MarkComplete()
	c.mu.Unlock()

	if wasRecording {
		if err := c.capture.Abort(); err != nil && !errors.Is(err, ErrInvalidState) {
			c.logger.DebugContext(ctx, "abort capture on end", logging.Error(err))
		}
	}
	c.playback.Stop()

	if err := c.api.CompleteVoiceInterview(ctx, c.session.ID()); err != nil {
		logging.WarnWithContext(ctx, c.logger, "completion notice not delivered", "complete_failed",
			logging.String(logging.FieldImpact, "server may still list the interview as in progress"),
			logging.Error(err),
		)
	}
	return nil
}

// Close tears the controller down: recording is aborted and the microphone
// released, an in-flight upload is cancelled and its reply ignored, and
// playback stops. Close is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.uploadCancel != nil {
		c.uploadCancel()
	}
	if c.state != StateComplete {
		c.setStateLocked(StateIdle)
	}
	c.mu.Unlock()

	var abortErr error
	if err := c.capture.Abort(); err != nil && !errors.Is(err, ErrInvalidState) {
		abortErr = err
	}
	c.playback.Stop()
	c.baseCancel()
	c.wg.Wait()
	return abortErr
}
