package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"prepcoach/internal/config"
	"prepcoach/internal/logging"
	"prepcoach/internal/session"
	"prepcoach/internal/voice"
)

// inputFeed delivers stdin lines on a channel so the loop can wait on input,
// playback, and recording limits at once.
type inputFeed struct {
	lines <-chan string
	eof   bool
}

func newInputFeed(in io.Reader) *inputFeed {
	ch := make(chan string)
	go func() {
		defer close(ch)
		reader := newLineReader(in)
		for {
			line, err := reader.ReadLine()
			if err != nil {
				return
			}
			ch <- line
		}
	}()
	return &inputFeed{lines: ch}
}

// next waits for a line. ok is false once input is exhausted.
func (f *inputFeed) next(ctx context.Context) (string, bool, error) {
	if f.eof {
		return "", false, nil
	}
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case line, ok := <-f.lines:
		if !ok {
			f.eof = true
			return "", false, nil
		}
		return line, true, nil
	}
}

// channel returns the line channel, or nil once exhausted so selects skip it.
func (f *inputFeed) channel() <-chan string {
	if f.eof {
		return nil
	}
	return f.lines
}

// voiceController is the slice of *voice.Controller the loop drives.
type voiceController interface {
	Session() *session.Session
	State() voice.State
	HasPending() bool
	RecordingEnded() <-chan struct{}
	RecordingTruncated() bool
	Present(prompt voice.Prompt) error
	Speak(prompt voice.Prompt) error
	StopSpeaking()
	WaitSpeaking(ctx context.Context) error
	StartRecording(ctx context.Context) error
	StopAndSubmit(ctx context.Context) (voice.Reply, error)
	RetrySubmit(ctx context.Context) (voice.Reply, error)
	DiscardPending() bool
	End(ctx context.Context) error
}

type voiceLoop struct {
	ctrl   voiceController
	feed   *inputFeed
	out    io.Writer
	meter  *levelMeter
	paint  painter
	policy string
	logger *slog.Logger
}

func newVoiceLoop(ctrl voiceController, in io.Reader, out io.Writer, meter *levelMeter, policy string, logger *slog.Logger) *voiceLoop {
	if logger == nil {
		logger = logging.NewNop()
	}
	if meter == nil {
		meter = newLevelMeter(io.Discard)
	}
	return &voiceLoop{
		ctrl:   ctrl,
		feed:   newInputFeed(in),
		out:    out,
		meter:  meter,
		paint:  newPainter(out),
		policy: policy,
		logger: logger,
	}
}

// run drives the interview until it completes, the user ends it, input runs
// out, or ctx is cancelled. Only session-level failures are returned; device,
// upload, and playback problems are reported inline.
func (l *voiceLoop) run(ctx context.Context, opening *voice.Prompt) error {
	if opening != nil {
		if err := l.ctrl.Present(*opening); err != nil {
			return err
		}
		if last, ok := l.ctrl.Session().LastPrompt(); ok {
			fmt.Fprintln(l.out, promptLine(l.paint, last, l.ctrl.Session().TotalTurns()))
		}
	}

	for {
		if l.ctrl.State() == voice.StateComplete {
			l.printCompletion()
			return nil
		}
		if err := l.waitSpeaking(ctx); err != nil {
			return err
		}
		l.printActions()

		line, ok, err := l.feed.next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			l.pause()
			return nil
		}
		switch line {
		case "":
			if err := l.record(ctx); err != nil {
				return err
			}
		case "r":
			reply, err := l.ctrl.RetrySubmit(ctx)
			if err := l.handleReply(reply, err); err != nil {
				return err
			}
		case "x":
			if l.ctrl.DiscardPending() {
				fmt.Fprintln(l.out, "Discarded the unsent answer. Press Enter to record again.")
			} else {
				fmt.Fprintln(l.out, "Nothing to discard.")
			}
		case "p":
			l.replay()
		case "q":
			return l.end(ctx)
		case "h", "?":
			l.printHelp()
		default:
			fmt.Fprintf(l.out, "Unknown command %q (h for help)\n", line)
		}
	}
}

func (l *voiceLoop) waitSpeaking(ctx context.Context) error {
	if l.ctrl.State() != voice.StateSpeaking {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- l.ctrl.WaitSpeaking(ctx) }()
	for {
		select {
		case err := <-done:
			if err != nil && ctx.Err() == nil {
				l.report(err)
			}
			return ctx.Err()
		case line, ok := <-l.feed.channel():
			if !ok {
				l.feed.eof = true
				continue
			}
			if line == "s" {
				l.ctrl.StopSpeaking()
			} else {
				fmt.Fprintln(l.out, "(the interviewer is speaking; s then Enter skips)")
			}
		case <-ctx.Done():
			l.ctrl.StopSpeaking()
			return ctx.Err()
		}
	}
}

func (l *voiceLoop) record(ctx context.Context) error {
	if err := l.ctrl.StartRecording(ctx); err != nil {
		return l.report(err)
	}
	fmt.Fprintln(l.out, l.paint.paint(ansiRed, "● Recording")+" (press Enter to stop)")
	l.meter.Start()

	select {
	case <-ctx.Done():
		l.meter.Stop()
		return ctx.Err()
	case _, ok := <-l.feed.channel():
		if !ok {
			l.feed.eof = true
		}
	case <-l.ctrl.RecordingEnded():
		l.meter.Stop()
		if l.ctrl.RecordingTruncated() {
			fmt.Fprintln(l.out, "Recording stopped at the length limit.")
		} else {
			fmt.Fprintln(l.out, "Recording stopped: the microphone stopped sending audio.")
		}
	}
	l.meter.Stop()

	fmt.Fprintln(l.out, l.paint.paint(ansiDim, "Uploading answer..."))
	reply, err := l.ctrl.StopAndSubmit(ctx)
	return l.handleReply(reply, err)
}

func (l *voiceLoop) handleReply(reply voice.Reply, err error) error {
	if err != nil {
		return l.report(err)
	}
	if reply.Transcript != "" {
		fmt.Fprintf(l.out, "%s %s\n", l.paint.paint(ansiGreen, "  You:"), reply.Transcript)
	}
	if reply.Complete {
		return nil
	}
	if last, ok := l.ctrl.Session().LastPrompt(); ok {
		fmt.Fprintln(l.out, promptLine(l.paint, last, l.ctrl.Session().TotalTurns()))
	}
	if reply.AudioError != nil {
		fmt.Fprintln(l.out, l.paint.paint(ansiYellow, "Question audio was unreadable; speaking the text instead."))
	}
	return nil
}

// report prints err with the recovery actions available. It returns err only
// when the interview cannot continue.
func (l *voiceLoop) report(err error) error {
	var subErr *voice.SubmissionError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, voice.ErrClosed):
		return err
	case errors.Is(err, session.ErrInvalidSession):
		return err
	case errors.Is(err, voice.ErrSessionComplete):
		return nil
	case errors.Is(err, voice.ErrEmptyRecording):
		l.warn("Nothing was recorded. Press Enter to try again.")
	case errors.As(err, &subErr):
		msg := "Your answer could not be sent"
		if subErr.Timeout {
			msg = "The server did not answer in time"
		}
		if subErr.Message != "" {
			msg += ": " + subErr.Message
		}
		l.warn(msg + ".")
		if l.policy == config.RetryRerecord {
			fmt.Fprintln(l.out, "  [x] discard and record again   [r] resend the same recording")
		} else {
			fmt.Fprintln(l.out, "  [r] resend the same recording   [x] discard and record again")
		}
	case errors.Is(err, voice.ErrPermission):
		l.warn("Microphone access was denied. Allow access for this terminal, then press Enter.")
	case errors.Is(err, voice.ErrDeviceBusy):
		l.warn("The microphone is in use by another prepcoach session.")
	case errors.Is(err, voice.ErrDevice):
		l.warn(fmt.Sprintf("No usable microphone (%v). Check `prepcoach devices`, then press Enter.", err))
	case errors.Is(err, voice.ErrSpeaking):
		l.warn("Wait for the question to finish.")
	case errors.Is(err, voice.ErrBusy), errors.Is(err, voice.ErrUploadInFlight):
		l.warn("An answer is still being sent.")
	case errors.Is(err, voice.ErrNoPending):
		l.warn("There is no unsent answer to resend.")
	case errors.Is(err, voice.ErrPlayback):
		l.warn("The question could not be played; it is shown above.")
	default:
		l.logger.Error("voice turn failed", logging.Error(err))
		l.warn(err.Error())
	}
	return nil
}

func (l *voiceLoop) warn(msg string) {
	fmt.Fprintln(l.out, l.paint.paint(ansiYellow, msg))
}

func (l *voiceLoop) replay() {
	last, ok := l.ctrl.Session().LastPrompt()
	if !ok {
		fmt.Fprintln(l.out, "No question to replay.")
		return
	}
	prompt := voice.TurnPrompt(last)
	prompt.Language = l.ctrl.Session().Info().Language
	if err := l.ctrl.Speak(prompt); err != nil {
		_ = l.report(err)
	}
}

func (l *voiceLoop) end(ctx context.Context) error {
	if err := l.ctrl.End(ctx); err != nil && !errors.Is(err, voice.ErrSessionComplete) {
		return err
	}
	fmt.Fprintf(l.out, "Interview ended. See your results with `prepcoach report %s`.\n", l.ctrl.Session().ID())
	return nil
}

func (l *voiceLoop) pause() {
	fmt.Fprintf(l.out, "Input closed. Resume with `prepcoach voice resume %s`.\n", l.ctrl.Session().ID())
}

func (l *voiceLoop) printCompletion() {
	if last, ok := l.ctrl.Session().LastPrompt(); ok {
		fmt.Fprintln(l.out, l.paint.paint(ansiBold, last.Text))
	}
	fmt.Fprintf(l.out, "Interview complete. See your results with `prepcoach report %s`.\n", l.ctrl.Session().ID())
}

func (l *voiceLoop) printActions() {
	actions := "[Enter] record  [p] replay  [q] end  [h] help"
	if l.ctrl.HasPending() {
		actions = "[r] resend  [x] discard  " + actions
	}
	fmt.Fprintln(l.out, l.paint.paint(ansiDim, actions))
}

func (l *voiceLoop) printHelp() {
	fmt.Fprintln(l.out, "Enter  start recording; Enter again stops and sends the answer")
	fmt.Fprintln(l.out, "r      resend the last answer that failed to upload")
	fmt.Fprintln(l.out, "x      discard the failed answer so you can record again")
	fmt.Fprintln(l.out, "p      replay the current question")
	fmt.Fprintln(l.out, "s      skip the question audio while it plays")
	fmt.Fprintln(l.out, "q      end the interview now")
}

// voiceHint adds next steps for turn-loop errors that reach the top level.
func voiceHint(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidSession):
		return "start a new interview with `prepcoach voice start --position ...`"
	case errors.Is(err, voice.ErrPermission):
		return "allow microphone access for this terminal and try again"
	case errors.Is(err, voice.ErrDevice):
		return "check `prepcoach devices` and the [audio] section of your config"
	default:
		return ""
	}
}
