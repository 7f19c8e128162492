package voice

import (
	"errors"
	"fmt"

	"prepcoach/internal/session"
)

var (
	// ErrPermission is returned when the OS refuses microphone access.
	ErrPermission = errors.New("microphone access denied")
	// ErrDevice is returned when no usable audio device exists.
	ErrDevice = errors.New("audio device unavailable")
	// ErrDeviceBusy is returned when another prepcoach process owns the microphone.
	ErrDeviceBusy = fmt.Errorf("%w: microphone is in use by another prepcoach process", ErrDevice)
	// ErrEmptyRecording is returned when a stopped capture holds no audio.
	ErrEmptyRecording = errors.New("nothing was recorded")
	// ErrInvalidState is returned for an operation the current state does not allow.
	ErrInvalidState = errors.New("invalid state")
	// ErrSpeaking is returned when recording is requested while the interviewer speaks.
	ErrSpeaking = errors.New("interviewer is still speaking")
	// ErrBusy is returned while an answer upload is in flight.
	ErrBusy = errors.New("previous answer is still uploading")
	// ErrUploadInFlight is returned by Uploader when a second submit overlaps the first.
	ErrUploadInFlight = errors.New("upload already in flight")
	// ErrClosed is returned after the controller has been closed.
	ErrClosed = errors.New("voice controller closed")
	// ErrNoPending is returned by RetrySubmit when there is nothing to resend.
	ErrNoPending = errors.New("no pending answer to resend")

	ErrSubmission = errors.New("answer submission failed")
	ErrPlayback   = errors.New("playback failed")

	ErrInvalidSession  = session.ErrInvalidSession
	ErrSessionComplete = session.ErrSessionComplete
)

// SubmissionError reports a failed answer upload. The turn was not recorded;
// Retryable says whether resending the same payload may succeed.
type SubmissionError struct {
	Message   string
	Retryable bool
	Timeout   bool
	Err       error
}

func (e *SubmissionError) Error() string {
	msg := "answer submission failed"
	if e.Timeout {
		msg += ": no response before the upload timeout"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmissionError) Is(target error) bool { return target == ErrSubmission }

func (e *SubmissionError) Unwrap() error { return e.Err }

// PlaybackError reports that a prompt could not be played; the text is still
// available to show.
type PlaybackError struct {
	Stage string
	Err   error
}

func (e *PlaybackError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("playback failed during %s", e.Stage)
	}
	return fmt.Sprintf("playback failed during %s: %v", e.Stage, e.Err)
}

func (e *PlaybackError) Is(target error) bool { return target == ErrPlayback }

func (e *PlaybackError) Unwrap() error { return e.Err }
