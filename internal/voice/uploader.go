package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"prepcoach/internal/audio"
	"prepcoach/internal/logging"
	"prepcoach/internal/services"
	"prepcoach/internal/services/backend"
	"prepcoach/internal/session"
)

// answerFilename is the multipart filename sent with each recording.
const answerFilename = "answer.wav"

// Backend is the part of the REST client the turn loop needs.
type Backend interface {
	SubmitVoiceAnswer(ctx context.Context, id string, rec backend.Recording) (backend.VoiceAnswer, error)
	CompleteVoiceInterview(ctx context.Context, id string) error
}

// Prompt is an interviewer utterance to show and speak.
type Prompt struct {
	Text     string
	Audio    []byte
	Format   string
	Category session.Category
	Sequence int
	Language string
}

// Reply is the mapped server answer to one uploaded recording.
type Reply struct {
	Transcript   string
	Next         *Prompt
	Complete     bool
	FinalMessage string
	Sequence     int
	Total        int
	// AudioError is set when the reply carried audio that could not be
	// decoded; the prompt falls back to text.
	AudioError error
}

// Uploader submits one finalized recording at a time.
type Uploader struct {
	api      Backend
	logger   *slog.Logger
	inFlight atomic.Bool
}

// NewUploader wraps api.
func NewUploader(api Backend, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Uploader{api: api, logger: logger}
}

// InFlight reports whether an upload is running.
func (u *Uploader) InFlight() bool {
	return u.inFlight.Load()
}

// Submit posts payload as the answer to the current question. Empty payloads
// are rejected before any network call.
func (u *Uploader) Submit(ctx context.Context, sessionID string, payload Payload) (Reply, error) {
	if payload.Empty() {
		return Reply{}, ErrEmptyRecording
	}
	if !u.inFlight.CompareAndSwap(false, true) {
		return Reply{}, ErrUploadInFlight
	}
	defer u.inFlight.Store(false)

	u.logger.DebugContext(ctx, "uploading answer",
		logging.Int("bytes", len(payload.Data)),
		logging.Duration("duration", payload.Duration()),
	)
	resp, err := u.api.SubmitVoiceAnswer(ctx, sessionID, backend.Recording{
		Data:        payload.Data,
		Filename:    answerFilename,
		ContentType: audio.WAVContentType,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Reply{}, fmt.Errorf("upload answer: %w", ctx.Err())
		}
		return Reply{}, submissionError(err)
	}
	if resp.Failed() {
		return Reply{}, &SubmissionError{Message: strings.TrimSpace(resp.Message), Retryable: true}
	}
	return mapReply(resp)
}

func submissionError(err error) error {
	subErr := &SubmissionError{Err: err}
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		subErr.Message = statusErr.Message
	}
	switch {
	case errors.Is(err, services.ErrTimeout):
		subErr.Timeout = true
		subErr.Retryable = true
	case errors.Is(err, services.ErrTransient):
		subErr.Retryable = true
	case errors.Is(err, services.ErrNotFound):
		return &session.InvalidSessionError{Reason: "interview not found on the server", Err: err}
	}
	return subErr
}

func mapReply(resp backend.VoiceAnswer) (Reply, error) {
	reply := Reply{
		Transcript:   strings.TrimSpace(resp.TranscribedText),
		Complete:     resp.IsInterviewComplete,
		FinalMessage: strings.TrimSpace(resp.FinalMessage),
		Sequence:     resp.CurrentQuestionNumber,
		Total:        resp.TotalQuestions,
	}
	if reply.Complete {
		return reply, nil
	}
	next := &Prompt{
		Text:     strings.TrimSpace(resp.NextQuestionText),
		Format:   audioMIME(resp.AudioFormat),
		Category: session.Category(resp.QuestionType),
		Sequence: resp.CurrentQuestionNumber,
	}
	if encoded := strings.TrimSpace(resp.NextQuestionAudioBase64); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			reply.AudioError = &PlaybackError{Stage: "decode", Err: err}
		} else {
			next.Audio = decoded
		}
	}
	if next.Text == "" && len(next.Audio) == 0 {
		// The server accepted the answer, so resending would duplicate it.
		return Reply{}, &SubmissionError{Message: "reply carried neither a next question nor completion"}
	}
	reply.Next = next
	return reply, nil
}

// audioMIME normalises the backend's audioFormat ("mp3", "audio/mpeg", "")
// to a MIME type, defaulting to MP3.
func audioMIME(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	switch {
	case format == "":
		return "audio/mp3"
	case strings.Contains(format, "/"):
		return format
	default:
		return "audio/" + format
	}
}
