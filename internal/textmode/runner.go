package textmode

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"prepcoach/internal/logging"
	"prepcoach/internal/services"
	"prepcoach/internal/services/backend"
	"prepcoach/internal/session"
)

const defaultFinalMessage = "Thank you. The interview is complete."

var (
	// ErrBusy is returned when an answer is submitted while another is in flight.
	ErrBusy = errors.New("an answer is already being submitted")
	// ErrEmptyAnswer is returned for blank input; nothing is sent.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrNoNextQuestion is returned when the server accepted an answer but its
	// reply carried no next question. The session is left unchanged and the
	// answer must not be resent; reloading the interview recovers.
	ErrNoNextQuestion = errors.New("server reply had no next question")
)

// Backend is the slice of the REST client the runner needs.
type Backend interface {
	StartTextInterview(ctx context.Context, req backend.StartRequest) (backend.TextStart, error)
	SubmitTextAnswer(ctx context.Context, id, answer string) (backend.TextAnswer, error)
	CompleteTextInterview(ctx context.Context, id string) error
}

// Result is the outcome of one answered question.
type Result struct {
	Prompt   session.Turn
	Complete bool
}

// Runner drives one text interview.
type Runner struct {
	backend Backend
	session *session.Session
	logger  *slog.Logger

	mu       sync.Mutex
	inFlight bool
}

// Start creates an interview on the server and appends its first question.
func Start(ctx context.Context, b Backend, req backend.StartRequest, logger *slog.Logger) (*Runner, session.Turn, error) {
	resp, err := b.StartTextInterview(ctx, req)
	if err != nil {
		return nil, session.Turn{}, err
	}
	sess, err := session.New(resp.InterviewID, session.Info{
		Position: req.Position,
		Company:  req.Company,
		Language: req.Language,
		Mode:     session.ModeText,
		Total:    resp.TotalQuestions,
	})
	if err != nil {
		return nil, session.Turn{}, err
	}
	first := session.Turn{
		Speaker:  session.SpeakerAI,
		Text:     strings.TrimSpace(resp.FirstQuestion),
		Category: session.Category(resp.QuestionType),
		Sequence: resp.CurrentQuestionNumber,
	}
	if first.Text == "" {
		return nil, session.Turn{}, services.Wrap(services.ErrValidation, "textmode", "start", "server did not send a first question", nil)
	}
	if err := sess.AppendTurn(first); err != nil {
		return nil, session.Turn{}, err
	}
	r := Resume(sess, b, logger)
	prompt, _ := sess.LastPrompt()
	return r, prompt, nil
}

// Resume continues an interview loaded from history.
func Resume(sess *session.Session, b Backend, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldInterviewID, sess.ID()))
	return &Runner{backend: b, session: sess, logger: logger}
}

// Session returns the conversation.
func (r *Runner) Session() *session.Session {
	return r.session
}

// Answer submits one typed answer. On failure no turn is appended and the
// caller may resend the same text.
func (r *Runner) Answer(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyAnswer
	}
	if r.session.IsComplete() {
		return Result{}, session.ErrSessionComplete
	}
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return Result{}, ErrBusy
	}
	r.inFlight = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.inFlight = false
		r.mu.Unlock()
	}()

	answered := r.session.CurrentTurn()
	resp, err := r.backend.SubmitTextAnswer(ctx, r.session.ID(), text)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return Result{}, &session.InvalidSessionError{ID: r.session.ID(), Reason: "interview no longer exists", Err: err}
		}
		return Result{}, err
	}

	prompt := session.Turn{
		Speaker:  session.SpeakerAI,
		Text:     resp.Prompt(),
		Category: session.Category(resp.QuestionType),
		Sequence: resp.CurrentQuestionNumber,
	}
	if resp.IsInterviewComplete && prompt.Text == "" {
		prompt.Text = defaultFinalMessage
	}
	if prompt.Text == "" {
		return Result{}, services.Wrap(services.ErrValidation, "textmode", "answer", "unusable reply", ErrNoNextQuestion)
	}

	if err := r.session.AppendTurn(session.Turn{Speaker: session.SpeakerUser, Text: text, Sequence: answered}); err != nil {
		return Result{}, err
	}
	r.session.SetTotal(resp.TotalQuestions)
	if last := r.session.CurrentTurn(); prompt.Sequence > 0 && prompt.Sequence < last {
		prompt.Sequence = last
	}
	if err := r.session.AppendTurn(prompt); err != nil {
		return Result{}, err
	}
	if resp.IsInterviewComplete {
		r.session.MarkComplete()
		r.logger.InfoContext(ctx, "text interview complete",
			logging.String(logging.FieldEventType, "interview_complete"),
			logging.Int("turns", r.session.Len()),
		)
	}
	stored, _ := r.session.LastPrompt()
	return Result{Prompt: stored, Complete: resp.IsInterviewComplete}, nil
}

// End marks the interview finished. The server call is best-effort; a failure
// is logged and the session is still closed locally.
func (r *Runner) End(ctx context.Context) {
	if !r.session.MarkComplete() {
		return
	}
	if err := r.backend.CompleteTextInterview(ctx, r.session.ID()); err != nil {
		logging.WarnWithContext(ctx, r.logger, "completion notification failed", "interview_complete_failed",
			logging.String(logging.FieldImpact, "the interview may still show as in progress"),
			logging.Error(err),
		)
	}
}
