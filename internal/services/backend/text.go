package backend

import (
	"context"
	"strings"

	"prepcoach/internal/services"
)

// TextStart is the reply to POST /interviews/start.
type TextStart struct {
	InterviewID           string `json:"interviewId"`
	FirstQuestion         string `json:"firstQuestion"`
	QuestionType          string `json:"questionType"`
	CurrentQuestionNumber int    `json:"currentQuestionNumber"`
	TotalQuestions        int    `json:"totalQuestions"`
}

// TextAnswer is the reply to a typed answer.
type TextAnswer struct {
	Role                  string `json:"role"`
	Content               string `json:"content"`
	NextQuestion          string `json:"nextQuestion"`
	QuestionType          string `json:"questionType"`
	CurrentQuestionNumber int    `json:"currentQuestionNumber"`
	TotalQuestions        int    `json:"totalQuestions"`
	IsInterviewComplete   bool   `json:"isInterviewComplete"`
}

// Prompt returns the next question text, falling back to content.
func (a TextAnswer) Prompt() string {
	if q := strings.TrimSpace(a.NextQuestion); q != "" {
		return q
	}
	return strings.TrimSpace(a.Content)
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// StartTextInterview creates a text interview and returns its first question.
func (c *Client) StartTextInterview(ctx context.Context, req StartRequest) (TextStart, error) {
	var resp TextStart
	if err := req.Validate(); err != nil {
		return resp, err
	}
	if err := c.postJSON(ctx, req, &resp, "interviews", "start"); err != nil {
		return resp, err
	}
	if strings.TrimSpace(resp.InterviewID) == "" {
		return resp, services.Wrap(services.ErrValidation, "backend", "start text interview", "response did not include an interview id", nil)
	}
	return resp, nil
}

// SubmitTextAnswer sends one typed answer.
func (c *Client) SubmitTextAnswer(ctx context.Context, id, answer string) (TextAnswer, error) {
	var resp TextAnswer
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return resp, services.Wrap(services.ErrValidation, "backend", "submit answer", "answer is empty", nil)
	}
	err := c.postJSON(ctx, answerRequest{Answer: answer}, &resp, "interviews", id, "answer")
	return resp, err
}

// TextHistory lists the signed-in user's text interviews.
func (c *Client) TextHistory(ctx context.Context) ([]InterviewSummary, error) {
	var rows []InterviewSummary
	err := c.getJSON(ctx, &rows, "interviews")
	return rows, err
}

// GetTextInterview loads a stored text interview.
func (c *Client) GetTextInterview(ctx context.Context, id string) (InterviewDetail, error) {
	var detail InterviewDetail
	err := c.getJSON(ctx, &detail, "interviews", id)
	return detail, err
}

// CompleteTextInterview marks the text interview finished on the server.
func (c *Client) CompleteTextInterview(ctx context.Context, id string) error {
	return c.postJSON(ctx, nil, nil, "interviews", id, "complete")
}
