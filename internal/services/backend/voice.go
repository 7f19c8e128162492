package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"prepcoach/internal/services"
)

// AnswerField is the multipart field the backend reads the recording from.
const AnswerField = "audio"

// StartRequest configures a new interview (voice or text).
type StartRequest struct {
	Position       string `json:"position"`
	JobDescription string `json:"jobDescription,omitempty"`
	Language       string `json:"language"`
	Company        string `json:"company,omitempty"`
}

// Validate checks the fields the backend requires.
func (r StartRequest) Validate() error {
	if strings.TrimSpace(r.Position) == "" {
		return services.Wrap(services.ErrValidation, "interview", "start", "position is required", nil)
	}
	if strings.TrimSpace(r.Language) == "" {
		return services.Wrap(services.ErrValidation, "interview", "start", "language is required", nil)
	}
	return nil
}

// VoiceStart is the reply to POST /voice-interviews/start.
type VoiceStart struct {
	InterviewID              string `json:"interviewId"`
	FirstQuestionText        string `json:"firstQuestionText"`
	FirstQuestionAudioBase64 string `json:"firstQuestionAudioBase64"`
	QuestionType             string `json:"questionType"`
	CurrentQuestionNumber    int    `json:"currentQuestionNumber"`
	TotalQuestions           int    `json:"totalQuestions"`
	AudioFormat              string `json:"audioFormat"`
}

// VoiceAnswer is the reply to an uploaded answer. Either the next question
// fields or IsInterviewComplete (with FinalMessage) are populated.
type VoiceAnswer struct {
	Success                 *bool  `json:"success"`
	Message                 string `json:"message"`
	TranscribedText         string `json:"transcribedText"`
	NextQuestionText        string `json:"nextQuestionText"`
	NextQuestionAudioBase64 string `json:"nextQuestionAudioBase64"`
	QuestionType            string `json:"questionType"`
	CurrentQuestionNumber   int    `json:"currentQuestionNumber"`
	TotalQuestions          int    `json:"totalQuestions"`
	IsInterviewComplete     bool   `json:"isInterviewComplete"`
	FinalMessage            string `json:"finalMessage"`
	AudioFormat             string `json:"audioFormat"`
}

// Failed reports an explicit success=false in a 2xx body.
func (a VoiceAnswer) Failed() bool {
	return a.Success != nil && !*a.Success
}

// QuestionAudio is the reply to GET /voice-interviews/{id}/question/{n}/audio.
type QuestionAudio struct {
	QuestionText   string `json:"questionText"`
	AudioBase64    string `json:"audioBase64"`
	QuestionType   string `json:"questionType"`
	QuestionNumber int    `json:"questionNumber"`
	AudioFormat    string `json:"audioFormat"`
}

// Message is one stored conversation entry.
type Message struct {
	Role           string `json:"role"`
	TextContent    string `json:"textContent"`
	Content        string `json:"content"`
	AudioBase64    string `json:"audioBase64"`
	QuestionType   string `json:"questionType"`
	QuestionNumber int    `json:"questionNumber"`
	Timestamp      int64  `json:"timestamp"`
}

// Text returns whichever text field the backend populated.
func (m Message) Text() string {
	if text := strings.TrimSpace(m.TextContent); text != "" {
		return text
	}
	return strings.TrimSpace(m.Content)
}

// InterviewSummary is a history row.
type InterviewSummary struct {
	ID                string `json:"id"`
	Position          string `json:"position"`
	JobDescription    string `json:"jobDescription"`
	Status            string `json:"status"`
	StartTime         string `json:"startTime"`
	Language          string `json:"language"`
	Company           string `json:"company"`
	QuestionsAnswered int    `json:"questionsAnswered"`
}

// InterviewDetail is a stored interview with its conversation.
type InterviewDetail struct {
	InterviewSummary
	Messages []Message `json:"messages"`
}

// UnmarshalJSON accepts both the envelope shape {interview, messages} and the
// flat shape {id, position, ..., conversation}.
func (d *InterviewDetail) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Interview    *InterviewSummary `json:"interview"`
		Messages     []Message         `json:"messages"`
		Conversation []Message         `json:"conversation"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	var flat InterviewSummary
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	if envelope.Interview != nil {
		d.InterviewSummary = *envelope.Interview
	} else {
		d.InterviewSummary = flat
	}
	if d.ID == "" {
		d.ID = flat.ID
	}
	d.Messages = envelope.Messages
	if len(d.Messages) == 0 {
		d.Messages = envelope.Conversation
	}
	return nil
}

// Recording is a finalized answer ready for upload.
type Recording struct {
	Data        []byte
	Filename    string
	ContentType string
}

// StartVoiceInterview creates a voice interview and returns its first question.
func (c *Client) StartVoiceInterview(ctx context.Context, req StartRequest) (VoiceStart, error) {
	var resp VoiceStart
	if err := req.Validate(); err != nil {
		return resp, err
	}
	if err := c.postJSON(ctx, req, &resp, "voice-interviews", "start"); err != nil {
		return resp, err
	}
	if strings.TrimSpace(resp.InterviewID) == "" {
		return resp, services.Wrap(services.ErrValidation, "backend", "start voice interview", "response did not include an interview id", nil)
	}
	return resp, nil
}

// GetVoiceInterview loads a stored voice interview.
func (c *Client) GetVoiceInterview(ctx context.Context, id string) (InterviewDetail, error) {
	var detail InterviewDetail
	err := c.getJSON(ctx, &detail, "voice-interviews", id)
	return detail, err
}

// VoiceHistory lists the signed-in user's voice interviews.
func (c *Client) VoiceHistory(ctx context.Context) ([]InterviewSummary, error) {
	var rows []InterviewSummary
	err := c.getJSON(ctx, &rows, "voice-interviews", "history")
	return rows, err
}

// QuestionAudio fetches the synthesized audio for question n.
func (c *Client) QuestionAudio(ctx context.Context, id string, n int) (QuestionAudio, error) {
	var resp QuestionAudio
	err := c.getJSON(ctx, &resp, "voice-interviews", id, "question", strconv.Itoa(n), "audio")
	return resp, err
}

// SubmitVoiceAnswer uploads one recording as multipart field "audio". The
// upload is bounded by the upload timeout and never retried automatically.
func (c *Client) SubmitVoiceAnswer(ctx context.Context, id string, rec Recording) (VoiceAnswer, error) {
	var resp VoiceAnswer
	if len(rec.Data) == 0 {
		return resp, services.Wrap(services.ErrValidation, "backend", "submit answer", "recording is empty", nil)
	}
	body, contentType, err := encodeRecording(rec)
	if err != nil {
		return resp, err
	}
	payload, _, err := c.send(ctx, call{
		method:      http.MethodPost,
		segments:    []string{"voice-interviews", id, "answer-audio"},
		body:        body,
		contentType: contentType,
		timeout:     c.uploadTimeout,
	})
	if err != nil {
		return resp, err
	}
	if err := decodeBody(payload, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// CompleteVoiceInterview marks the interview finished on the server.
func (c *Client) CompleteVoiceInterview(ctx context.Context, id string) error {
	return c.postJSON(ctx, nil, nil, "voice-interviews", id, "complete")
}

func encodeRecording(rec Recording) (*bytes.Buffer, string, error) {
	filename := strings.TrimSpace(rec.Filename)
	if filename == "" {
		filename = "answer.wav"
	}
	partType := strings.TrimSpace(rec.ContentType)
	if partType == "" {
		partType = "application/octet-stream"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, AnswerField, filename))
	header.Set("Content-Type", partType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("backend request: create multipart part: %w", err)
	}
	if _, err := part.Write(rec.Data); err != nil {
		return nil, "", fmt.Errorf("backend request: write multipart part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("backend request: close multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
