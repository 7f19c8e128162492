package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"prepcoach/internal/services/backend"
	"prepcoach/internal/testsupport"
)

func registerTextInterview(t *testing.T, fake *testsupport.Backend, failFirstAnswer bool) *atomic.Int32 {
	t.Helper()
	var answers atomic.Int32
	fake.Handle(http.MethodPost, "/interviews/start", func(w http.ResponseWriter, r *http.Request) {
		var req backend.StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode start: %v", err)
		}
		if req.Position != "Go Developer" || req.Language != "en" {
			t.Errorf("unexpected start request %+v", req)
		}
		testsupport.JSON(t, w, http.StatusOK, backend.TextStart{
			InterviewID:           "tx-1",
			FirstQuestion:         "Tell me about yourself",
			QuestionType:          "BACKGROUND",
			CurrentQuestionNumber: 1,
			TotalQuestions:        2,
		})
	})
	fake.Handle(http.MethodPost, "/interviews/{id}/answer", func(w http.ResponseWriter, r *http.Request) {
		n := answers.Add(1)
		if failFirstAnswer && n == 1 {
			testsupport.JSON(t, w, http.StatusServiceUnavailable, map[string]string{"message": "model overloaded"})
			return
		}
		testsupport.JSON(t, w, http.StatusOK, backend.TextAnswer{
			NextQuestion:          "Why Go?",
			QuestionType:          "TECHNICAL",
			CurrentQuestionNumber: 2,
			TotalQuestions:        2,
		})
	})
	fake.Handle(http.MethodPost, "/interviews/{id}/complete", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &answers
}

func TestTextInterviewAnswerAndQuit(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithToken("tok"))
	registerTextInterview(t, env.backend, false)

	in := strings.NewReader("I write Go services\n/quit\n")
	out, _, err := runCLIWithInput(t, []string{"text", "start", "--position", "Go Developer"}, env.configPath, in)
	if err != nil {
		t.Fatalf("text start: %v", err)
	}
	requireContains(t, out, "Interview tx-1")
	requireContains(t, out, "Q1/2")
	requireContains(t, out, "Tell me about yourself")
	requireContains(t, out, "Why Go?")
	requireContains(t, out, "Interview ended")
	requireRequest(t, env.backend, "POST /api/v1/interviews/tx-1/answer")
	requireRequest(t, env.backend, "POST /api/v1/interviews/tx-1/complete")
}

func TestTextInterviewPausesOnEOF(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithToken("tok"))
	registerTextInterview(t, env.backend, false)

	out, _, err := runCLIWithInput(t, []string{"text", "start", "-p", "Go Developer"}, env.configPath, strings.NewReader("   \n"))
	if err != nil {
		t.Fatalf("text start: %v", err)
	}
	requireContains(t, out, "Type an answer first.")
	requireContains(t, out, "prepcoach text resume tx-1")
	for _, req := range env.backend.Requests() {
		if strings.HasSuffix(req, "/complete") || strings.HasSuffix(req, "/answer") {
			t.Fatalf("unexpected request %s", req)
		}
	}
}

func TestTextInterviewRetryResendsFailedAnswer(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithToken("tok"))
	answers := registerTextInterview(t, env.backend, true)

	in := strings.NewReader("I write Go services\n/retry\n/quit\n")
	out, _, err := runCLIWithInput(t, []string{"text", "start", "-p", "Go Developer"}, env.configPath, in)
	if err != nil {
		t.Fatalf("text start: %v", err)
	}
	requireContains(t, out, "/retry resends it")
	requireContains(t, out, "Why Go?")
	if got := answers.Load(); got != 2 {
		t.Fatalf("expected 2 answer attempts, got %d", got)
	}
}

func TestTextRetryWithoutPendingAnswer(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithToken("tok"))
	registerTextInterview(t, env.backend, false)

	out, _, err := runCLIWithInput(t, []string{"text", "start", "-p", "Go Developer"}, env.configPath, strings.NewReader("/retry\n"))
	if err != nil {
		t.Fatalf("text start: %v", err)
	}
	requireContains(t, out, "There is no unsent answer.")
}

func TestTextInterviewAcceptedAnswerWithoutQuestionIsNotResent(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithToken("tok"))
	var answers atomic.Int32
	env.backend.Handle(http.MethodPost, "/interviews/start", func(w http.ResponseWriter, r *http.Request) {
		testsupport.JSON(t, w, http.StatusOK, backend.TextStart{
			InterviewID:           "tx-2",
			FirstQuestion:         "Tell me about yourself",
			CurrentQuestionNumber: 1,
			TotalQuestions:        2,
		})
	})
	env.backend.Handle(http.MethodPost, "/interviews/{id}/answer", func(w http.ResponseWriter, r *http.Request) {
		answers.Add(1)
		testsupport.JSON(t, w, http.StatusOK, backend.TextAnswer{CurrentQuestionNumber: 2, TotalQuestions: 2})
	})

	in := strings.NewReader("I write Go services\n/retry\n")
	out, _, err := runCLIWithInput(t, []string{"text", "start", "-p", "Go Developer"}, env.configPath, in)
	if err != nil {
		t.Fatalf("text start: %v", err)
	}
	requireContains(t, out, "Your answer was received")
	requireContains(t, out, "prepcoach text resume tx-2")
	if strings.Contains(out, "/retry resends it") {
		t.Fatalf("accepted answer must not be offered for resend:\n%s", out)
	}
	if got := answers.Load(); got != 1 {
		t.Fatalf("expected a single answer submission, got %d", got)
	}
}
