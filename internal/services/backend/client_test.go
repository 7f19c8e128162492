package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"prepcoach/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append([]Option{WithSleeper(func(time.Duration) {})}, opts...)
	return NewClient(Config{BaseURL: server.URL + "/api/v1/"}, opts...)
}

func TestClientSendsStandardHeaders(t *testing.T) {
	var seen http.Header
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		if r.URL.Path != "/api/v1/voice-interviews/history" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `[]`)
	}, WithTokenSource(StaticToken("abc")))

	ctx := services.WithRequestID(context.Background(), "req-1")
	if _, err := client.VoiceHistory(ctx); err != nil {
		t.Fatalf("VoiceHistory returned error: %v", err)
	}
	if got := seen.Get("Authorization"); got != "Bearer abc" {
		t.Fatalf("Authorization = %q", got)
	}
	if got := seen.Get(RequestIDHeader); got != "req-1" {
		t.Fatalf("request id = %q", got)
	}
	if got := seen.Get("User-Agent"); got != defaultUserAgent {
		t.Fatalf("User-Agent = %q", got)
	}
	if got := seen.Get("Accept"); got != "application/json" {
		t.Fatalf("Accept = %q", got)
	}
}

func TestClientMintsRequestIDAndSkipsEmptyToken(t *testing.T) {
	var seen http.Header
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		_, _ = io.WriteString(w, `[]`)
	}, WithTokenSource(StaticToken("")))

	if _, err := client.TextHistory(context.Background()); err != nil {
		t.Fatalf("TextHistory returned error: %v", err)
	}
	if seen.Get(RequestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}
	if seen.Get("Authorization") != "" {
		t.Fatalf("expected no Authorization header, got %q", seen.Get("Authorization"))
	}
}

func TestClientRetriesTransientGET(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"totalInterviews":4,"averageScore":7.5}`)
	})

	progress, err := client.Progress(context.Background())
	if err != nil {
		t.Fatalf("Progress returned error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	if progress.TotalInterviews != 4 || progress.AverageScore != 7.5 {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"interview not found"}`)
	})

	_, err := client.GetVoiceInterview(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "interview not found") {
		t.Fatalf("expected server message in error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestClientNeverRetriesPOST(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SubmitVoiceAnswer(context.Background(), "iv-1", Recording{Data: []byte("RIFF")})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || !statusErr.Retryable() {
		t.Fatalf("expected retryable StatusError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestStatusErrorMarkers(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, services.ErrUnauthorized},
		{http.StatusForbidden, services.ErrUnauthorized},
		{http.StatusNotFound, services.ErrNotFound},
		{http.StatusGatewayTimeout, services.ErrTimeout},
		{http.StatusTooManyRequests, services.ErrTransient},
		{http.StatusInternalServerError, services.ErrTransient},
		{http.StatusBadRequest, services.ErrValidation},
	}
	for _, tc := range cases {
		err := newStatusError(http.MethodGet, "/x", tc.status, []byte(`{"error":"boom"}`), 0)
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		if err.Message != "boom" {
			t.Fatalf("status %d: message = %q", tc.status, err.Message)
		}
	}
}

func TestSubmitVoiceAnswerMultipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/voice-interviews/iv-9/answer-audio" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile(AnswerField)
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "pcm-bytes" {
			t.Errorf("unexpected audio payload %q", data)
		}
		if header.Filename != "answer.wav" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		if got := header.Header.Get("Content-Type"); got != "audio/wav" {
			t.Errorf("unexpected part content type %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":               true,
			"transcribedText":       "Hello",
			"nextQuestionText":      "Tell me about yourself",
			"currentQuestionNumber": 2,
			"totalQuestions":        20,
		})
	})

	resp, err := client.SubmitVoiceAnswer(context.Background(), "iv-9", Recording{Data: []byte("pcm-bytes"), ContentType: "audio/wav"})
	if err != nil {
		t.Fatalf("SubmitVoiceAnswer returned error: %v", err)
	}
	if resp.Failed() || resp.TranscribedText != "Hello" || resp.CurrentQuestionNumber != 2 {
		t.Fatalf("unexpected answer %+v", resp)
	}
}

func TestSubmitVoiceAnswerRejectsEmptyRecording(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	_, err := client.SubmitVoiceAnswer(context.Background(), "iv-1", Recording{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("expected no network call for an empty recording")
	}
}

func TestSubmitVoiceAnswerUploadTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, WithUploadTimeout(50*time.Millisecond))

	_, err := client.SubmitVoiceAnswer(context.Background(), "iv-1", Recording{Data: []byte("x")})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestSubmitVoiceAnswerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		cancel()
		<-r.Context().Done()
	})

	_, err := client.SubmitVoiceAnswer(ctx, "iv-1", Recording{Data: []byte("x")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, services.ErrTimeout) || errors.Is(err, services.ErrTransient) {
		t.Fatalf("cancellation must not be classified as a backend failure: %v", err)
	}
}

func TestInterviewDetailShapes(t *testing.T) {
	envelope := `{"interview":{"id":"iv-1","position":"Go developer","status":"IN_PROGRESS"},
		"messages":[{"role":"assistant","textContent":"Hello"},{"role":"user","content":"Hi"}]}`
	flat := `{"id":"iv-2","position":"SRE","conversation":[{"role":"assistant","content":"Question"}]}`

	var detail InterviewDetail
	if err := json.Unmarshal([]byte(envelope), &detail); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if detail.ID != "iv-1" || detail.Position != "Go developer" || len(detail.Messages) != 2 {
		t.Fatalf("unexpected envelope decode %+v", detail)
	}
	if detail.Messages[0].Text() != "Hello" || detail.Messages[1].Text() != "Hi" {
		t.Fatalf("unexpected message text %+v", detail.Messages)
	}

	var other InterviewDetail
	if err := json.Unmarshal([]byte(flat), &other); err != nil {
		t.Fatalf("decode flat: %v", err)
	}
	if other.ID != "iv-2" || len(other.Messages) != 1 || other.Messages[0].Text() != "Question" {
		t.Fatalf("unexpected flat decode %+v", other)
	}
}

func TestSignInRequiresToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req SignInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Email == "ok@example.com" {
			_, _ = io.WriteString(w, `{"token":"tok-1"}`)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	})

	token, err := client.SignIn(context.Background(), SignInRequest{Email: "ok@example.com", Password: "secret"})
	if err != nil || token != "tok-1" {
		t.Fatalf("SignIn = %q, %v", token, err)
	}
	if _, err := client.SignIn(context.Background(), SignInRequest{Email: "empty@example.com", Password: "secret"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty token, got %v", err)
	}
}

func TestSignUpValidatesBeforeRequest(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{}`)
	})
	cases := []SignUpRequest{
		{FullName: "", Email: "a@b.c", Password: "secret"},
		{FullName: "Ann", Email: "not-an-email", Password: "secret"},
		{FullName: "Ann", Email: "a@b.c", Password: "short"},
	}
	for _, req := range cases {
		if _, err := client.SignUp(context.Background(), req); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no requests, got %d", calls.Load())
	}
	if _, err := client.SignUp(context.Background(), SignUpRequest{FullName: "Ann", Email: "a@b.c", Password: "secret"}); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
}

func TestTextInterviewFlow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/interviews/start":
			_, _ = io.WriteString(w, `{"interviewId":"t-1","firstQuestion":"Why Go?","currentQuestionNumber":1,"totalQuestions":20}`)
		case "/api/v1/interviews/t-1/answer":
			var req answerRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Answer != "Because" {
				t.Errorf("unexpected answer %q", req.Answer)
			}
			_, _ = io.WriteString(w, `{"role":"assistant","content":"Next?","currentQuestionNumber":2}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	start, err := client.StartTextInterview(context.Background(), StartRequest{Position: "Go developer", Language: "en"})
	if err != nil || start.InterviewID != "t-1" {
		t.Fatalf("StartTextInterview = %+v, %v", start, err)
	}
	answer, err := client.SubmitTextAnswer(context.Background(), "t-1", "  Because ")
	if err != nil {
		t.Fatalf("SubmitTextAnswer returned error: %v", err)
	}
	if answer.Prompt() != "Next?" {
		t.Fatalf("Prompt = %q", answer.Prompt())
	}
}

func TestStartRequiresPosition(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	if _, err := client.StartVoiceInterview(context.Background(), StartRequest{Language: "en"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestQuestionAudioPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/voice-interviews/iv-3/question/4/audio" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"questionText":"Q4","audioBase64":"AAA=","questionNumber":4,"audioFormat":"mp3"}`)
	})
	audio, err := client.QuestionAudio(context.Background(), "iv-3", 4)
	if err != nil {
		t.Fatalf("QuestionAudio returned error: %v", err)
	}
	if audio.QuestionNumber != 4 || audio.AudioFormat != "mp3" {
		t.Fatalf("unexpected audio %+v", audio)
	}
}

func TestExportBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/export/csv" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "text/csv" {
			t.Errorf("Accept = %q", got)
		}
		var req exportRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.InterviewIDs) != 2 {
			t.Errorf("unexpected ids %v", req.InterviewIDs)
		}
		_, _ = io.WriteString(w, "id,score\n")
	})

	data, err := client.ExportBatch(context.Background(), "CSV", []string{"a", " ", "b"})
	if err != nil {
		t.Fatalf("ExportBatch returned error: %v", err)
	}
	if string(data) != "id,score\n" {
		t.Fatalf("unexpected export body %q", data)
	}
	if _, err := client.ExportBatch(context.Background(), "xlsx", []string{"a"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown format, got %v", err)
	}
}

func TestHealthCheckTreatsClientErrorsAsReachable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetryMaxAttempts(1))
	if err := down.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail on 5xx")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("parseRetryAfter(3) = %v, %v", d, ok)
	}
	if _, ok := parseRetryAfter("soon"); ok {
		t.Fatal("expected invalid value to be rejected")
	}
}
