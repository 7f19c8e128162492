package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"prepcoach/internal/audio"
	"prepcoach/internal/services/backend"
)

type fakeStream struct {
	mu      sync.Mutex
	frames  [][]int16
	readErr error
	drained chan struct{}
	once    sync.Once
	closed  atomic.Bool
}

func newFakeStream(frames ...[]int16) *fakeStream {
	return &fakeStream{frames: frames, drained: make(chan struct{})}
}

func (s *fakeStream) Read() ([]int16, error) {
	s.mu.Lock()
	if len(s.frames) > 0 {
		frame := s.frames[0]
		s.frames = s.frames[1:]
		s.mu.Unlock()
		return frame, nil
	}
	err := s.readErr
	s.mu.Unlock()
	s.once.Do(func() { close(s.drained) })
	if err != nil {
		return nil, err
	}
	time.Sleep(time.Millisecond)
	return nil, nil
}

func (s *fakeStream) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeMic struct {
	mu      sync.Mutex
	streams []*fakeStream
	openErr error
	opened  int
}

func (m *fakeMic) Open(context.Context, StreamConfig) (InputStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	m.opened++
	if len(m.streams) == 0 {
		return newFakeStream(), nil
	}
	stream := m.streams[0]
	m.streams = m.streams[1:]
	return stream, nil
}

type fakeSpeaker struct {
	block   bool
	started chan struct{}
	err     error
	plays   atomic.Int32

	active    atomic.Int32
	maxActive atomic.Int32
	mu        sync.Mutex
	events    []string
}

func newFakeSpeaker(block bool) *fakeSpeaker {
	return &fakeSpeaker{block: block, started: make(chan struct{}, 8)}
}

func (s *fakeSpeaker) Play(ctx context.Context, clip audio.Clip) error {
	n := s.plays.Add(1)
	now := s.active.Add(1)
	for {
		peak := s.maxActive.Load()
		if now <= peak || s.maxActive.CompareAndSwap(peak, now) {
			break
		}
	}
	s.record(fmt.Sprintf("start %d", n))
	defer func() {
		s.record(fmt.Sprintf("end %d", n))
		s.active.Add(-1)
	}()
	s.started <- struct{}{}
	if s.err != nil {
		return s.err
	}
	if s.block {
		<-ctx.Done()
	}
	return nil
}

func (s *fakeSpeaker) record(event string) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *fakeSpeaker) history() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

type fakeSynth struct {
	mu    sync.Mutex
	texts []string
	langs []string
	err   error
}

func (s *fakeSynth) Speak(_ context.Context, text, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	s.langs = append(s.langs, language)
	return s.err
}

func (s *fakeSynth) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

type fakeBackend struct {
	mu        sync.Mutex
	submit    func(ctx context.Context, rec backend.Recording) (backend.VoiceAnswer, error)
	payloads  [][]byte
	completed atomic.Int32
	entered   chan struct{}
}

func newFakeBackend(submit func(ctx context.Context, rec backend.Recording) (backend.VoiceAnswer, error)) *fakeBackend {
	return &fakeBackend{submit: submit, entered: make(chan struct{}, 8)}
}

func (b *fakeBackend) SubmitVoiceAnswer(ctx context.Context, _ string, rec backend.Recording) (backend.VoiceAnswer, error) {
	b.mu.Lock()
	b.payloads = append(b.payloads, append([]byte(nil), rec.Data...))
	b.mu.Unlock()
	b.entered <- struct{}{}
	return b.submit(ctx, rec)
}

func (b *fakeBackend) CompleteVoiceInterview(context.Context, string) error {
	b.completed.Add(1)
	return nil
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.payloads)
}

func nextQuestion(transcript, question string, number int) func(context.Context, backend.Recording) (backend.VoiceAnswer, error) {
	return func(context.Context, backend.Recording) (backend.VoiceAnswer, error) {
		ok := true
		return backend.VoiceAnswer{
			Success:               &ok,
			TranscribedText:       transcript,
			NextQuestionText:      question,
			CurrentQuestionNumber: number,
			TotalQuestions:        20,
		}, nil
	}
}

var errBoom = errors.New("boom")

func tone(n int, amplitude int16) []int16 {
	frame := make([]int16, n)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = amplitude
		} else {
			frame[i] = -amplitude
		}
	}
	return frame
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitChan(t *testing.T, what string, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
