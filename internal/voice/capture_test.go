package voice

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"prepcoach/internal/audio"
)

func TestCaptureStopProducesWAV(t *testing.T) {
	stream := newFakeStream(tone(100, 1000), tone(100, 1000))
	capture := NewCapture(&fakeMic{streams: []*fakeStream{stream}}, CaptureOptions{
		Stream: StreamConfig{SampleRate: 16000, Channels: 1, FramesPerBuffer: 100},
	})
	if err := capture.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitChan(t, "frames drained", stream.drained)

	payload, err := capture.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if payload.Frames != 200 || payload.Empty() {
		t.Fatalf("unexpected payload %+v", payload)
	}
	clip, err := audio.DecodeWAV(payload.Data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if clip.SampleRate != 16000 || len(clip.Samples) != 200 || clip.Samples[0] != 1000 {
		t.Fatalf("unexpected clip %d Hz, %d samples", clip.SampleRate, len(clip.Samples))
	}
	if !stream.closed.Load() {
		t.Fatal("stream must be closed")
	}
}

func TestCaptureStopWithoutStart(t *testing.T) {
	capture := NewCapture(&fakeMic{}, CaptureOptions{})
	if _, err := capture.Stop(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := capture.Abort(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState from Abort, got %v", err)
	}
}

func TestCaptureRejectsSecondStart(t *testing.T) {
	capture := NewCapture(&fakeMic{}, CaptureOptions{})
	if err := capture.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer capture.Abort()
	if err := capture.Start(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCaptureMicrophoneLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "microphone.lock")
	first := NewCapture(&fakeMic{}, CaptureOptions{LockPath: lockPath})
	second := NewCapture(&fakeMic{}, CaptureOptions{LockPath: lockPath})

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	err := second.Start(context.Background())
	if !errors.Is(err, ErrDeviceBusy) || !errors.Is(err, ErrDevice) {
		t.Fatalf("expected ErrDeviceBusy, got %v", err)
	}
	if _, err := first.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
	if err := second.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
}

func TestCaptureOpenFailureReleasesLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "microphone.lock")
	failing := NewCapture(&fakeMic{openErr: errBoom}, CaptureOptions{LockPath: lockPath})
	err := failing.Start(context.Background())
	if !errors.Is(err, ErrDevice) || !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped ErrDevice, got %v", err)
	}
	ok := NewCapture(&fakeMic{}, CaptureOptions{LockPath: lockPath})
	if err := ok.Start(context.Background()); err != nil {
		t.Fatalf("lock must be released after a failed open: %v", err)
	}
	_ = ok.Abort()
}

func TestCaptureReadErrorStillReleases(t *testing.T) {
	stream := newFakeStream(tone(64, 500))
	stream.readErr = errBoom
	lockPath := filepath.Join(t.TempDir(), "microphone.lock")
	capture := NewCapture(&fakeMic{streams: []*fakeStream{stream}}, CaptureOptions{LockPath: lockPath})
	if err := capture.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitChan(t, "reader end", capture.Ended())
	if capture.Truncated() {
		t.Fatal("a device failure must not report the length limit")
	}

	_, err := capture.Stop()
	if !errors.Is(err, ErrDevice) {
		t.Fatalf("expected ErrDevice, got %v", err)
	}
	if !stream.closed.Load() {
		t.Fatal("stream must be closed on the error path")
	}
	again := NewCapture(&fakeMic{}, CaptureOptions{LockPath: lockPath})
	if err := again.Start(context.Background()); err != nil {
		t.Fatalf("lock must be released on the error path: %v", err)
	}
	_ = again.Abort()
}

func TestCaptureMaxDuration(t *testing.T) {
	frames := make([][]int16, 10)
	for i := range frames {
		frames[i] = tone(100, 2000)
	}
	stream := newFakeStream(frames...)
	capture := NewCapture(&fakeMic{streams: []*fakeStream{stream}}, CaptureOptions{
		Stream:      StreamConfig{SampleRate: 1000, Channels: 1},
		MaxDuration: 300 * time.Millisecond,
	})
	if err := capture.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitChan(t, "length limit", capture.Ended())
	if !capture.Truncated() {
		t.Fatal("expected Truncated once the length limit ended the recording")
	}

	payload, err := capture.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !payload.Truncated || payload.Frames != 300 {
		t.Fatalf("expected truncated payload of 300 frames, got %+v", payload)
	}
}

func TestCaptureLevelMonitor(t *testing.T) {
	var (
		mu     sync.Mutex
		levels []int
	)
	stream := newFakeStream(tone(256, 16000))
	capture := NewCapture(&fakeMic{streams: []*fakeStream{stream}}, CaptureOptions{
		LevelInterval: time.Millisecond,
		OnLevel: func(level int) {
			mu.Lock()
			levels = append(levels, level)
			mu.Unlock()
		},
	})
	if err := capture.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "a non-zero level", func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, l := range levels {
			if l > 0 {
				return true
			}
		}
		return false
	})
	if _, err := capture.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	mu.Lock()
	last := levels[len(levels)-1]
	count := len(levels)
	mu.Unlock()
	if last != 0 {
		t.Fatalf("expected a final zero level after stop, got %d", last)
	}
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(levels) != count {
		t.Fatal("level monitor kept publishing after stop")
	}
}

func TestLevel(t *testing.T) {
	if Level(nil) != 0 || Level(make([]int16, 32)) != 0 {
		t.Fatal("silence must be level 0")
	}
	quiet := Level(tone(64, 100))
	loud := Level(tone(64, 10000))
	full := Level(tone(64, 32767))
	if !(quiet < loud && loud < full) {
		t.Fatalf("level must be monotonic: %d %d %d", quiet, loud, full)
	}
	if full != 100 {
		t.Fatalf("full scale should be 100, got %d", full)
	}
}
