package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"prepcoach/internal/logging"
)

func TestCleanupOldLogsRemovesExpiredDailyFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	old := filepath.Join(dir, logging.DailyLogName(now.AddDate(0, 0, -40)))
	recent := filepath.Join(dir, logging.DailyLogName(now.AddDate(0, 0, -2)))
	current := filepath.Join(dir, logging.DailyLogName(now))
	unrelated := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, recent, current, unrelated} {
		if err := os.WriteFile(path, []byte("line\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := now.AddDate(0, 0, -40)
	for _, path := range []string{old, current, unrelated} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}
	if err := os.Chtimes(recent, now.AddDate(0, 0, -2), now.AddDate(0, 0, -2)); err != nil {
		t.Fatalf("chtimes recent: %v", err)
	}

	removed := logging.CleanupOldLogs(context.Background(), logging.NewNop(), dir, 30, now)
	if removed != 1 {
		t.Fatalf("expected 1 removed file, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected expired log to be removed, stat err=%v", err)
	}
	for _, path := range []string{recent, current, unrelated} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", filepath.Base(path), err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	path := filepath.Join(dir, logging.DailyLogName(now.AddDate(0, 0, -100)))
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stale := now.AddDate(0, 0, -100)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if removed := logging.CleanupOldLogs(context.Background(), nil, dir, 0, now); removed != 0 {
		t.Fatalf("retention 0 should keep everything, removed %d", removed)
	}
}
