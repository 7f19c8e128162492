package main

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"prepcoach/internal/testsupport"
)

func TestExportSinglePDF(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithToken("tok"))
	env.backend.Handle(http.MethodGet, "/export/{id}/pdf", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/pdf" {
			t.Errorf("accept = %q", got)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.4 "+r.PathValue("id"))
	})
	dir := t.TempDir()

	out, _, err := runCLI(t, []string{"export", "iv-1", "--output", dir}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	first := filepath.Join(dir, "interview-iv-1.pdf")
	requireContains(t, out, first)
	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "%PDF-1.4 iv-1" {
		t.Fatalf("unexpected export content %q", data)
	}

	out, _, err = runCLI(t, []string{"export", "iv-1", "--output", dir}, env.configPath)
	if err != nil {
		t.Fatalf("second export: %v", err)
	}
	requireContains(t, out, filepath.Join(dir, "interview-iv-1-1.pdf"))
}

func TestExportBatchCSV(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithToken("tok"))
	env.backend.Handle(http.MethodPost, "/export/csv", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			InterviewIDs []string `json:"interviewIds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode export body: %v", err)
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "id\n"+strings.Join(body.InterviewIDs, "\n")+"\n")
	})
	target := filepath.Join(t.TempDir(), "all.csv")

	out, _, err := runCLI(t, []string{"--json", "export", "iv-1", "iv-2", "--format", "csv", "--output", target}, env.configPath)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	var result exportResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Path != target || result.Format != "csv" || len(result.Interview) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "id\niv-1\niv-2\n" {
		t.Fatalf("unexpected csv %q", data)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithToken("tok"))
	_, _, err := runCLI(t, []string{"export", "iv-1", "--format", "docx"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected format error, got %v", err)
	}
	if got := len(env.backend.Requests()); got != 0 {
		t.Fatalf("expected no requests, got %d", got)
	}
}

func TestExportPathNamesBatches(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got, err := exportPath(dir, "pdf", []string{"a", "b"}, now)
	if err != nil {
		t.Fatalf("exportPath: %v", err)
	}
	if want := filepath.Join(dir, "interviews-20260304-050607.pdf"); got != want {
		t.Fatalf("exportPath = %q, want %q", got, want)
	}
}
