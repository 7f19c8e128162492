package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"prepcoach/internal/language"
	"prepcoach/internal/services/backend"
	"prepcoach/internal/session"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiBlue   = "\033[34m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type painter struct {
	enabled bool
}

func newPainter(w io.Writer) painter {
	return painter{enabled: shouldColorize(w)}
}

func (p painter) paint(code, s string) string {
	if !p.enabled || s == "" {
		return s
	}
	return code + s + ansiReset
}

// promptLine renders an interviewer question with its position and category.
func promptLine(p painter, turn session.Turn, total int) string {
	var b strings.Builder
	label := "Q"
	if turn.Sequence > 0 {
		label = fmt.Sprintf("Q%d", turn.Sequence)
		if total > 0 {
			label = fmt.Sprintf("Q%d/%d", turn.Sequence, total)
		}
	}
	b.WriteString(p.paint(ansiBold+ansiBlue, label))
	if cat := turn.Category.Label(); cat != "" {
		b.WriteString(" ")
		b.WriteString(p.paint(ansiDim, "["+cat+"]"))
	}
	b.WriteString(" ")
	b.WriteString(turn.Text)
	return b.String()
}

// renderTranscript prints the conversation in order.
func renderTranscript(w io.Writer, sess *session.Session) {
	p := newPainter(w)
	info := sess.Info()
	fmt.Fprintf(w, "%s %s\n", p.paint(ansiBold, "Interview"), sess.ID())
	fmt.Fprintf(w, "  Position: %s\n", valueOrDash(info.Position))
	if info.Company != "" {
		fmt.Fprintf(w, "  Company:  %s\n", info.Company)
	}
	fmt.Fprintf(w, "  Language: %s\n", language.DisplayName(info.Language))
	status := "in progress"
	if sess.IsComplete() {
		status = "complete"
	}
	fmt.Fprintf(w, "  Status:   %s (%d%%)\n\n", status, sess.Progress().Percent())

	for _, turn := range sess.Turns() {
		switch turn.Speaker {
		case session.SpeakerAI:
			fmt.Fprintln(w, promptLine(p, turn, info.Total))
		default:
			fmt.Fprintf(w, "%s %s\n", p.paint(ansiGreen, "  You:"), turn.Text)
		}
	}
}

func historyRows(rows []backend.InterviewSummary) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{
			row.ID,
			row.Position,
			valueOrDash(row.Company),
			language.DisplayName(row.Language),
			strings.ToLower(valueOrDash(row.Status)),
			formatStarted(row.StartTime),
			fmt.Sprintf("%d", row.QuestionsAnswered),
		})
	}
	return out
}

func renderHistory(w io.Writer, rows []backend.InterviewSummary) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No interviews yet. Start one with `prepcoach voice start --position ...`.")
		return
	}
	headers := []string{"ID", "Position", "Company", "Language", "Status", "Started", "Answered"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
	fmt.Fprintln(w, renderTable(headers, historyRows(rows), aligns, map[int]int{1: 40}))
}

// formatStarted accepts RFC 3339 or the backend's local date-time form.
func formatStarted(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.Format("2006-01-02 15:04")
		}
	}
	return value
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
