package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"prepcoach/internal/services"
	"prepcoach/internal/services/backend"
	"prepcoach/internal/session"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report <interview-id>",
		Short: "Show scored feedback for a finished interview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.ValidateID(args[0]); err != nil {
				return err
			}
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}
			report, err := client.InterviewReport(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, services.ErrNotFound) {
					return services.Wrap(services.ErrNotFound, "report", "fetch",
						fmt.Sprintf("no report for interview %s; finish it first", args[0]), err)
				}
				return fmt.Errorf("fetch report: %w", err)
			}
			if ctx.wantJSON() {
				return writeJSON(cmd, report)
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func renderReport(w io.Writer, report backend.InterviewReport) {
	paint := newPainter(w)
	fmt.Fprintf(w, "%s %s (%d questions)\n\n",
		paint.paint(ansiBold, "Overall score:"), formatScore(report.OverallScore), report.TotalQuestions)

	if len(report.SkillsAnalysis) > 0 {
		rows := make([][]string, 0, len(report.SkillsAnalysis))
		for _, key := range slices.Sorted(maps.Keys(report.SkillsAnalysis)) {
			skill := report.SkillsAnalysis[key]
			name := skill.SkillName
			if name == "" {
				name = key
			}
			rows = append(rows, []string{
				name,
				formatScore(skill.AverageScore),
				strconv.Itoa(skill.QuestionsCount),
				valueOrDash(skill.Performance),
			})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"Skill", "Score", "Questions", "Performance"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			nil,
		))
		fmt.Fprintln(w)
	}

	if len(report.QuestionEvaluations) > 0 {
		rows := make([][]string, 0, len(report.QuestionEvaluations))
		for _, q := range report.QuestionEvaluations {
			rows = append(rows, []string{
				strconv.Itoa(q.QuestionNumber),
				valueOrDash(q.QuestionType),
				strconv.Itoa(q.Score),
				valueOrDash(q.Feedback),
			})
		}
		width := terminalWidth(w, 100) - 40
		fmt.Fprintln(w, renderTable(
			[]string{"#", "Type", "Score", "Feedback"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
			map[int]int{3: max(width, 30)},
		))
		fmt.Fprintln(w)
	}

	renderList(w, paint, "Strengths", report.Strengths)
	renderList(w, paint, "Weaknesses", report.Weaknesses)
	renderList(w, paint, "Recommendations", report.Recommendations)
}

func renderList(w io.Writer, paint painter, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w, paint.paint(ansiBold, title))
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(item))
	}
	fmt.Fprintln(w)
}

func newProgressCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show score trends across your interviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}
			progress, err := client.Progress(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch progress: %w", err)
			}
			if ctx.wantJSON() {
				return writeJSON(cmd, progress)
			}
			renderProgress(cmd.OutOrStdout(), progress)
			return nil
		},
	}
}

func renderProgress(w io.Writer, progress backend.ProgressAnalytics) {
	if progress.TotalInterviews == 0 {
		fmt.Fprintln(w, "No interviews yet. Start one with `prepcoach voice start --position <title>`.")
		return
	}
	fmt.Fprintf(w, "Interviews: %d  Average score: %s  Change: %s\n\n",
		progress.TotalInterviews, formatScore(progress.AverageScore), formatDelta(progress.ScoreImprovement))

	if len(progress.SkillsProgress) > 0 {
		rows := make([][]string, 0, len(progress.SkillsProgress))
		for _, key := range slices.Sorted(maps.Keys(progress.SkillsProgress)) {
			skill := progress.SkillsProgress[key]
			name := skill.SkillName
			if name == "" {
				name = key
			}
			rows = append(rows, []string{
				name,
				formatScore(skill.CurrentScore),
				formatScore(skill.PreviousScore),
				formatDelta(skill.Improvement),
				valueOrDash(skill.Trend),
			})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"Skill", "Current", "Previous", "Change", "Trend"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			nil,
		))
		fmt.Fprintln(w)
	}

	if len(progress.RecentInterviews) > 0 {
		rows := make([][]string, 0, len(progress.RecentInterviews))
		for _, r := range progress.RecentInterviews {
			rows = append(rows, []string{
				r.InterviewID,
				valueOrDash(r.Position),
				formatStarted(r.Date),
				formatScore(r.Score),
				valueOrDash(r.Status),
			})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"ID", "Position", "Date", "Score", "Status"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			map[int]int{1: 32},
		))
	}
}

func newSkillsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skills",
		Short: "Show your aggregated skill analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}
			skills, err := client.Skills(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch skills: %w", err)
			}
			if ctx.wantJSON() {
				return writeJSON(cmd, skills)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Skill", "Score", "Questions", "Performance"},
				[][]string{{
					valueOrDash(skills.SkillName),
					formatScore(skills.AverageScore),
					strconv.Itoa(skills.QuestionsCount),
					valueOrDash(skills.Performance),
				}},
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				nil,
			))
			renderList(out, newPainter(out), "Key points", skills.KeyPoints)
			return nil
		},
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatDelta(v float64) string {
	if v > 0 {
		return "+" + formatScore(v)
	}
	return formatScore(v)
}
