package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prepcoach/internal/services"
	"prepcoach/internal/services/backend"
	"prepcoach/internal/session"
)

// loadSession fetches a stored interview and rebuilds its conversation. A
// missing interview is an InvalidSessionError.
func loadSession(ctx context.Context, client *backend.Client, mode session.Mode, id string) (*session.Session, error) {
	id = strings.TrimSpace(id)
	if err := session.ValidateID(id); err != nil {
		return nil, err
	}
	var (
		detail backend.InterviewDetail
		err    error
	)
	if mode == session.ModeText {
		detail, err = client.GetTextInterview(ctx, id)
	} else {
		detail, err = client.GetVoiceInterview(ctx, id)
	}
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, &session.InvalidSessionError{ID: id, Reason: "interview not found", Err: err}
		}
		return nil, fmt.Errorf("load interview: %w", err)
	}
	if detail.ID == "" {
		detail.ID = id
	}
	return session.FromDetail(detail, mode, 0)
}

func newHistoryCommand(ctx *commandContext, mode session.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: fmt.Sprintf("List your %s interviews", mode),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}
			var rows []backend.InterviewSummary
			if mode == session.ModeText {
				rows, err = client.TextHistory(cmd.Context())
			} else {
				rows, err = client.VoiceHistory(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if ctx.wantJSON() {
				if rows == nil {
					rows = []backend.InterviewSummary{}
				}
				return writeJSON(cmd, rows)
			}
			renderHistory(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

type transcriptTurn struct {
	Speaker  string `json:"speaker"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	Sequence int    `json:"sequence"`
	HasAudio bool   `json:"has_audio"`
}

type transcriptView struct {
	ID       string           `json:"id"`
	Position string           `json:"position"`
	Company  string           `json:"company,omitempty"`
	Language string           `json:"language"`
	Mode     string           `json:"mode"`
	Complete bool             `json:"complete"`
	Turns    []transcriptTurn `json:"turns"`
}

func newTranscriptView(sess *session.Session) transcriptView {
	info := sess.Info()
	view := transcriptView{
		ID:       sess.ID(),
		Position: info.Position,
		Company:  info.Company,
		Language: info.Language,
		Mode:     string(info.Mode),
		Complete: sess.IsComplete(),
	}
	for _, turn := range sess.Turns() {
		view.Turns = append(view.Turns, transcriptTurn{
			Speaker:  string(turn.Speaker),
			Text:     turn.Text,
			Category: string(turn.Category),
			Sequence: turn.Sequence,
			HasAudio: len(turn.Audio) > 0,
		})
	}
	return view
}

func newShowCommand(ctx *commandContext, mode session.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   "show <interview-id>",
		Short: "Show an interview transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}
			sess, err := loadSession(cmd.Context(), client, mode, args[0])
			if err != nil {
				return err
			}
			if ctx.wantJSON() {
				return writeJSON(cmd, newTranscriptView(sess))
			}
			renderTranscript(cmd.OutOrStdout(), sess)
			return nil
		},
	}
}

func newCompleteCommand(ctx *commandContext, mode session.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <interview-id>",
		Short: "Mark an interview as finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			if err := session.ValidateID(id); err != nil {
				return err
			}
			if mode == session.ModeText {
				err = client.CompleteTextInterview(cmd.Context(), id)
			} else {
				err = client.CompleteVoiceInterview(cmd.Context(), id)
			}
			if err != nil {
				return fmt.Errorf("complete %s interview: %w", mode, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Interview %s marked complete\n", id)
			return nil
		},
	}
}
