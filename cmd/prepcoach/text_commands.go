package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"prepcoach/internal/language"
	"prepcoach/internal/logging"
	"prepcoach/internal/services"
	"prepcoach/internal/session"
	"prepcoach/internal/textmode"
)

func newTextCommand(ctx *commandContext) *cobra.Command {
	textCmd := &cobra.Command{
		Use:   "text",
		Short: "Run and review typed interviews",
	}
	textCmd.AddCommand(newTextStartCommand(ctx))
	textCmd.AddCommand(newTextResumeCommand(ctx))
	textCmd.AddCommand(newHistoryCommand(ctx, session.ModeText))
	textCmd.AddCommand(newShowCommand(ctx, session.ModeText))
	textCmd.AddCommand(newCompleteCommand(ctx, session.ModeText))
	return textCmd
}

func newTextStartCommand(ctx *commandContext) *cobra.Command {
	var flags startFlags

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new typed interview",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}
			req, err := flags.request(ctx.configValue())
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(ctx.ensureLogger(), "textmode")
			runner, first, err := textmode.Start(cmd.Context(), client, req, logger)
			if err != nil {
				return fmt.Errorf("start interview: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Interview %s: %s (%s)\n", runner.Session().ID(), req.Position, language.DisplayName(req.Language))
			fmt.Fprintln(out, "Type your answer and press Enter. /quit ends the interview, /help lists commands.")
			fmt.Fprintln(out, promptLine(newPainter(out), first, runner.Session().TotalTurns()))
			return runTextLoop(cmd, runner, logger)
		},
	}
	flags.register(cmd)
	return cmd
}

func newTextResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <interview-id>",
		Short: "Continue an unfinished typed interview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}
			sess, err := loadSession(cmd.Context(), client, session.ModeText, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			renderTranscript(out, sess)
			if sess.IsComplete() {
				fmt.Fprintf(out, "\nThis interview is already complete. See `prepcoach report %s`.\n", sess.ID())
				return nil
			}
			logger := logging.NewComponentLogger(ctx.ensureLogger(), "textmode")
			return runTextLoop(cmd, textmode.Resume(sess, client, logger), logger)
		},
	}
}

func runTextLoop(cmd *cobra.Command, runner *textmode.Runner, logger *slog.Logger) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx := services.WithInterviewID(sigCtx, runner.Session().ID())

	err := textLoop(runCtx, runner, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	if errors.Is(err, context.Canceled) && sigCtx.Err() != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\nInterrupted. Resume with `prepcoach text resume %s`.\n", runner.Session().ID())
	}
	return err
}

func textLoop(ctx context.Context, runner *textmode.Runner, in io.Reader, out io.Writer, logger *slog.Logger) error {
	feed := newInputFeed(in)
	paint := newPainter(out)
	sess := runner.Session()
	var unsent string

	for {
		if sess.IsComplete() {
			fmt.Fprintf(out, "Interview complete. See your results with `prepcoach report %s`.\n", sess.ID())
			return nil
		}
		fmt.Fprint(out, paint.paint(ansiGreen, "> "))
		line, ok, err := feed.next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "\nInput closed. Resume with `prepcoach text resume %s`.\n", sess.ID())
			return nil
		}

		switch strings.ToLower(line) {
		case "/quit", "/q":
			runner.End(ctx)
			fmt.Fprintf(out, "Interview ended. See your results with `prepcoach report %s`.\n", sess.ID())
			return nil
		case "/help", "/h":
			fmt.Fprintln(out, "/retry  resend the answer that failed to send")
			fmt.Fprintln(out, "/repeat show the current question again")
			fmt.Fprintln(out, "/quit   end the interview now")
			continue
		case "/repeat":
			if last, ok := sess.LastPrompt(); ok {
				fmt.Fprintln(out, promptLine(paint, last, sess.TotalTurns()))
			}
			continue
		case "/retry":
			if unsent == "" {
				fmt.Fprintln(out, paint.paint(ansiYellow, "There is no unsent answer."))
				continue
			}
			line = unsent
		}

		res, err := runner.Answer(ctx, line)
		switch {
		case err == nil:
			unsent = ""
			fmt.Fprintln(out, promptLine(paint, res.Prompt, sess.TotalTurns()))
		case errors.Is(err, textmode.ErrEmptyAnswer):
			fmt.Fprintln(out, paint.paint(ansiYellow, "Type an answer first."))
		case errors.Is(err, session.ErrInvalidSession), errors.Is(err, context.Canceled):
			return err
		case errors.Is(err, textmode.ErrNoNextQuestion):
			unsent = ""
			logger.Warn("answer accepted without a next question", logging.Error(err))
			fmt.Fprintf(out, "%s
", paint.paint(ansiYellow, fmt.Sprintf(
				"Your answer was received but the next question did not arrive. Reload with `prepcoach text resume %s`.", sess.ID())))
			return nil
		default:
			unsent = line
			logger.Warn("answer not sent", logging.Error(err))
			fmt.Fprintln(out, paint.paint(ansiYellow, fmt.Sprintf("Your answer could not be sent (%v). /retry resends it.", err)))
		}
	}
}
