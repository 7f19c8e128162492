package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"prepcoach/internal/audio/device"
	"prepcoach/internal/config"
	"prepcoach/internal/language"
	"prepcoach/internal/logging"
	"prepcoach/internal/preflight"
	"prepcoach/internal/services"
	"prepcoach/internal/services/backend"
	"prepcoach/internal/session"
	"prepcoach/internal/speech"
	"prepcoach/internal/voice"
)

func newVoiceCommand(ctx *commandContext) *cobra.Command {
	voiceCmd := &cobra.Command{
		Use:   "voice",
		Short: "Run and review spoken interviews",
	}
	voiceCmd.AddCommand(newVoiceStartCommand(ctx))
	voiceCmd.AddCommand(newVoiceResumeCommand(ctx))
	voiceCmd.AddCommand(newHistoryCommand(ctx, session.ModeVoice))
	voiceCmd.AddCommand(newShowCommand(ctx, session.ModeVoice))
	voiceCmd.AddCommand(newCompleteCommand(ctx, session.ModeVoice))
	return voiceCmd
}

type startFlags struct {
	position       string
	jobDescription string
	company        string
	language       string
}

func (f *startFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.position, "position", "p", "", "Job title to interview for")
	cmd.Flags().StringVar(&f.jobDescription, "job-description", "", "Job description text or @path to read it from a file")
	cmd.Flags().StringVar(&f.company, "company", "", "Company name (defaults to interview.company)")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "Interview language: en, ru, or kz (defaults to interview.language)")
	_ = cmd.MarkFlagRequired("position")
}

func (f *startFlags) request(cfg *config.Config) (backend.StartRequest, error) {
	lang := f.language
	if strings.TrimSpace(lang) == "" {
		lang = cfg.Interview.Language
	}
	code, err := language.Normalize(lang)
	if err != nil {
		return backend.StartRequest{}, services.Wrap(services.ErrValidation, "interview", "start", err.Error(), nil)
	}
	company := strings.TrimSpace(f.company)
	if company == "" {
		company = cfg.Interview.Company
	}
	description := strings.TrimSpace(f.jobDescription)
	if path, ok := strings.CutPrefix(description, "@"); ok {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return backend.StartRequest{}, err
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return backend.StartRequest{}, fmt.Errorf("read job description: %w", err)
		}
		description = strings.TrimSpace(string(data))
	}
	req := backend.StartRequest{
		Position:       strings.TrimSpace(f.position),
		JobDescription: description,
		Language:       code,
		Company:        company,
	}
	return req, req.Validate()
}

func newVoiceStartCommand(ctx *commandContext) *cobra.Command {
	var flags startFlags

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new voice interview",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}
			req, err := flags.request(cfg)
			if err != nil {
				return err
			}
			if check := preflight.CheckBackend(cmd.Context(), cfg.API.BaseURL, client); !check.Passed {
				return services.Wrap(services.ErrTransient, "backend", "health", check.Detail, nil)
			}

			resp, err := client.StartVoiceInterview(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("start interview: %w", err)
			}
			sess, err := session.New(resp.InterviewID, session.Info{
				Position: req.Position,
				Company:  req.Company,
				Language: req.Language,
				Mode:     session.ModeVoice,
				Total:    firstPositive(resp.TotalQuestions, cfg.Interview.TotalQuestions),
			})
			if err != nil {
				return err
			}
			opening, audioErr := voice.OpeningPrompt(resp)
			if audioErr != nil {
				ctx.ensureLogger().Warn("opening question audio unreadable", logging.Error(audioErr))
			}
			if opening.Text == "" && len(opening.Audio) == 0 {
				return fmt.Errorf("start interview: server sent no first question")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Interview %s: %s (%s)\n", sess.ID(), req.Position, language.DisplayName(req.Language))
			return runVoiceSession(cmd, ctx, client, sess, &opening)
		},
	}
	flags.register(cmd)
	return cmd
}

func newVoiceResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <interview-id>",
		Short: "Continue an unfinished voice interview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authenticatedClient()
			if err != nil {
				return err
			}
			sess, err := loadSession(cmd.Context(), client, session.ModeVoice, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			renderTranscript(out, sess)
			if sess.IsComplete() {
				fmt.Fprintf(out, "\nThis interview is already complete. See `prepcoach report %s`.\n", sess.ID())
				return nil
			}
			fmt.Fprintln(out)
			return runVoiceSession(cmd, ctx, client, sess, nil)
		},
	}
}

// runVoiceSession opens the audio devices and drives the turn loop. With a
// nil opening the last stored question is replayed.
func runVoiceSession(cmd *cobra.Command, ctx *commandContext, client *backend.Client, sess *session.Session, opening *voice.Prompt) error {
	cfg := ctx.configValue()
	logger := ctx.ensureLogger()

	release, err := device.Initialize()
	if err != nil {
		return err
	}
	defer release()

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx := services.WithInterviewID(sigCtx, sess.ID())

	meter := newLevelMeter(cmd.ErrOrStderr())
	ctrl, err := voice.NewController(voice.Options{
		Session:     sess,
		Backend:     client,
		Microphone:  device.NewMicrophone(logging.NewComponentLogger(logger, "microphone")),
		Speaker:     device.NewSpeaker(cfg.Audio.OutputDevice, cfg.Audio.FramesPerBuffer, logging.NewComponentLogger(logger, "speaker")),
		Synthesizer: newSynthesizer(cfg, logger),
		Capture:     captureOptions(cfg, meter.Update),
		Language:    sess.Info().Language,
		Logger:      logging.NewComponentLogger(logger, "voice"),
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	loop := newVoiceLoop(ctrl, cmd.InOrStdin(), cmd.OutOrStdout(), meter, cfg.Interview.RetryPolicy, logger)
	if opening == nil {
		if last, ok := sess.LastPrompt(); ok {
			prompt := resumePrompt(runCtx, client, sess, last, logger)
			if err := ctrl.Speak(prompt); err != nil {
				_ = loop.report(err)
			}
		}
	}

	err = loop.run(runCtx, opening)
	if errors.Is(err, context.Canceled) && sigCtx.Err() != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\nInterrupted. Resume with `prepcoach voice resume %s`.\n", sess.ID())
	}
	return err
}

// resumePrompt returns the stored question, fetching its audio when history
// carried text only.
func resumePrompt(ctx context.Context, client *backend.Client, sess *session.Session, last session.Turn, logger *slog.Logger) voice.Prompt {
	prompt := voice.TurnPrompt(last)
	prompt.Language = sess.Info().Language
	if len(prompt.Audio) > 0 || last.Sequence <= 0 {
		return prompt
	}
	resp, err := client.QuestionAudio(ctx, sess.ID(), last.Sequence)
	if err != nil {
		logger.Debug("question audio unavailable; using speech synthesis", logging.Error(err))
		return prompt
	}
	fetched, err := voice.QuestionPrompt(resp)
	if err != nil || len(fetched.Audio) == 0 {
		return prompt
	}
	prompt.Audio = fetched.Audio
	prompt.Format = fetched.Format
	return prompt
}

func captureOptions(cfg *config.Config, onLevel func(int)) voice.CaptureOptions {
	return voice.CaptureOptions{
		Stream: voice.StreamConfig{
			Device:           cfg.Audio.InputDevice,
			SampleRate:       cfg.Audio.SampleRate,
			Channels:         cfg.Audio.Channels,
			FramesPerBuffer:  cfg.Audio.FramesPerBuffer,
			EchoCancellation: cfg.Audio.EchoCancellation,
			NoiseSuppression: cfg.Audio.NoiseSuppression,
		},
		LockPath:      cfg.MicrophoneLockPath(),
		MaxDuration:   cfg.MaxRecording(),
		LevelInterval: cfg.LevelInterval(),
		OnLevel:       onLevel,
	}
}

// newSynthesizer returns nil when no fallback command is configured so the
// playback sequencer reports missing speech instead of failing to exec.
func newSynthesizer(cfg *config.Config, logger *slog.Logger) voice.Synthesizer {
	if strings.TrimSpace(cfg.Speech.FallbackCommand) == "" {
		return nil
	}
	return speech.New(speech.Config{
		Command: cfg.Speech.FallbackCommand,
		Voice:   cfg.Speech.Voice,
		Rate:    cfg.Speech.Rate,
	}, speech.WithLogger(logging.NewComponentLogger(logger, "speech")))
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
