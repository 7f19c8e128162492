package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"prepcoach/internal/language"
	"prepcoach/internal/logging"
	"prepcoach/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Option configures the synthesizer.
type Option func(*Synthesizer)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(s *Synthesizer) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Config selects the TTS binary and voice.
type Config struct {
	Command string
	Voice   string
	Rate    int
}

// Synthesizer speaks text through an on-device TTS binary (espeak-ng, espeak
// or macOS say). It satisfies voice.Synthesizer.
type Synthesizer struct {
	cfg    Config
	exec   Executor
	logger *slog.Logger
}

// New constructs a Synthesizer. An empty command disables synthesis.
func New(cfg Config, opts ...Option) *Synthesizer {
	cfg.Command = strings.TrimSpace(cfg.Command)
	cfg.Voice = strings.TrimSpace(cfg.Voice)
	s := &Synthesizer{cfg: cfg, exec: commandExecutor{}, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Command returns the configured binary.
func (s *Synthesizer) Command() string { return s.cfg.Command }

// Speak blocks until the utterance finishes. Cancelling ctx kills the process.
func (s *Synthesizer) Speak(ctx context.Context, text, lang string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if s.cfg.Command == "" {
		return services.Wrap(services.ErrConfiguration, "speech", "speak", "no fallback speech command configured", nil)
	}
	args := s.args(text, lang)
	s.logger.DebugContext(ctx, "synthesizing prompt",
		logging.String("command", s.cfg.Command),
		logging.String("language", lang),
		logging.Int("chars", len(text)),
	)
	if err := s.exec.Run(ctx, s.cfg.Command, args); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "speech", s.cfg.Command, "speech synthesis failed", err)
	}
	return nil
}

func (s *Synthesizer) args(text, lang string) []string {
	var args []string
	switch flavour(s.cfg.Command) {
	case "say":
		if s.cfg.Voice != "" {
			args = append(args, "-v", s.cfg.Voice)
		}
		if s.cfg.Rate > 0 {
			args = append(args, "-r", strconv.Itoa(s.cfg.Rate))
		}
	default:
		voiceName := s.cfg.Voice
		if voiceName == "" {
			voiceName = language.SpeechCode(lang)
		}
		if voiceName != "" {
			args = append(args, "-v", voiceName)
		}
		if s.cfg.Rate > 0 {
			args = append(args, "-s", strconv.Itoa(s.cfg.Rate))
		}
	}
	// "--" keeps prompts that begin with "-" from being parsed as flags.
	return append(args, "--", text)
}

func flavour(command string) string {
	base := strings.ToLower(filepath.Base(command))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "say" {
		return "say"
	}
	return "espeak"
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && detail != "" {
			return fmt.Errorf("%w: %s", err, detail)
		}
		return err
	}
	return nil
}
