package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"prepcoach/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateInterview(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme must be http or https, got %q", parsed.Scheme)
	}
	if c.API.TimeoutSeconds < 0 {
		return errors.New("api.timeout_seconds must be positive")
	}
	if c.API.UploadTimeoutSeconds < 0 {
		return errors.New("api.upload_timeout_seconds must be positive")
	}
	if c.API.RetryAttempts < 0 {
		return errors.New("api.retry_attempts must be zero or greater")
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.SampleRate {
	case 8000, 16000, 22050, 24000, 44100, 48000:
	default:
		return fmt.Errorf("audio.sample_rate %d is not supported (use 16000, 44100, or 48000)", c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return errors.New("audio.channels must be 1 or 2")
	}
	if c.Audio.FramesPerBuffer < 64 || c.Audio.FramesPerBuffer > 16384 {
		return errors.New("audio.frames_per_buffer must be between 64 and 16384")
	}
	if c.Audio.LevelRefreshHz < 1 || c.Audio.LevelRefreshHz > 120 {
		return errors.New("audio.level_refresh_hz must be between 1 and 120")
	}
	if c.Audio.MaxRecordingSeconds < 0 {
		return errors.New("audio.max_recording_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if c.Speech.Rate < 0 {
		return errors.New("speech.rate must be positive")
	}
	return nil
}

func (c *Config) validateInterview() error {
	if !language.IsSupported(c.Interview.Language) {
		return fmt.Errorf("interview.language %q is not supported (use %s)", c.Interview.Language, strings.Join(language.Supported(), ", "))
	}
	switch c.Interview.RetryPolicy {
	case RetryResubmit, RetryRerecord:
	default:
		return fmt.Errorf("interview.retry_policy must be %q or %q", RetryResubmit, RetryRerecord)
	}
	if c.Interview.TotalQuestions < 1 {
		return errors.New("interview.total_questions must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or greater")
	}
	return nil
}
