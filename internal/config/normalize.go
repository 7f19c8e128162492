package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeAudio()
	c.normalizeSpeech()
	c.normalizeInterview()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	if value, ok := os.LookupEnv("PREPCOACH_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.API.BaseURL = value
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	if value, ok := os.LookupEnv("PREPCOACH_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.API.Token = value
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = defaultAPITimeoutSeconds
	}
	if c.API.UploadTimeoutSeconds == 0 {
		c.API.UploadTimeoutSeconds = defaultUploadTimeoutSeconds
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.InputDevice = strings.TrimSpace(c.Audio.InputDevice)
	c.Audio.OutputDevice = strings.TrimSpace(c.Audio.OutputDevice)
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = defaultChannels
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = defaultFramesPerBuffer
	}
	if c.Audio.LevelRefreshHz == 0 {
		c.Audio.LevelRefreshHz = defaultLevelRefreshHz
	}
	if c.Audio.MaxRecordingSeconds == 0 {
		c.Audio.MaxRecordingSeconds = defaultMaxRecordingSeconds
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.FallbackCommand = strings.TrimSpace(c.Speech.FallbackCommand)
	c.Speech.Voice = strings.TrimSpace(c.Speech.Voice)
	if c.Speech.Rate == 0 {
		c.Speech.Rate = defaultSpeechRate
	}
}

func (c *Config) normalizeInterview() {
	if value, ok := os.LookupEnv("PREPCOACH_LANGUAGE"); ok && strings.TrimSpace(value) != "" {
		c.Interview.Language = value
	}
	c.Interview.Language = strings.ToLower(strings.TrimSpace(c.Interview.Language))
	if c.Interview.Language == "" {
		c.Interview.Language = defaultInterviewLanguage
	}
	c.Interview.Company = strings.TrimSpace(c.Interview.Company)
	c.Interview.RetryPolicy = strings.ToLower(strings.TrimSpace(c.Interview.RetryPolicy))
	if c.Interview.RetryPolicy == "" {
		c.Interview.RetryPolicy = defaultInterviewRetryPolicy
	}
	if c.Interview.TotalQuestions == 0 {
		c.Interview.TotalQuestions = defaultInterviewQuestions
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func defaultFallbackCommand() string {
	if runtime.GOOS == "darwin" {
		return defaultFallbackCommandDarwin
	}
	return defaultFallbackCommandLinux
}
