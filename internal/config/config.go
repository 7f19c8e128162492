package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains backend connection settings.
type API struct {
	BaseURL              string `toml:"base_url"`
	Token                string `toml:"token"`
	TimeoutSeconds       int    `toml:"timeout_seconds"`
	UploadTimeoutSeconds int    `toml:"upload_timeout_seconds"`
	RetryAttempts        int    `toml:"retry_attempts"`
}

// Paths contains local directories used for credentials, locks, and logs.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	EnvFile  string `toml:"env_file"`
}

// Audio contains microphone capture and speaker playback settings.
type Audio struct {
	InputDevice         string `toml:"input_device"`
	OutputDevice        string `toml:"output_device"`
	SampleRate          int    `toml:"sample_rate"`
	Channels            int    `toml:"channels"`
	FramesPerBuffer     int    `toml:"frames_per_buffer"`
	EchoCancellation    bool   `toml:"echo_cancellation"`
	NoiseSuppression    bool   `toml:"noise_suppression"`
	LevelRefreshHz      int    `toml:"level_refresh_hz"`
	MaxRecordingSeconds int    `toml:"max_recording_seconds"`
}

// Speech contains the on-device synthesis fallback used when a prompt has no audio.
type Speech struct {
	FallbackCommand string `toml:"fallback_command"`
	Voice           string `toml:"voice"`
	Rate            int    `toml:"rate"`
}

// Interview contains defaults applied when starting new interviews.
type Interview struct {
	Language       string `toml:"language"`
	Company        string `toml:"company"`
	RetryPolicy    string `toml:"retry_policy"`
	TotalQuestions int    `toml:"total_questions"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for prepcoach.
//
// Configuration sections by subsystem:
//   - API: backend base URL, credential override, request and upload timeouts
//   - Paths: state (credentials, locks) and log directories
//   - Audio: capture constraints and level meter refresh
//   - Speech: synthesis fallback command
//   - Interview: language, company, and retry defaults
//   - Logging: log format, level, and retention
type Config struct {
	API       API       `toml:"api"`
	Paths     Paths     `toml:"paths"`
	Audio     Audio     `toml:"audio"`
	Speech    Speech    `toml:"speech"`
	Interview Interview `toml:"interview"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/prepcoach/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(cfg.Paths.EnvFile, filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("prepcoach.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CredentialsPath is where the signed-in credential is persisted.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.Paths.StateDir, "credentials.json")
}

// MicrophoneLockPath guards exclusive microphone ownership across processes.
func (c *Config) MicrophoneLockPath() string {
	return filepath.Join(c.Paths.StateDir, "microphone.lock")
}

// RequestTimeout returns the per-request timeout for ordinary API calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// UploadTimeout returns the deadline for a single answer upload.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.API.UploadTimeoutSeconds) * time.Second
}

// MaxRecording returns the capture length after which recording stops on its own.
func (c *Config) MaxRecording() time.Duration {
	return time.Duration(c.Audio.MaxRecordingSeconds) * time.Second
}

// LevelInterval returns the level meter refresh period.
func (c *Config) LevelInterval() time.Duration {
	if c.Audio.LevelRefreshHz <= 0 {
		return time.Second / defaultLevelRefreshHz
	}
	return time.Second / time.Duration(c.Audio.LevelRefreshHz)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
