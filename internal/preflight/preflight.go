package preflight

import (
	"context"

	"prepcoach/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// Inputs carries the runtime handles RunAll cannot build from config alone.
type Inputs struct {
	Backend       HealthChecker
	Authenticated bool
	CredentialSrc string
	Audio         DeviceCounts
	AudioErr      error
}

// RunAll executes every check for the given config.
func RunAll(ctx context.Context, cfg *config.Config, in Inputs) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Paths.LogDir != "" && cfg.Paths.LogDir != cfg.Paths.StateDir {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckBackend(ctx, cfg.API.BaseURL, in.Backend))
	results = append(results, CheckCredential(in.Authenticated, in.CredentialSrc))
	results = append(results, CheckAudio(in.Audio, in.AudioErr)...)
	results = append(results, CheckSpeech(cfg.Speech.FallbackCommand))
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
