package config

const (
	defaultAPIBaseURL            = "http://localhost:8080/api/v1"
	defaultAPITimeoutSeconds     = 15
	defaultUploadTimeoutSeconds  = 90
	defaultAPIRetryAttempts      = 3
	defaultStateDir              = "~/.local/share/prepcoach"
	defaultLogDir                = "~/.local/share/prepcoach/logs"
	defaultSampleRate            = 16000
	defaultChannels              = 1
	defaultFramesPerBuffer       = 1024
	defaultLevelRefreshHz        = 30
	defaultMaxRecordingSeconds   = 300
	defaultSpeechRate            = 175
	defaultInterviewLanguage     = "en"
	defaultInterviewRetryPolicy  = RetryResubmit
	defaultInterviewQuestions    = 20
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultFallbackCommandLinux  = "espeak-ng"
	defaultFallbackCommandDarwin = "say"
)

// Retry policies offered after a failed answer upload.
const (
	RetryResubmit = "resubmit"
	RetryRerecord = "rerecord"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:              defaultAPIBaseURL,
			TimeoutSeconds:       defaultAPITimeoutSeconds,
			UploadTimeoutSeconds: defaultUploadTimeoutSeconds,
			RetryAttempts:        defaultAPIRetryAttempts,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Audio: Audio{
			SampleRate:          defaultSampleRate,
			Channels:            defaultChannels,
			FramesPerBuffer:     defaultFramesPerBuffer,
			EchoCancellation:    true,
			NoiseSuppression:    true,
			LevelRefreshHz:      defaultLevelRefreshHz,
			MaxRecordingSeconds: defaultMaxRecordingSeconds,
		},
		Speech: Speech{
			FallbackCommand: defaultFallbackCommand(),
			Rate:            defaultSpeechRate,
		},
		Interview: Interview{
			Language:       defaultInterviewLanguage,
			RetryPolicy:    defaultInterviewRetryPolicy,
			TotalQuestions: defaultInterviewQuestions,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
