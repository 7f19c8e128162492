package voice

// State is a phase of the turn loop.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateUploading
	StateSpeaking
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRecording:
		return "RECORDING"
	case StateUploading:
		return "UPLOADING"
	case StateSpeaking:
		return "AI_SPEAKING"
	case StateComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateComplete
}
