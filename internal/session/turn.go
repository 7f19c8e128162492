package session

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser Speaker = "USER"
	SpeakerAI   Speaker = "AI"
)

// ParseSpeaker maps a backend role onto a Speaker.
func ParseSpeaker(role string) (Speaker, bool) {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case "USER", "CANDIDATE":
		return SpeakerUser, true
	case "AI", "MODEL", "ASSISTANT", "INTERVIEWER":
		return SpeakerAI, true
	default:
		return "", false
	}
}

// Label is the display form of the speaker.
func (s Speaker) Label() string {
	if s == SpeakerUser {
		return "You"
	}
	return "Interviewer"
}

// Category is the server's informational question classification.
type Category string

// Well-known categories. The server may send others.
const (
	CategoryBackground  Category = "BACKGROUND"
	CategorySituational Category = "SITUATIONAL"
	CategoryTechnical   Category = "TECHNICAL"
)

// Label renders the category for display ("TECHNICAL" -> "Technical").
func (c Category) Label() string {
	raw := strings.TrimSpace(string(c))
	if raw == "" {
		return ""
	}
	raw = strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(raw))
	return cases.Title(language.English).String(raw)
}

// Turn is one utterance in the conversation. Audio and AudioFormat are only
// set on interviewer turns that came with synthesized speech.
type Turn struct {
	Speaker     Speaker
	Text        string
	Audio       []byte
	AudioFormat string
	Category    Category
	Sequence    int
}

func (t Turn) clone() Turn {
	if t.Audio != nil {
		t.Audio = append([]byte(nil), t.Audio...)
	}
	return t
}
