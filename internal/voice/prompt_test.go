package voice

import (
	"encoding/base64"
	"errors"
	"testing"

	"prepcoach/internal/services/backend"
	"prepcoach/internal/session"
)

func TestOpeningPromptDecodesAudio(t *testing.T) {
	p, err := OpeningPrompt(backend.VoiceStart{
		InterviewID:              "iv-1",
		FirstQuestionText:        " Tell me about yourself ",
		FirstQuestionAudioBase64: base64.StdEncoding.EncodeToString([]byte("ID3abc")),
		QuestionType:             "BACKGROUND",
		CurrentQuestionNumber:    1,
	})
	if err != nil {
		t.Fatalf("OpeningPrompt: %v", err)
	}
	if p.Text != "Tell me about yourself" || string(p.Audio) != "ID3abc" || p.Format != "audio/mp3" {
		t.Fatalf("unexpected prompt %+v", p)
	}
	if p.Category != session.CategoryBackground || p.Sequence != 1 {
		t.Fatalf("unexpected metadata %+v", p)
	}
}

func TestQuestionPromptKeepsTextOnBadAudio(t *testing.T) {
	p, err := QuestionPrompt(backend.QuestionAudio{QuestionText: "Q3", AudioBase64: "%%%", AudioFormat: "wav", QuestionNumber: 3})
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("expected PlaybackError, got %v", err)
	}
	if p.Text != "Q3" || p.Audio != nil || p.Format != "audio/wav" {
		t.Fatalf("unexpected prompt %+v", p)
	}
}

func TestTurnPrompt(t *testing.T) {
	p := TurnPrompt(session.Turn{Speaker: session.SpeakerAI, Text: "Q2", Sequence: 2, Category: session.CategoryTechnical})
	if p.Text != "Q2" || p.Sequence != 2 || p.Format != "audio/mp3" || p.Category != session.CategoryTechnical {
		t.Fatalf("unexpected prompt %+v", p)
	}
}
