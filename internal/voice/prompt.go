package voice

import (
	"encoding/base64"
	"strings"

	"prepcoach/internal/services/backend"
	"prepcoach/internal/session"
)

// OpeningPrompt maps the start reply to the first question. Undecodable
// audio is dropped and reported through the returned PlaybackError so the
// question still shows as text.
func OpeningPrompt(resp backend.VoiceStart) (Prompt, error) {
	return buildPrompt(resp.FirstQuestionText, resp.FirstQuestionAudioBase64, resp.AudioFormat, resp.QuestionType, resp.CurrentQuestionNumber)
}

// QuestionPrompt maps a re-fetched question to a prompt.
func QuestionPrompt(resp backend.QuestionAudio) (Prompt, error) {
	return buildPrompt(resp.QuestionText, resp.AudioBase64, resp.AudioFormat, resp.QuestionType, resp.QuestionNumber)
}

// TurnPrompt rebuilds the prompt for a stored interviewer turn.
func TurnPrompt(turn session.Turn) Prompt {
	return Prompt{
		Text:     turn.Text,
		Audio:    turn.Audio,
		Format:   audioMIME(turn.AudioFormat),
		Category: turn.Category,
		Sequence: turn.Sequence,
	}
}

func buildPrompt(text, encoded, format, category string, sequence int) (Prompt, error) {
	p := Prompt{
		Text:     strings.TrimSpace(text),
		Format:   audioMIME(format),
		Category: session.Category(category),
		Sequence: sequence,
	}
	var audioErr error
	if encoded = strings.TrimSpace(encoded); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			audioErr = &PlaybackError{Stage: "decode", Err: err}
		} else {
			p.Audio = decoded
		}
	}
	return p, audioErr
}
