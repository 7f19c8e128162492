package session

import (
	"encoding/base64"
	"strings"

	"prepcoach/internal/services/backend"
)

// FromDetail rebuilds a session from a stored interview. Messages with an
// unknown role are skipped; out-of-order sequence numbers are clamped so
// server history always loads. Messages without a question number are
// numbered by question: an interviewer turn opens the next question and an
// answer carries the number of the question it answers.
func FromDetail(detail backend.InterviewDetail, mode Mode, total int) (*Session, error) {
	s, err := New(detail.ID, Info{
		Position: detail.Position,
		Company:  detail.Company,
		Language: detail.Language,
		Mode:     mode,
		Total:    total,
	})
	if err != nil {
		return nil, err
	}
	question := 0
	for _, msg := range detail.Messages {
		speaker, ok := ParseSpeaker(msg.Role)
		if !ok {
			continue
		}
		turn := Turn{
			Speaker:  speaker,
			Text:     msg.Text(),
			Category: Category(msg.QuestionType),
			Sequence: msg.QuestionNumber,
		}
		if turn.Sequence <= 0 {
			turn.Sequence = question
			if speaker == SpeakerAI {
				turn.Sequence = question + 1
			}
		}
		if last := s.CurrentTurn(); turn.Sequence > 0 && turn.Sequence < last {
			turn.Sequence = last
		}
		question = max(question, turn.Sequence)
		if speaker == SpeakerAI && msg.AudioBase64 != "" {
			if audio, err := base64.StdEncoding.DecodeString(msg.AudioBase64); err == nil {
				turn.Audio = audio
			}
		}
		if err := s.AppendTurn(turn); err != nil {
			return nil, err
		}
	}
	if IsCompletedStatus(detail.Status) {
		s.MarkComplete()
	}
	return s, nil
}

// IsCompletedStatus reports whether a backend status string means finished.
func IsCompletedStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "COMPLETED", "COMPLETE", "FINISHED":
		return true
	default:
		return false
	}
}
