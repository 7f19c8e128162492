package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrSessionComplete is returned when mutating a finished interview.
	ErrSessionComplete = errors.New("interview session is complete")
	// ErrOutOfOrder is returned when a turn's sequence precedes the last one.
	ErrOutOfOrder = errors.New("turn sequence out of order")
	// ErrInvalidSession matches every *InvalidSessionError.
	ErrInvalidSession = errors.New("invalid interview session")
)

// InvalidSessionError reports a missing or malformed interview id, or an
// interview the backend does not know.
type InvalidSessionError struct {
	ID     string
	Reason string
	Err    error
}

func (e *InvalidSessionError) Error() string {
	msg := fmt.Sprintf("invalid interview session %q: %s", e.ID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidSessionError) Is(target error) bool { return target == ErrInvalidSession }

func (e *InvalidSessionError) Unwrap() error { return e.Err }

// ValidateID checks that id is usable as a URL path segment.
func ValidateID(id string) error {
	switch {
	case id == "":
		return &InvalidSessionError{ID: id, Reason: "id is empty"}
	case strings.TrimSpace(id) != id || strings.ContainsAny(id, " \t\r\n"):
		return &InvalidSessionError{ID: id, Reason: "id contains whitespace"}
	case strings.Contains(id, "/"):
		return &InvalidSessionError{ID: id, Reason: "id contains '/'"}
	}
	return nil
}

// Mode distinguishes voice and typed interviews.
type Mode string

const (
	ModeVoice Mode = "voice"
	ModeText  Mode = "text"
)

// Info is the interview metadata shown alongside the transcript.
type Info struct {
	Position string
	Company  string
	Language string
	Mode     Mode
	Total    int
}

// Progress is a snapshot for progress display.
type Progress struct {
	Current  int
	Total    int
	Complete bool
}

// Percent returns the completion percentage, clamped to 0-100.
func (p Progress) Percent() int {
	if p.Complete {
		return 100
	}
	if p.Total <= 0 || p.Current <= 0 {
		return 0
	}
	pct := p.Current * 100 / p.Total
	if pct > 100 {
		return 100
	}
	return pct
}

// Session is the ordered, append-only conversation for one interview. It is
// safe for concurrent use.
type Session struct {
	id   string
	info Info

	mu       sync.RWMutex
	turns    []Turn
	complete bool
}

// New creates an empty session for a server-issued id.
func New(id string, info Info) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if info.Mode == "" {
		info.Mode = ModeVoice
	}
	return &Session{id: id, info: info}, nil
}

// ID returns the server-issued interview id.
func (s *Session) ID() string { return s.id }

// Info returns the interview metadata.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// SetTotal records the server's total question count.
func (s *Session) SetTotal(total int) {
	if total <= 0 {
		return
	}
	s.mu.Lock()
	s.info.Total = total
	s.mu.Unlock()
}

// AppendTurn adds turn at the end of the conversation. A zero sequence is
// assigned last+1. Turns whose sequence precedes the last appended one are
// rejected, as are appends to a completed session.
func (s *Session) AppendTurn(turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete {
		return ErrSessionComplete
	}
	if turn.Speaker != SpeakerUser && turn.Speaker != SpeakerAI {
		return fmt.Errorf("append turn: unknown speaker %q", turn.Speaker)
	}
	last := s.lastSequenceLocked()
	switch {
	case turn.Sequence <= 0:
		turn.Sequence = last + 1
	case turn.Sequence < last:
		return fmt.Errorf("%w: sequence %d after %d", ErrOutOfOrder, turn.Sequence, last)
	}
	s.turns = append(s.turns, turn.clone())
	return nil
}

// MarkComplete freezes the session. It returns true only on the call that
// performed the transition.
func (s *Session) MarkComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete {
		return false
	}
	s.complete = true
	return true
}

// IsComplete reports whether the server signalled completion.
func (s *Session) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.complete
}

// Turns returns a deep copy of the conversation.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	for i, t := range s.turns {
		out[i] = t.clone()
	}
	return out
}

// Len returns the number of appended turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// LastPrompt returns the most recent interviewer turn, if any.
func (s *Session) LastPrompt() (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Speaker == SpeakerAI {
			return s.turns[i].clone(), true
		}
	}
	return Turn{}, false
}

// CurrentTurn is the sequence number of the latest turn (0 when empty).
func (s *Session) CurrentTurn() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSequenceLocked()
}

// TotalTurns is the server's total question count (0 when unknown).
func (s *Session) TotalTurns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.Total
}

// Progress returns a consistent snapshot of current, total and completion.
func (s *Session) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Progress{Current: s.lastSequenceLocked(), Total: s.info.Total, Complete: s.complete}
}

func (s *Session) lastSequenceLocked() int {
	if len(s.turns) == 0 {
		return 0
	}
	return s.turns[len(s.turns)-1].Sequence
}
