package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"prepcoach/internal/fileutil"
)

// State is the persisted sign-in record.
type State struct {
	Token    string    `json:"token"`
	Email    string    `json:"email,omitempty"`
	FullName string    `json:"full_name,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// Empty reports whether the state carries no credential.
func (s State) Empty() bool {
	return strings.TrimSpace(s.Token) == ""
}

// Store abstracts persistence for sign-in state.
type Store interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// FileStore keeps sign-in state in a JSON file readable only by the owner.
// Writers take an exclusive flock on a sibling ".lock" file so concurrent
// prepcoach processes never interleave a save with a clear.
type FileStore struct {
	path string
}

// NewFileStore builds a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the credential file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored state. A missing file resolves to an empty state.
func (s *FileStore) Load() (State, error) {
	lock, err := s.lock(false)
	if err != nil {
		return State{}, err
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("read credentials: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode credentials: %w", err)
	}
	return state, nil
}

// Save persists state with 0600 permissions.
func (s *FileStore) Save(state State) error {
	lock, err := s.lock(true)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear removes the stored credential. Clearing an absent file is not an error.
func (s *FileStore) Clear() error {
	lock, err := s.lock(true)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

func (s *FileStore) lock(exclusive bool) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure credentials directory: %w", err)
	}
	lock := flock.New(s.path + ".lock")
	var err error
	if exclusive {
		err = lock.Lock()
	} else {
		err = lock.RLock()
	}
	if err != nil {
		return nil, fmt.Errorf("lock credentials: %w", err)
	}
	return lock, nil
}
