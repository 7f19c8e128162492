package credentials

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Source describes where the active token came from.
type Source string

const (
	SourceNone     Source = "none"
	SourceOverride Source = "environment"
	SourceStored   Source = "stored"
)

// Context is the process-wide authenticated context. It is initialised from
// the store at startup, updated on sign-in, and torn down on sign-out. An
// override token (PREPCOACH_TOKEN or api.token) always wins over the stored
// one and is never written to disk.
//
// Context satisfies backend.TokenSource.
type Context struct {
	store    Store
	override string

	mu    sync.RWMutex
	state State
}

// NewContext loads the stored state and applies override when non-empty.
func NewContext(store Store, override string) (*Context, error) {
	c := &Context{store: store, override: strings.TrimSpace(override)}
	if store == nil {
		return c, nil
	}
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	c.state = state
	return c, nil
}

// Token returns the bearer credential to attach to requests.
func (c *Context) Token() string {
	if c == nil {
		return ""
	}
	if c.override != "" {
		return c.override
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strings.TrimSpace(c.state.Token)
}

// Source reports where Token comes from.
func (c *Context) Source() Source {
	switch {
	case c == nil:
		return SourceNone
	case c.override != "":
		return SourceOverride
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.Empty() {
		return SourceNone
	}
	return SourceStored
}

// Authenticated reports whether any token is available.
func (c *Context) Authenticated() bool {
	return c.Token() != ""
}

// State returns a copy of the stored sign-in record.
func (c *Context) State() State {
	if c == nil {
		return State{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SignIn records a fresh token and persists it.
func (c *Context) SignIn(token, email, fullName string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("sign in: empty token")
	}
	state := State{
		Token:    token,
		Email:    strings.TrimSpace(email),
		FullName: strings.TrimSpace(fullName),
		SavedAt:  time.Now().UTC(),
	}
	if c.store != nil {
		if err := c.store.Save(state); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	return nil
}

// SignOut clears the stored token. The override, if any, stays active.
func (c *Context) SignOut() error {
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.state = State{}
	c.mu.Unlock()
	return nil
}
