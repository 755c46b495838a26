package state

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrStateNotFound  = errors.New("session state not found")
	ErrNilState       = errors.New("session state is nil")
	ErrInvalidSession = errors.New("session id is empty")
)

// Registry maps session identifiers to their conversation state. State is
// ephemeral: entries are inserted on connect and removed on disconnect, and
// nothing survives a process restart. The lock only guards the map itself;
// each state is owned by exactly one session goroutine, so per-turn access
// needs no coordination.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*ConversationState
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*ConversationState),
	}
}

func (r *Registry) Put(st *ConversationState) error {
	if st == nil {
		return ErrNilState
	}
	if strings.TrimSpace(st.SessionID) == "" {
		return ErrInvalidSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[st.SessionID] = st
	return nil
}

func (r *Registry) Get(sessionID string) (*ConversationState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return st, nil
}

func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
