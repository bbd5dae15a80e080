package router

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/stepform/pkg/core"
	"github.com/gabrielmiguelok/stepform/pkg/protocol"
	"github.com/gabrielmiguelok/stepform/pkg/transport"
)

// ErrTooManySessions is returned when the session limit is reached.
var ErrTooManySessions = errors.New("too many live sessions")

// LiveViewSession binds one WebSocket connection to its component instance.
type LiveViewSession struct {
	ID        string
	SocketID  string
	Component core.Component
	Socket    *core.Socket
	Transport transport.Transport
	Params    core.Params
	Session   core.Session
	Codec     protocol.Codec

	// RemoteIP is the client address the connection is counted against.
	RemoteIP string

	joinRef    string
	mounted    bool
	version    uint64
	slotHashes map[string]uint64
	closeOnce  sync.Once

	mu sync.RWMutex
}

// NewLiveViewSession creates a session for socketID.
func NewLiveViewSession(socketID string, comp core.Component, params core.Params, session core.Session) *LiveViewSession {
	return &LiveViewSession{
		ID:        uuid.NewString(),
		SocketID:  socketID,
		Component: comp,
		Params:    params,
		Session:   session,
	}
}

// SetMounted marks the component as mounted.
func (s *LiveViewSession) SetMounted(mounted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = mounted
}

// IsMounted reports whether the component has been mounted.
func (s *LiveViewSession) IsMounted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mounted
}

// SetJoinRef stores the join reference of the channel.
func (s *LiveViewSession) SetJoinRef(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinRef = ref
}

// JoinRef returns the join reference of the channel.
func (s *LiveViewSession) JoinRef() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinRef
}

// NextVersion increments and returns the diff version.
func (s *LiveViewSession) NextVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return s.version
}

// SlotHashes returns the slot hashes of the last render sent.
func (s *LiveViewSession) SlotHashes() map[string]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slotHashes
}

// SetSlotHashes stores the slot hashes of the last render sent.
func (s *LiveViewSession) SetSlotHashes(hashes map[string]uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slotHashes = hashes
}

// SessionManager tracks active live sessions.
type SessionManager struct {
	sessions    map[string]*LiveViewSession
	maxSessions int
	mu          sync.RWMutex
}

// NewSessionManager creates a manager. maxSessions <= 0 means no limit.
func NewSessionManager(maxSessions int) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*LiveViewSession),
		maxSessions: maxSessions,
	}
}

// Create registers a new session.
func (m *SessionManager) Create(socketID string, comp core.Component, params core.Params, session core.Session) (*LiveViewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySessions
	}

	s := NewLiveViewSession(socketID, comp, params, session)
	m.sessions[s.ID] = s
	return s, nil
}

// Get returns a session by ID.
func (m *SessionManager) Get(sessionID string) (*LiveViewSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// Remove deletes a session.
func (m *SessionManager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
}

// Count returns the number of active sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func newSocketID() string {
	return uuid.NewString()
}
