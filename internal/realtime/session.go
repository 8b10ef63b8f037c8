// Package realtime tracks live client sessions and delivers pushes to them.
package realtime

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrSessionClosed       = errors.New("session closed")
	ErrSessionBackpressure = errors.New("session outbound buffer full")
	ErrIdentityMismatch    = errors.New("join user does not match authenticated identity")
	ErrInvalidUser         = errors.New("invalid user id")
)

// SessionState is the lifecycle of a session: anonymous -> identified -> closed
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateIdentified
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateIdentified:
		return "identified"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is one live client connection. Pushes are queued on a bounded
// buffer and drained by the connection's writer.
type Session struct {
	id   string
	send chan []byte
	done chan struct{}

	mu    sync.Mutex
	state SessionState
	users map[uint]struct{}
}

func newSession(bufferSize int) *Session {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Session{
		id:    uuid.NewString(),
		send:  make(chan []byte, bufferSize),
		done:  make(chan struct{}),
		users: make(map[uint]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Users returns the user ids this session joined as, ascending
func (s *Session) Users() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]uint, 0, len(s.users))
	for u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// Push queues a frame without blocking
func (s *Session) Push(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	select {
	case s.send <- frame:
		return nil
	default:
		return ErrSessionBackpressure
	}
}

// Outbound is drained by the connection writer
func (s *Session) Outbound() <-chan []byte { return s.send }

// Done is closed once the session reaches the closed state
func (s *Session) Done() <-chan struct{} { return s.done }
