package realtime

import (
	"log/slog"
	"time"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// ChannelOptions tune the socket pumps. Zero values fall back to defaults.
type ChannelOptions struct {
	BufferSize int
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
}

// Channel owns the session lifecycle and keeps the registry in step with it
type Channel struct {
	registry *Registry
	log      *slog.Logger
	opts     ChannelOptions
}

func NewChannel(registry *Registry, log *slog.Logger, opts ChannelOptions) *Channel {
	if opts.BufferSize < 1 {
		opts.BufferSize = 64
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = writeWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = pongWait
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = (opts.PongWait * 9) / 10
	}
	return &Channel{registry: registry, log: log, opts: opts}
}

// Connect creates an anonymous session. It receives nothing until it joins.
func (c *Channel) Connect() *Session {
	s := newSession(c.opts.BufferSize)
	c.log.Debug("session connected", "session_id", s.id)
	return s
}

// Join binds the session to userID. Joining again, as the same or another
// user, adds a binding. Joining a closed session fails.
func (c *Channel) Join(s *Session, userID uint) error {
	if userID == 0 {
		return ErrInvalidUser
	}
	// Session lock first, registry second; Disconnect uses the same order
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	s.state = StateIdentified
	s.users[userID] = struct{}{}
	c.registry.Bind(userID, s)
	c.log.Debug("session joined", "session_id", s.id, "user_id", userID)
	return nil
}

// Disconnect closes the session and removes all its bindings. Safe to call twice.
func (c *Channel) Disconnect(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	close(s.done)
	c.registry.Unbind(s)
	c.log.Debug("session disconnected", "session_id", s.id)
}

func (c *Channel) Registry() *Registry { return c.registry }
