package realtime

import "sync"

// Registry maps users to the sessions currently bound to them.
// One user may have many sessions (tabs, devices) and one session may be
// bound to several users.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[uint]map[string]*Session // user -> session id -> session
	bySession map[string]map[uint]struct{} // session id -> users
}

// RegistryStats is a point-in-time size of the registry
type RegistryStats struct {
	OnlineUsers int `json:"online_users"`
	Sessions    int `json:"sessions"`
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[uint]map[string]*Session),
		bySession: make(map[string]map[uint]struct{}),
	}
}

// Bind adds (userID, session). Binding the same pair twice is a no-op.
func (r *Registry) Bind(userID uint, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, ok := r.byUser[userID]
	if !ok {
		sessions = make(map[string]*Session)
		r.byUser[userID] = sessions
	}
	sessions[s.id] = s

	users, ok := r.bySession[s.id]
	if !ok {
		users = make(map[uint]struct{})
		r.bySession[s.id] = users
	}
	users[userID] = struct{}{}
}

// Unbind removes every binding of the session. Unknown sessions are ignored.
func (r *Registry) Unbind(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, ok := r.bySession[s.id]
	if !ok {
		return
	}
	for userID := range users {
		if sessions, ok := r.byUser[userID]; ok {
			delete(sessions, s.id)
			// Drop empty users so the map does not grow with every visitor
			if len(sessions) == 0 {
				delete(r.byUser, userID)
			}
		}
	}
	delete(r.bySession, s.id)
}

// SessionsFor returns a snapshot of the sessions bound to userID.
// Later binds and unbinds do not affect the returned slice.
func (r *Registry) SessionsFor(userID uint) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := r.byUser[userID]
	if len(sessions) == 0 {
		return nil
	}
	snapshot := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		snapshot = append(snapshot, s)
	}
	return snapshot
}

// IsOnline reports whether at least one session is bound to userID
func (r *Registry) IsOnline(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RegistryStats{OnlineUsers: len(r.byUser), Sessions: len(r.bySession)}
}
