package session

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry owns every live session, keyed by guild ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	creating singleflight.Group
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

func (r *Registry) Set(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.GuildID] = s
}

// Remove deletes s only if it is still the registered session for its guild.
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.GuildID]; ok && cur == s {
		delete(r.sessions, s.GuildID)
		return true
	}
	return false
}

// Sessions returns every live session in no particular order.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// GetOrCreate returns the guild's session, building it with onCreate when
// none exists. Concurrent callers for the same guild share one onCreate run;
// created is true only for the caller whose onCreate actually ran. A failed
// onCreate registers nothing.
func (r *Registry) GetOrCreate(guildID string, onCreate func() (*Session, error)) (s *Session, created bool, err error) {
	if s, ok := r.Get(guildID); ok {
		return s, false, nil
	}

	v, err, _ := r.creating.Do(guildID, func() (any, error) {
		if s, ok := r.Get(guildID); ok {
			return s, nil
		}
		s, err := onCreate()
		if err != nil {
			return nil, err
		}
		created = true
		r.Set(s)
		return s, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Session), created, nil
}
