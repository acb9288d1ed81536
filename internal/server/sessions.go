package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/suggest"
	"github.com/romuloroldao/precivox/internal/tracker"
)

// Session is one analysis the client is working through. Its tracker is
// guarded by mu.
type Session struct {
	ID        string
	ListName  string
	Items     []list.Item
	Result    suggest.Result
	CreatedAt time.Time

	mu       sync.Mutex
	tracker  *tracker.Tracker
	lastSeen time.Time
}

// With runs fn with exclusive access to the session's tracker.
func (s *Session) With(fn func(t *tracker.Tracker)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	fn(s.tracker)
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry holds the open sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create opens a session for an analysis result.
func (r *Registry) Create(listName string, items []list.Item, res suggest.Result) *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		ListName:  listName,
		Items:     items,
		Result:    res,
		CreatedAt: now,
		tracker:   tracker.New(res.Suggestions),
		lastSeen:  now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes and returns a session.
func (r *Registry) Delete(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expire removes sessions idle for longer than ttl and returns them oldest
// first.
func (r *Registry) Expire(now time.Time, ttl time.Duration) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*Session
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) > ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].CreatedAt.Before(expired[j].CreatedAt)
	})
	return expired
}
