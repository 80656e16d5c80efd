package session

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the live sessions of a server.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     []Option
	logger   *slog.Logger
}

// NewRegistry creates sessions with opts.
func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     append([]Option{WithLogger(logger)}, opts...),
		logger:   logger,
	}
}

func (r *Registry) Create() *Session {
	s := New(r.opts...)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.logger.Info("session created", "session", s.ID)
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
		r.logger.Info("session removed", "session", id)
	}
	return ok
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
