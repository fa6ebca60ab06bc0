package classify

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vanderheijden86/scatterclass/pkg/debug"
	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// Registry tracks named sessions for callers that serve more than one
// dataset. Each session still serializes its own mutations.
type Registry struct {
	mu       sync.RWMutex
	opts     Options
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions use opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts, sessions: make(map[string]*Session)}
}

// Init creates a session named name loaded with rows. The session is only
// registered once the import succeeded.
func (r *Registry) Init(name string, rows []model.Row) (*Session, error) {
	s := NewSession(r.opts)
	if _, err := s.Import(rows); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, name)
	}
	r.sessions[name] = s
	debug.Log("registry: init %q (%d points)", name, s.Len())
	return s, nil
}

// Get returns the session named name.
func (r *Registry) Get(name string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, name)
	}
	return s, nil
}

// Drop forgets the session named name.
func (r *Registry) Drop(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, name)
	}
	delete(r.sessions, name)
	debug.Log("registry: drop %q", name)
	return nil
}

// Names returns the registered session names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
