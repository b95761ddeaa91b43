package toolsession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/signaldesk/signaldesk/internal/models"
)

// ErrUnknownProvider is returned for a provider with no registered session.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry holds one Session per provider for the lifetime of the process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register adds a session. Registering a provider twice is an error.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.Provider()]; exists {
		return fmt.Errorf("session for provider %q already registered", s.Provider())
	}
	r.sessions[s.Provider()] = s
	r.order = append(r.order, s.Provider())
	return nil
}

// Get returns the session for provider.
func (r *Registry) Get(provider string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[provider]
	return s, ok
}

// States snapshots every session in registration order.
func (r *Registry) States() []models.ConnectionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make([]models.ConnectionState, 0, len(r.order))
	for _, p := range r.order {
		states = append(states, r.sessions[p].State())
	}
	return states
}

// Reset disconnects the named provider so the next call reconnects.
func (r *Registry) Reset(provider string) error {
	s, ok := r.Get(provider)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownProvider, provider)
	}
	s.Disconnect()
	return nil
}

// ListTools lists the tools advertised by provider.
func (r *Registry) ListTools(ctx context.Context, provider string) ([]mcp.Tool, error) {
	s, ok := r.Get(provider)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownProvider, provider)
	}
	return s.ListTools(ctx)
}

// CloseAll disconnects every session.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.order {
		r.sessions[p].Disconnect()
	}
}
