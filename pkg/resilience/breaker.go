// Package resilience provides named circuit breakers for outbound calls
// (the graph store, the object store and the external identity directory
// run through them), so a failing dependency degrades instead of cascading
// into request timeouts, plus a bounded retry helper, Do, that no caller
// uses. JWKS refreshes and presigned object transfers use neither.
package resilience

import (
	"sync"

	"github.com/sony/gobreaker"
)

// Manager owns one named circuit breaker per outbound dependency. Breakers
// are created lazily on first use so callers don't need to know the full
// set of dependency names up front.
type Manager struct {
	settings gobreaker.Settings
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewManager builds a Manager that creates every breaker with the same base
// settings (MaxRequests, Interval, Timeout, ReadyToTrip, OnStateChange),
// only the breaker Name differs per dependency.
func NewManager(settings gobreaker.Settings) *Manager {
	return &Manager{
		settings: settings,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (m *Manager) breaker(name string) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.breakers[name]; ok {
		return b
	}
	settings := m.settings
	settings.Name = name
	b := gobreaker.NewCircuitBreaker(settings)
	m.breakers[name] = b
	return b
}

// Execute runs fn through the named breaker, returning gobreaker.ErrOpenState
// or gobreaker.ErrTooManyRequests when the breaker is rejecting calls.
func (m *Manager) Execute(name string, fn func() (interface{}, error)) (interface{}, error) {
	return m.breaker(name).Execute(fn)
}

// State reports the current state of the named breaker, creating it (in the
// closed state) if it does not exist yet.
func (m *Manager) State(name string) gobreaker.State {
	return m.breaker(name).State()
}
