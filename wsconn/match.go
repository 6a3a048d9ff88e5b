package wsconn

import (
	"fmt"
	"sync"
)

// Match correlates outbound requests with their asynchronous responses,
// keyed by an arbitrary signature (e.g. a generated message id or a
// venue-assigned request tag). Adapted from the teacher's
// exchanges/stream Match helper used by SendMessageReturnResponse.
type Match struct {
	mu      sync.Mutex
	pending map[any]chan []byte
}

// NewMatch constructs an empty Match table.
func NewMatch() *Match {
	return &Match{pending: make(map[any]chan []byte)}
}

// pendingMatch is returned by Set; Cleanup removes the waiter regardless
// of whether it was ever fulfilled.
type pendingMatch struct {
	m   *Match
	sig any
	C   chan []byte
}

// Cleanup removes the waiter from the pending table.
func (p *pendingMatch) Cleanup() {
	p.m.mu.Lock()
	delete(p.m.pending, p.sig)
	p.m.mu.Unlock()
}

// Set registers a new waiter for signature sig. Returns an error if one
// is already registered.
func (m *Match) Set(sig any) (*pendingMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pending[sig]; exists {
		return nil, fmt.Errorf("match: signature %v already has a pending waiter", sig)
	}
	ch := make(chan []byte, 1)
	m.pending[sig] = ch
	return &pendingMatch{m: m, sig: sig, C: ch}, nil
}

// Fulfil delivers payload to the waiter registered under sig, if any.
// Returns false if there was no matching waiter.
func (m *Match) Fulfil(sig any, payload []byte) bool {
	m.mu.Lock()
	ch, ok := m.pending[sig]
	m.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- payload:
	default:
	}
	return true
}
