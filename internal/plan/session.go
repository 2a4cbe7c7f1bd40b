package plan

import "sync"

// Session holds the currently selected pool shared between plan runs and
// the surrounding application. Last writer wins; acceptable for a
// single-user client.
type Session struct {
	mu   sync.Mutex
	pool string
}

func NewSession() *Session {
	return &Session{}
}

// Pool returns the selected pool address, empty when none is selected.
func (s *Session) Pool() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool
}

// SetPool records the selected pool address.
func (s *Session) SetPool(address string) {
	s.mu.Lock()
	s.pool = address
	s.mu.Unlock()
}
