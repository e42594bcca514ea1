package session

import (
	"sync"
	"time"
)

// State is the carried conversation state for one user: the menu/search
// sub-flow's last search term and the stated budget. HasCap distinguishes
// "no budget given" from a budget of zero, so a cap of 0 still filters.
// Everything else about a turn is stateless
type State struct {
	SearchTerm string
	PriceCap   float64
	HasCap     bool

	lastTouched time.Time
}

// Store keeps per-user conversation state in memory, keyed by uid. Isolating
// state per user is a correctness requirement: concurrent users must never
// observe each other's search term or budget
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
	ttl      time.Duration
}

// NewStore creates a session store. Sessions idle longer than ttl are
// dropped by Sweep
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*State),
		ttl:      ttl,
	}
}

// Get returns a copy of the user's state; the zero State for unknown users
func (s *Store) Get(uid string) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.sessions[uid]; ok {
		return *state
	}
	return State{}
}

// SetSearchTerm stores the term and drops any previously stated budget
func (s *Store) SetSearchTerm(uid, term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.ensure(uid)
	state.SearchTerm = term
	state.PriceCap = 0
	state.HasCap = false
}

// SetPriceCap stores the stated budget for the pending search
func (s *Store) SetPriceCap(uid string, cap float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.ensure(uid)
	state.PriceCap = cap
	state.HasCap = true
}

// ClearBudget drops the stated budget (show all)
func (s *Store) ClearBudget(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.ensure(uid)
	state.PriceCap = 0
	state.HasCap = false
}

// Sweep drops sessions idle longer than the TTL and reports how many went
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for uid, state := range s.sessions {
		if state.lastTouched.Before(cutoff) {
			delete(s.sessions, uid)
			removed++
		}
	}
	return removed
}

// ensure returns the live state for uid, creating it when absent.
// Caller must hold the write lock
func (s *Store) ensure(uid string) *State {
	state, ok := s.sessions[uid]
	if !ok {
		state = &State{}
		s.sessions[uid] = state
	}
	state.lastTouched = time.Now()
	return state
}
