// Package history keeps short per-session conversation context in memory.
//
// The store is intentionally ephemeral: it feeds recent exchanges into
// answer generation and nothing else. Restarting the process forgets all
// sessions.
package history

import (
	"sync"
	"time"
)

const (
	// DefaultWindow is how many recent exchanges a session retains.
	DefaultWindow = 10

	// DefaultMaxSessions bounds total memory; the idlest sessions are
	// evicted beyond it.
	DefaultMaxSessions = 1000
)

// Exchange is one question/answer turn.
type Exchange struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	At       time.Time `json:"at"`
}

type session struct {
	exchanges []Exchange
	lastUsed  time.Time
}

// Store holds conversation history keyed by session ID.
//
// Store is safe for concurrent use. Concurrent appends to the same session
// may interleave; callers needing strict ordering serialize per-session
// requests themselves.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*session
	window      int
	maxSessions int
	now         func() time.Time
}

// New creates a history Store. window and maxSessions fall back to the
// package defaults when non-positive.
func New(window, maxSessions int) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Store{
		sessions:    make(map[string]*session),
		window:      window,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Append records an exchange for sessionID, trimming the session to the
// retention window and evicting the idlest session when the cap is hit.
func (s *Store) Append(sessionID string, ex Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if ex.At.IsZero() {
		ex.At = now
	}

	sess, ok := s.sessions[sessionID]
	if !ok {
		if len(s.sessions) >= s.maxSessions {
			s.evictIdlest()
		}
		sess = &session{}
		s.sessions[sessionID] = sess
	}

	sess.exchanges = append(sess.exchanges, ex)
	if len(sess.exchanges) > s.window {
		sess.exchanges = sess.exchanges[len(sess.exchanges)-s.window:]
	}
	sess.lastUsed = now
}

// Get returns a copy of the retained exchanges for sessionID, oldest
// first. An unknown session yields an empty slice.
func (s *Store) Get(sessionID string) []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	sess.lastUsed = s.now()
	out := make([]Exchange, len(sess.exchanges))
	copy(out, sess.exchanges)
	return out
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// evictIdlest removes the session with the oldest lastUsed. Caller holds mu.
func (s *Store) evictIdlest() {
	var victim string
	var oldest time.Time
	first := true
	for id, sess := range s.sessions {
		if first || sess.lastUsed.Before(oldest) {
			victim = id
			oldest = sess.lastUsed
			first = false
		}
	}
	if victim != "" {
		delete(s.sessions, victim)
	}
}
