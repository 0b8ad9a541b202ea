// Package session tracks best-effort client identities for product
// variety. A session groups consecutive requests from the same client;
// it is not a security boundary.
package session

import (
	"sync"
	"time"

	"github.com/daisyflowers/budtender/internal/common"
	"github.com/daisyflowers/budtender/internal/model"
)

// DefaultTimeout is how long an untouched session survives.
const DefaultTimeout = 30 * time.Minute

// userAgentKeyLen caps how much of the client User-Agent goes into the key.
const userAgentKeyLen = 50

// Config configures a session store.
type Config struct {
	// Now overrides the clock. Tests only.
	Now func() time.Time
	// Timeout is the idle expiry. Defaults to 30 minutes.
	Timeout time.Duration
}

// Store is a process-local session map with opportunistic expiry. All
// session reads and mutations happen under the store lock via Update,
// so concurrent requests from the same client cannot race on a session.
type Store struct {
	now      func() time.Time
	sessions map[string]*model.Session
	timeout  time.Duration
	mu       sync.Mutex
}

// NewStore creates an empty session store.
func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]*model.Session),
		timeout:  timeout,
		now:      now,
	}
}

// Key derives the session key from the client address and a truncated
// client-identifying string.
func Key(ip, userAgent string) string {
	if len(userAgent) > userAgentKeyLen {
		userAgent = userAgent[:userAgentKeyLen]
	}
	return ip + "|" + userAgent
}

// Update runs fn against the session for key under the store lock,
// creating the session on first access. fn must not block on I/O.
func (s *Store) Update(key string, fn func(*model.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		sess = model.NewSession(s.now())
		s.sessions[key] = sess
	}
	fn(sess)
}

// Touch marks the session as used now. Called after a completed
// recommendation; sessions that only ever fail still expire.
func (s *Store) Touch(key string) {
	s.Update(key, func(sess *model.Session) {
		sess.LastTouched = s.now()
	})
}

// Sweep removes sessions idle longer than the timeout and returns how
// many were dropped. Called opportunistically on each request, not on a
// timer.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, sess := range s.sessions {
		if now.Sub(sess.LastTouched) > s.timeout {
			delete(s.sessions, key)
			removed++
		}
	}
	if removed > 0 {
		common.LogDebug("Swept stale sessions", common.Fields{"removed": removed, "remaining": len(s.sessions)})
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
