package pipeline

import (
	"sync"

	"github.com/dshills/resumeflow/pipeline/emit"
)

// session holds the transient per-owner state for a running conversation:
// the turn lock that serializes Advance calls and the session cache.
// Sessions live in memory only; a process restart discards them.
type session struct {
	ownerID string
	turn    sync.Mutex
	cache   *Cache
}

// sessionTable maps owner identifiers to their sessions. The table mutex
// covers both map membership and turn-lock acquisition, so a session can
// never be dropped out from under an in-flight turn.
type sessionTable struct {
	mu       sync.Mutex
	sessions map[string]*session

	emitter emit.Emitter
	metrics *Metrics
}

func newSessionTable(emitter emit.Emitter, metrics *Metrics) *sessionTable {
	return &sessionTable{
		sessions: make(map[string]*session),
		emitter:  emitter,
		metrics:  metrics,
	}
}

// acquire takes the owner's turn lock without blocking, creating the
// session on first use. It returns ErrTurnBusy when another turn for the
// same owner is in flight. Callers must release via the returned function.
func (t *sessionTable) acquire(ownerID string) (*session, func(), error) {
	t.mu.Lock()
	s, ok := t.sessions[ownerID]
	if !ok {
		s = &session{
			ownerID: ownerID,
			cache:   NewCache(ownerID, t.emitter, t.metrics),
		}
		t.sessions[ownerID] = s
	}
	locked := s.turn.TryLock()
	t.mu.Unlock()

	if !locked {
		return nil, nil, ErrTurnBusy
	}
	return s, s.turn.Unlock, nil
}

// drop discards an owner's session, releasing its cache. It refuses while
// the owner's turn lock is held: dropping then would let a concurrent
// Advance mint a fresh lock and run alongside the in-flight turn. Returns
// whether the session is gone (true for owners without a session).
func (t *sessionTable) drop(ownerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[ownerID]
	if !ok {
		return true
	}
	if !s.turn.TryLock() {
		return false
	}
	s.turn.Unlock()
	delete(t.sessions, ownerID)
	return true
}
