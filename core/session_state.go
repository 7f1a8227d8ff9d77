package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// SessionState is the single source of truth for "what token do we hold for
// server S, and is a reauthentication in flight". Reads are lock-free
// snapshots; all mutations for one server are serialized by a per-server
// lock, so two servers refresh independently and concurrently.
//
// Only the Coordinator writes here. Every transition closes the per-server
// change channel so waiters can re-read the snapshot, and fans out to
// registered observers.
type SessionState struct {
	mu        sync.Mutex
	entries   map[string]*sessionEntry
	observers []SessionObserver
	nowFn     func() time.Time
}

type sessionEntry struct {
	mu      sync.Mutex
	current atomic.Pointer[Session]
	changed chan struct{}
}

func NewSessionState() *SessionState {
	return &SessionState{
		entries: make(map[string]*sessionEntry),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// AddObserver registers an observer notified after every session transition.
// Observers run synchronously on the mutating goroutine and must not call
// back into SessionState write methods.
func (s *SessionState) AddObserver(observer SessionObserver) {
	if s == nil || observer == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, observer)
	s.mu.Unlock()
}

// Current returns a snapshot of the session for server. It never blocks on
// in-flight writers.
func (s *SessionState) Current(server Server) Session {
	if s == nil {
		return Session{Server: server}
	}
	entry := s.lookup(server)
	if entry == nil {
		return Session{Server: server}
	}
	if snapshot := entry.current.Load(); snapshot != nil {
		return *snapshot
	}
	return Session{Server: server}
}

// BeginAuthenticating atomically claims the right to run the single allowed
// reauthentication for server. It returns true only for the caller that
// flipped authenticating from false to true; every other caller must wait on
// Changed and re-read the session instead of starting a second login.
func (s *SessionState) BeginAuthenticating(server Server) bool {
	if s == nil {
		return false
	}
	entry := s.entry(server)
	entry.mu.Lock()
	snapshot := s.snapshotLocked(entry, server)
	if snapshot.Authenticating {
		entry.mu.Unlock()
		return false
	}
	snapshot.Authenticating = true
	changed := s.storeLocked(entry, snapshot)
	entry.mu.Unlock()

	s.publish(snapshot, changed)
	return true
}

// Commit stores a freshly issued token, bumps the token version, clears the
// authenticating flag, and wakes all waiters. Returns the new snapshot.
func (s *SessionState) Commit(server Server, token string, ttl time.Duration) Session {
	if s == nil {
		return Session{Server: server}
	}
	entry := s.entry(server)
	entry.mu.Lock()
	snapshot := s.snapshotLocked(entry, server)
	snapshot.Token = token
	snapshot.TokenVersion++
	snapshot.TokenIssuedAt = s.now()
	snapshot.TokenTTL = ttl
	snapshot.Authenticating = false
	changed := s.storeLocked(entry, snapshot)
	entry.mu.Unlock()

	s.publish(snapshot, changed)
	return snapshot
}

// Fail clears the authenticating flag without touching the token, so waiters
// stop waiting and observe that no new token arrived.
func (s *SessionState) Fail(server Server) {
	if s == nil {
		return
	}
	entry := s.entry(server)
	entry.mu.Lock()
	snapshot := s.snapshotLocked(entry, server)
	snapshot.Authenticating = false
	changed := s.storeLocked(entry, snapshot)
	entry.mu.Unlock()

	s.publish(snapshot, changed)
}

// Changed returns a channel closed on the next transition for server. Waiters
// must re-read Current after the channel closes; a single close may cover
// multiple transitions.
func (s *SessionState) Changed(server Server) <-chan struct{} {
	if s == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	entry := s.entry(server)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.changed == nil {
		entry.changed = make(chan struct{})
	}
	return entry.changed
}

// Forget destroys the session for server (explicit logout, or the user
// disabling remember-login). Waiters are woken; a session is never destroyed
// merely because a request failed.
func (s *SessionState) Forget(server Server) {
	if s == nil {
		return
	}
	key := server.Key()
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	snapshot := s.snapshotLocked(entry, server)
	snapshot.Token = ""
	snapshot.Authenticating = false
	changed := entry.changed
	entry.changed = nil
	entry.current.Store(&snapshot)
	entry.mu.Unlock()

	s.publish(snapshot, changed)
}

func (s *SessionState) entry(server Server) *sessionEntry {
	key := server.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		entry = &sessionEntry{}
		initial := Session{Server: server}
		entry.current.Store(&initial)
		s.entries[key] = entry
	}
	return entry
}

func (s *SessionState) lookup(server Server) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[server.Key()]
}

func (s *SessionState) snapshotLocked(entry *sessionEntry, server Server) Session {
	if snapshot := entry.current.Load(); snapshot != nil {
		return *snapshot
	}
	return Session{Server: server}
}

// storeLocked swaps in the new snapshot and rotates the change channel,
// returning the channel to close once the entry lock is released.
func (s *SessionState) storeLocked(entry *sessionEntry, snapshot Session) chan struct{} {
	entry.current.Store(&snapshot)
	changed := entry.changed
	entry.changed = make(chan struct{})
	return changed
}

func (s *SessionState) publish(snapshot Session, changed chan struct{}) {
	if changed != nil {
		close(changed)
	}
	s.mu.Lock()
	observers := make([]SessionObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()
	for _, observer := range observers {
		observer.SessionChanged(snapshot)
	}
}

func (s *SessionState) now() time.Time {
	if s == nil || s.nowFn == nil {
		return time.Now().UTC()
	}
	return s.nowFn()
}
