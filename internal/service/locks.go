package service

import "sync"

// sessionLocks serializes commit-path operations per session id. Every
// create/join/leave/start/tag/end holds the session's lock across its whole
// read-validate-write sequence so two racing commits can never both pass
// validation against a stale read. Location updates bypass it.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: make(map[string]*lockEntry)}
}

// lock acquires the session's mutex and returns its release func. Entries
// are refcounted and removed when the last holder releases, so the map does
// not grow with session history.
func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
