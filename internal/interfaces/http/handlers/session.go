// internal/interfaces/http/handlers/session.go
package handlers

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// KeySpace builds the storage keys of a session
type KeySpace struct {
	Prefix string
}

// CartKey returns the storage key of the session's cart
func (k KeySpace) CartKey(sessionID string) string {
	return k.Prefix + "cart:session:" + sessionID
}

// CustomerKey returns the storage key of the session's customer profile
func (k KeySpace) CustomerKey(sessionID string) string {
	return k.Prefix + "customer:session:" + sessionID
}

// SessionLocks serializes the load-modify-save cycle of requests that share
// a session. Sessions hash onto a fixed set of mutexes.
type SessionLocks struct {
	stripes [lockStripes]sync.Mutex
}

// NewSessionLocks creates an unlocked set
func NewSessionLocks() *SessionLocks {
	return &SessionLocks{}
}

// Lock locks the stripe of sessionID and returns its unlock func
func (l *SessionLocks) Lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
