package inmemory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/researcher/session"
	"github.com/mohammad-safakhou/researcher/session/session_object"
)

type Store struct {
	sessions map[string]*session_object.Session
	mu       sync.RWMutex
	now      func() time.Time
}

func NewInMemorySessionStore() *Store {
	return &Store{sessions: make(map[string]*session_object.Session), now: time.Now}
}

var _ session.Store = (*Store)(nil)

// EnsureSession returns the live session for id, creating it (under a fresh id
// when id is empty) and extending its ttl.
func (store *Store) EnsureSession(id string, ttl time.Duration) (session.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.evictExpiredLocked()
	if id != "" {
		if sess, ok := store.sessions[id]; ok {
			sess.Expire(ttl)
			return sess, nil
		}
	} else {
		id = uuid.NewString()
	}

	sess, err := session_object.NewSession(id, ttl)
	if err != nil {
		return nil, err
	}
	store.sessions[sess.ID()] = sess
	return sess, nil
}

// GetSession returns (nil, nil) when the session does not exist or has expired.
func (store *Store) GetSession(id string) (session.Session, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	sess, ok := store.sessions[id]
	if !ok || sess.Expired(store.now()) {
		return nil, nil
	}
	return sess, nil
}

func (store *Store) evictExpiredLocked() {
	now := store.now()
	for id, sess := range store.sessions {
		if sess.Expired(now) {
			_ = sess.Close()
			delete(store.sessions, id)
		}
	}
}
