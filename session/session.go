package session

import (
	"time"

	"github.com/mohammad-safakhou/researcher/session/session_models"
)

// Store hands out per-conversation source sessions.
type Store interface {
	EnsureSession(id string, ttl time.Duration) (Session, error)
	GetSession(id string) (Session, error)
}

// Session is the searchable set of sources cited in one conversation.
type Session interface {
	ID() string
	Expire(ttl time.Duration)
	Expired(now time.Time) bool
	AddSource(doc session_models.SourceDoc) error
	Sources() []session_models.SourceDoc
	Search(q string, k int) ([]session_models.SearchHit, error)
	Close() error
}
