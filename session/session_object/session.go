package session_object

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/session/session_models"
)

const snippetChars = 300

type Session struct {
	id        string
	expiresAt time.Time
	bleve     bleve.Index
	meta      map[string]session_models.SourceDoc
	mu        sync.RWMutex
}

// indexed is the subset of a source that is full-text searchable.
type indexed struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

func NewSession(id string, ttl time.Duration) (*Session, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Session{
		id:        id,
		expiresAt: time.Now().Add(ttl),
		bleve:     index,
		meta:      make(map[string]session_models.SourceDoc),
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Expire(ttl time.Duration) {
	s.mu.Lock()
	s.expiresAt = time.Now().Add(ttl)
	s.mu.Unlock()
}

func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.After(s.expiresAt)
}

// AddSource indexes doc. Re-adding the same DocID replaces the earlier entry.
func (s *Session) AddSource(doc session_models.SourceDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = time.Now().UTC()
	}
	s.meta[doc.DocID] = doc
	return s.bleve.Index(doc.DocID, indexed{Title: doc.Title, Text: doc.Text, URL: doc.URL})
}

// Sources returns every indexed source, newest first.
func (s *Session) Sources() []session_models.SourceDoc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session_models.SourceDoc, 0, len(s.meta))
	for _, d := range s.meta {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IndexedAt.Equal(out[j].IndexedAt) {
			return out[i].DocID < out[j].DocID
		}
		return out[i].IndexedAt.After(out[j].IndexedAt)
	})
	return out
}

// Search runs a BM25 match query over titles, text and URLs.
func (s *Session) Search(q string, k int) ([]session_models.SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []session_models.SearchHit{}, nil
	}
	if k <= 0 || k > 50 {
		k = 10
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(q), k, 0, false)

	s.mu.RLock()
	defer s.mu.RUnlock()
	res, err := s.bleve.Search(req)
	if err != nil {
		return nil, err
	}
	out := make([]session_models.SearchHit, 0, len(res.Hits))
	for i, hit := range res.Hits {
		doc := s.meta[hit.ID]
		out = append(out, session_models.SearchHit{
			DocID:   hit.ID,
			RunID:   doc.RunID,
			Marker:  doc.Marker,
			URL:     doc.URL,
			Title:   doc.Title,
			Snippet: helpers.Snippet(doc.Text, snippetChars),
			Score:   hit.Score,
			Rank:    i + 1,
		})
	}
	return out, nil
}

func (s *Session) Close() error {
	return s.bleve.Close()
}
