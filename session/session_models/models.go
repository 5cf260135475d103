package session_models

import "time"

// SourceDoc is one cited source kept for later lookup.
type SourceDoc struct {
	DocID     string    `json:"doc_id"`
	RunID     string    `json:"run_id"`
	StepID    string    `json:"step_id"`
	Marker    string    `json:"marker"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	IndexedAt time.Time `json:"indexed_at"`
}

type SearchHit struct {
	DocID   string  `json:"doc_id"`
	RunID   string  `json:"run_id"`
	Marker  string  `json:"marker"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}
