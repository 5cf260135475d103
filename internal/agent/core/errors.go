package core

import "errors"

var (
	// ErrNoProvider is returned when a component needs a model but none is configured.
	ErrNoProvider = errors.New("no LLM provider configured")
	// ErrEmptyQuery marks a fallback that had no user text to search for.
	ErrEmptyQuery = errors.New("empty research query")
)
