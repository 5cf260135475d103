package core

import (
	"context"
	"errors"
	"sync"

	"github.com/mohammad-safakhou/researcher/internal/planner"
)

type fakeTools struct {
	mu        sync.Mutex
	calls     []string
	search    func(SearchParams) (SearchResult, error)
	retrieve  func(RetrieveParams) (RetrieveResult, error)
	videos    func(VideoSearchParams) (VideoResult, error)
	lastQuery SearchParams
}

func (f *fakeTools) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeTools) Search(_ context.Context, p SearchParams) (SearchResult, error) {
	f.record("search:" + p.Query)
	f.lastQuery = p
	if f.search == nil {
		return SearchResult{}, errors.New("search not stubbed")
	}
	return f.search(p)
}

func (f *fakeTools) Retrieve(_ context.Context, p RetrieveParams) (RetrieveResult, error) {
	f.record("retrieve:" + p.URL)
	if f.retrieve == nil {
		return RetrieveResult{}, errors.New("retrieve not stubbed")
	}
	return f.retrieve(p)
}

func (f *fakeTools) VideoSearch(_ context.Context, p VideoSearchParams) (VideoResult, error) {
	f.record("video:" + p.Query)
	if f.videos == nil {
		return VideoResult{}, errors.New("video search not stubbed")
	}
	return f.videos(p)
}

type fakePlanner struct {
	plan  planner.ToolPlan
	err   error
	calls int
}

func (f *fakePlanner) BuildPlan(context.Context, []Message, string) (planner.ToolPlan, error) {
	f.calls++
	return f.plan, f.err
}

func userMessage(text string) Message {
	return Message{Role: "user", Content: text}
}

func twoResults(SearchParams) (SearchResult, error) {
	return SearchResult{Results: []SearchItem{
		{Title: "Alpha", URL: "https://a.example/1", Content: "first result body"},
		{Title: "Beta", URL: "https://b.example/2", Content: "second result body"},
	}}, nil
}

// recordingSink keeps every event in memory.
type recordingSink struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (r *recordingSink) Emit(_ context.Context, ev ProgressEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingSink) Events() []ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ProgressEvent(nil), r.events...)
}
