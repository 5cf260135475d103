package core

import (
	"strings"

	"github.com/mohammad-safakhou/researcher/internal/agent/locale"
	"github.com/mohammad-safakhou/researcher/internal/helpers"
)

// Per-tool rendering limits.
const (
	maxSearchItems   = 3
	maxRetrieveItems = 1
	maxVideoItems    = 3

	searchSnippetLimit   = 160
	retrieveSnippetLimit = 200
	videoSnippetLimit    = 160
)

// Summarize renders the executed steps as a cited narrative. Markers are
// numbered globally in step order, then in result order; failed steps
// contribute a notice and no sources.
func Summarize(steps []ExecutedStep, loc locale.Localization) ExecutionSummary {
	s := summaryBuilder{loc: loc, sources: []SourceReference{}}
	blocks := make([]string, 0, len(steps))
	for _, step := range steps {
		if block := strings.TrimSpace(s.renderStep(step)); block != "" {
			blocks = append(blocks, block)
		}
	}

	var b strings.Builder
	b.WriteString(loc.ResearchSummary)
	b.WriteString(":\n\n")
	if len(blocks) == 0 {
		b.WriteString(loc.NothingExecuted)
	} else {
		b.WriteString(strings.Join(blocks, "\n\n"))
	}
	if len(s.sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(loc.SourceDirectory)
		b.WriteString(":\n")
		for i, src := range s.sources {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(helpers.FormatSourceEntry(src.Marker, src.Title, src.URL))
		}
	}
	return ExecutionSummary{Summary: b.String(), Sources: s.sources}
}

type summaryBuilder struct {
	loc     locale.Localization
	sources []SourceReference
}

func (s *summaryBuilder) cite(stepID, title, link string) string {
	marker := helpers.Marker(len(s.sources) + 1)
	s.sources = append(s.sources, SourceReference{
		Marker: marker,
		URL:    link,
		Title:  strings.TrimSpace(title),
		StepID: stepID,
	})
	return marker
}

func (s *summaryBuilder) renderStep(step ExecutedStep) string {
	header := "• " + step.Description
	if step.Failed() {
		return header + "\n  ⚠️ " + s.loc.FailedWithError(step.Error)
	}

	var lines []string
	switch r := step.Result.(type) {
	case SearchResult:
		lines = s.renderItems(step.ID, r.Results, maxSearchItems, searchSnippetLimit, s.loc.NoSearchResults)
	case RetrieveResult:
		lines = s.renderItems(step.ID, r.Results, maxRetrieveItems, retrieveSnippetLimit, s.loc.UnableToRetrieve)
	case VideoResult:
		lines = s.renderVideos(step.ID, r.Videos)
	default:
		return ""
	}
	return header + "\n" + strings.Join(lines, "\n")
}

func (s *summaryBuilder) renderItems(stepID string, items []SearchItem, limit, snippetLimit int, empty string) []string {
	if len(items) == 0 {
		return []string{"  " + empty}
	}
	if len(items) > limit {
		items = items[:limit]
	}
	lines := make([]string, 0, len(items)*2)
	for _, item := range items {
		marker := s.cite(stepID, item.Title, item.URL)
		lines = append(lines, "  "+helpers.FormatSourceEntry(marker, item.Title, item.URL))
		if snippet := helpers.Snippet(item.Content, snippetLimit); snippet != "" {
			lines = append(lines, "    "+snippet)
		}
	}
	return lines
}

func (s *summaryBuilder) renderVideos(stepID string, videos []VideoItem) []string {
	if len(videos) == 0 {
		return []string{"  " + s.loc.NoVideos}
	}
	if len(videos) > maxVideoItems {
		videos = videos[:maxVideoItems]
	}
	lines := make([]string, 0, len(videos)*2)
	for _, v := range videos {
		marker := s.cite(stepID, v.Title, v.Link)
		lines = append(lines, "  "+helpers.FormatSourceEntry(marker, v.Title, v.Link))
		if snippet := helpers.Snippet(v.Snippet, videoSnippetLimit); snippet != "" {
			lines = append(lines, "    "+snippet)
		}
	}
	return lines
}
