package tools

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/agent/core"
	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/tools/video_search"
	"github.com/mohammad-safakhou/researcher/tools/web_fetch"
	"github.com/mohammad-safakhou/researcher/tools/web_search"
	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
	"go.uber.org/zap"
)

const (
	defaultMaxResults = 5
	// advancedFetchLimit caps how many hits an advanced search enriches with page text.
	advancedFetchLimit = 3
)

var (
	ErrSearchUnavailable = errors.New("web search backend not configured")
	ErrVideoUnavailable  = errors.New("video search backend not configured")
	ErrFetchUnavailable  = errors.New("page fetcher not configured")
)

// Toolset adapts the search, video and fetch backends to core.Toolset.
type Toolset struct {
	Searcher       web_search.WebSearcher
	Videos         video_search.VideoSearcher
	Fetcher        web_fetch.WebFetcher
	MaxResults     int
	IncludeDomains []string
	ExcludeDomains []string
	Logger         *zap.Logger
}

var _ core.Toolset = (*Toolset)(nil)

// New builds the toolset from config. Serper is preferred over Brave when both keys are set.
func New(cfg config.ToolsConfig, logger *zap.Logger) (*Toolset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: cfg.Timeout}
	ts := &Toolset{
		MaxResults:     cfg.MaxResults,
		IncludeDomains: cfg.IncludeDomains,
		ExcludeDomains: cfg.ExcludeDomains,
		Logger:         logger.Named("tools"),
	}

	var err error
	switch {
	case cfg.SerperAPIKey != "":
		ts.Searcher, err = web_search.NewWebSearcher(web_search.SerperProvider, cfg.SerperAPIKey, client)
		ts.Videos = video_search.NewVideoSearcher(cfg.SerperAPIKey, client)
	case cfg.BraveAPIKey != "":
		ts.Searcher, err = web_search.NewWebSearcher(web_search.BraveProvider, cfg.BraveAPIKey, client)
	default:
		ts.Logger.Warn("no search api key configured; search invocations will fail")
	}
	if err != nil {
		return nil, err
	}

	fetcherType := web_fetch.HTTPFetcherType
	if cfg.UseChromedp {
		fetcherType = web_fetch.ChromedpFetcherType
	}
	ts.Fetcher, err = web_fetch.NewWebFetcher(fetcherType, cfg.Timeout, cfg.MaxChars, cfg.UserAgent)
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (t *Toolset) limit(n int) int {
	if n > 0 {
		return n
	}
	if t.MaxResults > 0 {
		return t.MaxResults
	}
	return defaultMaxResults
}

// Search runs a web search. Advanced depth replaces the snippets of the top
// hits with their extracted page text when a fetcher is available.
func (t *Toolset) Search(ctx context.Context, p core.SearchParams) (core.SearchResult, error) {
	if t.Searcher == nil {
		return core.SearchResult{}, ErrSearchUnavailable
	}
	include, exclude := MergeDomains(t.IncludeDomains, t.ExcludeDomains, p.IncludeDomains, p.ExcludeDomains)
	hits, err := t.Searcher.Discover(ctx, models.Query{
		Text:           p.Query,
		Limit:          t.limit(p.MaxResults),
		IncludeDomains: include,
		ExcludeDomains: exclude,
	})
	if err != nil {
		return core.SearchResult{}, err
	}

	items := make([]core.SearchItem, 0, len(hits))
	for i, h := range hits {
		item := core.SearchItem{Title: h.Title, URL: h.URL, Content: h.Snippet}
		if p.SearchDepth == core.SearchDepthAdvanced && t.Fetcher != nil && i < advancedFetchLimit {
			if page, err := t.Fetcher.Exec(ctx, h.URL); err == nil && page.Text != "" {
				item.Content = page.Text
			} else if err != nil {
				t.logger().Debug("advanced search fetch failed", zap.String("url", h.URL), zap.Error(err))
			}
		}
		items = append(items, item)
	}
	return core.SearchResult{Results: items}, nil
}

// Retrieve extracts the readable content of one URL.
func (t *Toolset) Retrieve(ctx context.Context, p core.RetrieveParams) (core.RetrieveResult, error) {
	if t.Fetcher == nil {
		return core.RetrieveResult{}, ErrFetchUnavailable
	}
	page, err := t.Fetcher.Exec(ctx, p.URL)
	if err != nil {
		return core.RetrieveResult{}, err
	}
	if strings.TrimSpace(page.Text) == "" {
		return core.RetrieveResult{Results: []core.SearchItem{}}, nil
	}
	link := page.URL
	if link == "" {
		link = p.URL
	}
	return core.RetrieveResult{Results: []core.SearchItem{{Title: page.Title, URL: link, Content: page.Text}}}, nil
}

// VideoSearch searches the video vertical.
func (t *Toolset) VideoSearch(ctx context.Context, p core.VideoSearchParams) (core.VideoResult, error) {
	if t.Videos == nil {
		return core.VideoResult{}, ErrVideoUnavailable
	}
	videos, err := t.Videos.Videos(ctx, p.Query, t.limit(p.MaxResults))
	if err != nil {
		return core.VideoResult{}, err
	}
	out := make([]core.VideoItem, 0, len(videos))
	for _, v := range videos {
		out = append(out, core.VideoItem{Title: v.Title, Link: v.Link, Snippet: v.Snippet})
	}
	return core.VideoResult{Videos: out}, nil
}

func (t *Toolset) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

// MergeDomains combines configured and per-invocation domain filters. An
// invocation's include beats a configured exclude and an invocation's exclude
// beats a configured include.
func MergeDomains(cfgInclude, cfgExclude, include, exclude []string) ([]string, []string) {
	norm := func(list []string) []string {
		out := make([]string, 0, len(list))
		for _, d := range list {
			if d = helpers.NormalizeDomain(d); d != "" {
				out = append(out, d)
			}
		}
		return out
	}
	invInclude, invExclude := norm(include), norm(exclude)
	in := func(list []string, d string) bool {
		for _, x := range list {
			if x == d {
				return true
			}
		}
		return false
	}

	var outInclude, outExclude []string
	for _, d := range append(norm(cfgInclude), invInclude...) {
		if !in(invExclude, d) && !in(outInclude, d) {
			outInclude = append(outInclude, d)
		}
	}
	for _, d := range append(norm(cfgExclude), invExclude...) {
		if !in(invInclude, d) && !in(outExclude, d) {
			outExclude = append(outExclude, d)
		}
	}
	return outInclude, outExclude
}
