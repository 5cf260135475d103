package models

import (
	"strings"

	"github.com/mohammad-safakhou/researcher/internal/helpers"
)

// Result is one organic search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Query is a search request with optional domain filters.
type Query struct {
	Text           string
	Limit          int
	IncludeDomains []string
	ExcludeDomains []string
}

// Expanded renders the query with site: operators for the domain filters.
func (q Query) Expanded() string {
	parts := []string{strings.TrimSpace(q.Text)}
	var include []string
	for _, d := range q.IncludeDomains {
		if d = helpers.NormalizeDomain(d); d != "" {
			include = append(include, "site:"+d)
		}
	}
	switch len(include) {
	case 0:
	case 1:
		parts = append(parts, include[0])
	default:
		parts = append(parts, "("+strings.Join(include, " OR ")+")")
	}
	for _, d := range q.ExcludeDomains {
		if d = helpers.NormalizeDomain(d); d != "" {
			parts = append(parts, "-site:"+d)
		}
	}
	return strings.Join(parts, " ")
}

// Allows reports whether link passes the domain filters. Providers apply it to
// results because site: operators are only a hint to some backends.
func (q Query) Allows(link string) bool {
	host := helpers.Hostname(link)
	if host == "" {
		return false
	}
	for _, d := range q.ExcludeDomains {
		if helpers.MatchesDomain(host, d) {
			return false
		}
	}
	if len(q.IncludeDomains) == 0 {
		return true
	}
	for _, d := range q.IncludeDomains {
		if helpers.MatchesDomain(host, d) {
			return true
		}
	}
	return false
}
