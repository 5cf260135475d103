package models

import "testing"

func TestQueryExpanded(t *testing.T) {
	cases := []struct {
		name string
		q    Query
		want string
	}{
		{"plain", Query{Text: " go generics "}, "go generics"},
		{"one include", Query{Text: "go", IncludeDomains: []string{"https://www.go.dev/blog"}}, "go site:go.dev"},
		{"many include", Query{Text: "go", IncludeDomains: []string{"go.dev", "github.com"}}, "go (site:go.dev OR site:github.com)"},
		{"exclude", Query{Text: "go", ExcludeDomains: []string{"pinterest.com", " "}}, "go -site:pinterest.com"},
	}
	for _, tc := range cases {
		if got := tc.q.Expanded(); got != tc.want {
			t.Errorf("%s: Expanded() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestQueryAllows(t *testing.T) {
	q := Query{IncludeDomains: []string{"go.dev"}, ExcludeDomains: []string{"pkg.go.dev"}}
	if !q.Allows("https://go.dev/doc") {
		t.Errorf("go.dev should be allowed")
	}
	if q.Allows("https://pkg.go.dev/net/http") {
		t.Errorf("excluded subdomain should be rejected")
	}
	if q.Allows("https://example.com") {
		t.Errorf("domain outside include list should be rejected")
	}
	if (Query{}).Allows("") {
		t.Errorf("empty link should be rejected")
	}
}
