package helpers

import "testing"

func TestCanonicalURL(t *testing.T) {
	t.Parallel()
	cases := map[string]struct {
		in, want string
	}{
		"schemeless search hit": {
			in:   "Docs.Example.com/guide/../reference/latest",
			want: "https://docs.example.com/reference/latest",
		},
		"default port and campaign params": {
			in:   "http://news.example.com:80/story?id=7&utm_source=newsletter&utm_brand=x#comments",
			want: "http://news.example.com/story?id=7",
		},
		"search click ids and query order": {
			in:   "https://example.com/path/?q=go&lang=en&srsltid=AfmBOo&gclid=abc",
			want: "https://example.com/path/?lang=en&q=go",
		},
		"protocol relative link": {
			in:   "//blog.example.com/post/42?mc_cid=1",
			want: "https://blog.example.com/post/42",
		},
		"repeated slashes": {
			in:   "https://example.com//a//b///c",
			want: "https://example.com/a/b/c",
		},
		"non default port kept": {
			in:   "https://example.com:8443/",
			want: "https://example.com:8443/",
		},
		"repeated values sorted": {
			in:   "https://example.com/s?tag=b&tag=a&flag",
			want: "https://example.com/s?flag&tag=a&tag=b",
		},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := CanonicalURL(tc.in)
			if err != nil {
				t.Fatalf("CanonicalURL(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("CanonicalURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCanonicalURLRejects(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "   ", ":///invalid"} {
		if _, err := CanonicalURL(in); err == nil {
			t.Errorf("CanonicalURL(%q) expected error", in)
		}
	}
}

func TestURLFingerprintCollapsesCitations(t *testing.T) {
	t.Parallel()
	a, err := URLFingerprint("https://Example.com/Article?utm_campaign=foo&a=1&b=2")
	if err != nil {
		t.Fatalf("URLFingerprint: %v", err)
	}
	b, err := URLFingerprint("HTTPS://example.com:443/Article?b=2&a=1#top")
	if err != nil {
		t.Fatalf("URLFingerprint: %v", err)
	}
	if a == "" || a != b {
		t.Fatalf("fingerprints differ: %q vs %q", a, b)
	}
	c, err := URLFingerprint("https://example.com/article?a=1&b=2")
	if err != nil {
		t.Fatalf("URLFingerprint: %v", err)
	}
	if c == a {
		t.Fatalf("path case should be significant")
	}
}

func TestMatchesDomain(t *testing.T) {
	t.Parallel()
	tests := []struct {
		host, domain string
		want         bool
	}{
		{"bbc.co.uk", "bbc.co.uk", true},
		{"www.bbc.co.uk", "bbc.co.uk", true},
		{"news.bbc.co.uk", "https://www.bbc.co.uk/news", true},
		{"notbbc.co.uk", "bbc.co.uk", false},
		{"bbc.co.uk", "", false},
	}
	for _, tt := range tests {
		if got := MatchesDomain(tt.host, tt.domain); got != tt.want {
			t.Errorf("MatchesDomain(%q, %q) = %v, want %v", tt.host, tt.domain, got, tt.want)
		}
	}
}

func TestHostname(t *testing.T) {
	t.Parallel()
	if got := Hostname("https://WWW.Example.com:8443/a"); got != "example.com" {
		t.Fatalf("Hostname() = %q", got)
	}
	if got := Hostname("example.org/path"); got != "example.org" {
		t.Fatalf("Hostname() = %q", got)
	}
}
