package helpers

import (
	"net/http"
	"testing"
)

func TestResolveBaseURL(t *testing.T) {
	t.Parallel()
	envWith := func(v string) func(string) string {
		return func(key string) string {
			if key == BaseURLEnv {
				return v
			}
			return ""
		}
	}
	tests := []struct {
		name   string
		env    func(string) string
		header http.Header
		want   string
	}{
		{
			name:   "env wins",
			env:    envWith("https://research.example.com/"),
			header: http.Header{"X-Forwarded-Host": {"proxy.example.com"}},
			want:   "https://research.example.com",
		},
		{
			name:   "forwarded headers",
			env:    envWith(""),
			header: http.Header{"X-Forwarded-Host": {"edge.example.com, inner"}, "X-Forwarded-Proto": {"http"}},
			want:   "http://edge.example.com",
		},
		{
			name:   "forwarded host defaults to https",
			header: http.Header{"X-Forwarded-Host": {"edge.example.com"}},
			want:   "https://edge.example.com",
		},
		{
			name:   "host header",
			header: http.Header{"Host": {"app.example.com"}},
			want:   "https://app.example.com",
		},
		{
			name:   "localhost host header",
			header: http.Header{"Host": {"localhost:3000"}},
			want:   "http://localhost:3000",
		},
		{
			name: "default",
			want: "http://localhost:10001",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveBaseURL(tt.env, tt.header, ""); got != tt.want {
				t.Fatalf("ResolveBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
