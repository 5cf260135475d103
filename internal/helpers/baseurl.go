package helpers

import (
	"net/http"
	"strings"
)

// BaseURLEnv is the environment variable that pins the public base URL.
const BaseURLEnv = "RESEARCHER_BASE_URL"

// ResolveBaseURL returns the canonical public base URL of the service (no trailing slash).
// Precedence: the RESEARCHER_BASE_URL value from env, X-Forwarded-Proto plus
// X-Forwarded-Host, the Host header (https unless it is a loopback host),
// then http://localhost:<defaultPort>.
func ResolveBaseURL(env func(string) string, header http.Header, defaultPort string) string {
	if env != nil {
		if v := strings.TrimSpace(env(BaseURLEnv)); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	if header != nil {
		if host := firstHeaderValue(header.Get("X-Forwarded-Host")); host != "" {
			proto := firstHeaderValue(header.Get("X-Forwarded-Proto"))
			if proto == "" {
				proto = "https"
			}
			return proto + "://" + host
		}
		if host := strings.TrimSpace(header.Get("Host")); host != "" {
			return schemeFor(host) + "://" + host
		}
	}
	if defaultPort == "" {
		defaultPort = "10001"
	}
	return "http://localhost:" + strings.TrimPrefix(defaultPort, ":")
}

// Proxies append to forwarded headers; the first entry is the client-facing value.
func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

func schemeFor(host string) string {
	h := host
	if i := strings.LastIndexByte(h, ':'); i >= 0 && !strings.Contains(h[i:], "]") {
		h = h[:i]
	}
	switch h {
	case "localhost", "127.0.0.1", "[::1]", "0.0.0.0":
		return "http"
	}
	return "https"
}
