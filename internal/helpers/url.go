package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"path"
	"sort"
	"strings"
)

// Click and campaign ids appended by search engines, ad networks and
// newsletters. Any utm_* key is dropped as well.
var trackingQueryParams = map[string]struct{}{
	"gclid":   {},
	"dclid":   {},
	"fbclid":  {},
	"msclkid": {},
	"igshid":  {},
	"srsltid": {},
	"mc_cid":  {},
	"mc_eid":  {},
	"yclid":   {},
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingQueryParams[key]
	return ok
}

// CanonicalURL normalises a URL so the same page cited by two steps or two
// runs collapses to one source. Scheme-less input defaults to https.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	u, err := parseURLPreserveHost(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", errors.New("url missing host")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Host = canonicalHost(u.Scheme, u.Host)
	u.Path = canonicalPath(u.Path)
	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = canonicalQuery(u.Query())
	return u.String(), nil
}

// canonicalHost lowercases host and drops the port when it is the scheme default.
func canonicalHost(scheme, host string) string {
	host = strings.ToLower(host)
	name, port, found := strings.Cut(host, ":")
	if !found || strings.Contains(port, ":") {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return name
	}
	return host
}

// canonicalPath collapses dot segments and repeated slashes. A trailing slash
// on a non-root path is kept since servers often treat it as a different page.
func canonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean("/" + p)
	if cleaned != "/" && strings.HasSuffix(p, "/") {
		cleaned += "/"
	}
	return cleaned
}

// canonicalQuery drops tracking keys and encodes the rest sorted by key, then value.
func canonicalQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for key := range q {
		if !isTrackingParam(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		values := append([]string(nil), q[key]...)
		sort.Strings(values)
		for _, v := range values {
			if v == "" {
				pairs = append(pairs, url.QueryEscape(key))
				continue
			}
			pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(pairs, "&")
}

// URLFingerprint returns a SHA-256 hex digest of the canonical URL. Used as a
// stable document id when indexing cited sources.
func URLFingerprint(raw string) (string, error) {
	canonical, err := CanonicalURL(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}

// Hostname returns the lowercased host of raw without a leading "www.".
func Hostname(raw string) string {
	parsed, err := parseURLPreserveHost(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// NormalizeDomain reduces a domain filter entry ("https://www.BBC.co.uk/news") to its host ("bbc.co.uk").
func NormalizeDomain(entry string) string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return ""
	}
	return Hostname(entry)
}

// MatchesDomain reports whether host equals domain or is a subdomain of it.
func MatchesDomain(host, domain string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	domain = NormalizeDomain(domain)
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// parseURLPreserveHost attempts to parse raw into a url.URL, handling schemeless URLs.
func parseURLPreserveHost(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" && parsed.Host == "" {
		if strings.HasPrefix(raw, "//") {
			return url.Parse("https:" + raw)
		}
		return url.Parse("https://" + raw)
	}
	return parsed, nil
}
