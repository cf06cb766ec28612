package urlutil

import (
	"net/url"
	"strings"
)

// trackingParams are query keys added by mail platforms and analytics tools.
// They never change the target document, so two links that differ only in these
// keys point at the same article.
var trackingParams = newKeySet(
	"mc_cid", "mc_eid", "fbclid", "gclid", "dclid", "msclkid", "yclid",
	"_hsenc", "_hsmi", "mkt_tok", "ref", "ref_src", "s_cid",
	"oly_enc_id", "oly_anon_id", "vero_id", "ck_subscriber_id",
)

// trackingPrefixes match whole families of tracking keys.
var trackingPrefixes = []string{"utm_", "mc_", "pk_"}

// Canonicalize applies a deterministic normalization to a URL, producing a canonical form.
// It maps equivalent URL spellings to a single canonical representation.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Path is cleaned (trailing slashes removed, except for root "/")
//   - Fragments are removed
//   - Tracking query parameters are removed, remaining ones are sorted by key
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
func Canonicalize(sourceUrl url.URL) url.URL {
	// Create a copy to avoid mutating the original
	canonical := sourceUrl

	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
		if canonical.RawPath != "" {
			canonical.RawPath = stripTrailingSlash(canonical.RawPath)
		}
	}

	canonical.Fragment = ""
	canonical.RawFragment = ""

	canonical.RawQuery = cleanQuery(canonical.RawQuery)
	canonical.ForceQuery = false

	return canonical
}

// CanonicalString parses raw and returns its canonical form.
func CanonicalString(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	canonical := Canonicalize(*parsed)
	return canonical.String(), nil
}

// IsTrackingParam reports whether key is a known tracking query key.
func IsTrackingParam(key string) bool {
	key = strings.ToLower(key)
	if _, ok := trackingParams[key]; ok {
		return true
	}
	for _, prefix := range trackingPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func cleanQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// keep what we cannot parse rather than dropping meaning
		return rawQuery
	}
	for key := range values {
		if IsTrackingParam(key) {
			values.Del(key)
		}
	}
	if len(values) == 0 {
		return ""
	}
	// Encode sorts by key.
	return values.Encode()
}

func newKeySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// lowerASCII converts ASCII characters to lowercase without allocating.
// This is faster than strings.ToLower for ASCII-only strings.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := make([]byte, len(s))
	copy(b, s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// stripTrailingSlash removes trailing slashes from a path.
func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
