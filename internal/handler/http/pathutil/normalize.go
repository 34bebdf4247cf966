// Package pathutil normalizes dynamic URL paths so metrics labels stay
// bounded.
package pathutil

import (
	"regexp"
	"strings"
)

type rewrite struct {
	pattern  *regexp.Regexp
	template string
}

// Ordered most specific first.
var rewrites = []rewrite{
	{regexp.MustCompile(`^/claims/\d+/documents$`), "/claims/:id/documents"},
	{regexp.MustCompile(`^/claims/\d+$`), "/claims/:id"},
	{regexp.MustCompile(`^/documents/\d+$`), "/documents/:id"},
	{regexp.MustCompile(`^/users/\d+$`), "/users/:id"},
}

// NormalizePath replaces numeric IDs with template placeholders, e.g.
// /claims/123 becomes /claims/:id, so each route produces one metrics
// label no matter how many entities it touches. Static paths such as
// /healthz and /claims/usage pass through unchanged, as does anything
// that matches no known route.
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}

	for _, r := range rewrites {
		if r.pattern.MatchString(path) {
			return r.template
		}
	}
	return path
}
