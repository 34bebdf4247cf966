package auth

// PublicEndpoints lists path prefixes that bypass authentication.
// Everything else requires a valid bearer token when the route's guard
// demands one.
var PublicEndpoints = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/auth/token",
}

// IsPublicEndpoint reports whether the path matches a public prefix.
func IsPublicEndpoint(path string) bool {
	for _, endpoint := range PublicEndpoints {
		if path == endpoint {
			return true
		}
	}
	return false
}
