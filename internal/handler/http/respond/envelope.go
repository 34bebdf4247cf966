package respond

import "net/http"

// ErrorDetail is the error object inside a denial envelope.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Denial is the uniform envelope for requests refused before reaching
// their handler. Success is always false; the optional fields signal to
// clients what would unblock the request.
type Denial struct {
	Success         bool        `json:"success"`
	Error           ErrorDetail `json:"error"`
	AuthRequired    bool        `json:"authRequired,omitempty"`
	UpgradeRequired bool        `json:"upgradeRequired,omitempty"`
	RetryAfter      int         `json:"retryAfter,omitempty"`
	UsageCount      *int        `json:"usageCount,omitempty"`
}

// Envelope wraps a successful payload in the standard success shape.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// Deny writes a denial envelope with the given status code.
func Deny(w http.ResponseWriter, code int, d Denial) {
	d.Success = false
	JSON(w, code, d)
}

// AuthRequired writes the 401 denial for unauthenticated requests.
func AuthRequired(w http.ResponseWriter) {
	Deny(w, http.StatusUnauthorized, Denial{
		Error:        ErrorDetail{Message: "Authentication required"},
		AuthRequired: true,
	})
}

// UpgradeRequired writes the 402 denial for exhausted free quotas.
func UpgradeRequired(w http.ResponseWriter, message string, usageCount int) {
	Deny(w, http.StatusPaymentRequired, Denial{
		Error:           ErrorDetail{Message: message},
		UpgradeRequired: true,
		UsageCount:      &usageCount,
	})
}

// RateLimited writes the 429 denial with a Retry-After hint in seconds.
func RateLimited(w http.ResponseWriter, message string, retryAfter int) {
	Deny(w, http.StatusTooManyRequests, Denial{
		Error:      ErrorDetail{Message: message, Code: "RATE_LIMITED"},
		RetryAfter: retryAfter,
	})
}
