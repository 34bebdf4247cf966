package guard

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// bufferingWriter captures the wrapped handler's full response so the
// guard can normalize it before anything reaches the wire. Terminal
// states are all-or-nothing: either the normalized handler response or
// a denial envelope, never a partial mix.
type bufferingWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newBufferingWriter() *bufferingWriter {
	return &bufferingWriter{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (b *bufferingWriter) Header() http.Header {
	return b.header
}

func (b *bufferingWriter) WriteHeader(status int) {
	b.status = status
}

func (b *bufferingWriter) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

// flushTo writes the captured response to the real writer with the
// body normalized to JSON: valid JSON passes through unchanged, and
// anything else is wrapped as {"success":true,"data":<raw body>}.
// Content-Type is always application/json.
func (b *bufferingWriter) flushTo(w http.ResponseWriter) {
	body := b.normalizedBody()

	for k, vs := range b.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Del("Content-Length")
	w.WriteHeader(b.status)
	_, _ = w.Write(body)
}

func (b *bufferingWriter) normalizedBody() []byte {
	raw := b.body.Bytes()
	if len(bytes.TrimSpace(raw)) == 0 {
		return mustWrap("")
	}
	if json.Valid(raw) {
		return raw
	}
	return mustWrap(string(raw))
}

func mustWrap(raw string) []byte {
	wrapped, err := json.Marshal(map[string]any{
		"success": true,
		"data":    raw,
	})
	if err != nil {
		// Marshalling a map of string to string cannot fail.
		return []byte(`{"success":true,"data":""}`)
	}
	return wrapped
}
