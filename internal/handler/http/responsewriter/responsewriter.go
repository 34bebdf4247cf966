// Package responsewriter captures the status code and body size of a
// response so the logging and metrics middleware can report them.
package responsewriter

import (
	"net/http"
)

// ResponseWriter records what flows through the wrapped writer. The
// status defaults to 200, matching net/http's implicit WriteHeader.
type ResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
	wrote  bool
}

// Wrap returns a recording wrapper around w.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader records the status. Repeated calls are ignored, as they
// are by the underlying writer.
func (w *ResponseWriter) WriteHeader(status int) {
	if w.wrote {
		return
	}
	w.status = status
	w.wrote = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *ResponseWriter) Write(p []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// StatusCode returns the recorded status.
func (w *ResponseWriter) StatusCode() int {
	return w.status
}

// BytesWritten returns the recorded body size.
func (w *ResponseWriter) BytesWritten() int {
	return w.bytes
}

// Unwrap exposes the underlying writer for http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
