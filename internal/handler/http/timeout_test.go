package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func runWithTimeout(limit time.Duration, handler http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/guard/check", nil)
	Timeout(limit)(handler).ServeHTTP(rec, req)
	return rec
}

func TestTimeout_FastHandlerPassesThrough(t *testing.T) {
	rec := runWithTimeout(time.Second, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("allowed"))
	})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "allowed" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestTimeout_SlowHandlerGets504(t *testing.T) {
	rec := runWithTimeout(50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	})

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "request timeout") {
		t.Errorf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestTimeout_ContextIsCanceled(t *testing.T) {
	canceled := make(chan struct{})
	runWithTimeout(50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		close(canceled)
	})

	select {
	case <-canceled:
	case <-time.After(500 * time.Millisecond):
		t.Error("handler context was not canceled")
	}
}

func TestTimeout_DeadlineIsPropagated(t *testing.T) {
	start := time.Now()
	runWithTimeout(time.Second, func(w http.ResponseWriter, r *http.Request) {
		deadline, ok := r.Context().Deadline()
		if !ok {
			t.Error("request context has no deadline")
			return
		}
		if remaining := time.Until(deadline); remaining > time.Second || remaining < 500*time.Millisecond {
			t.Errorf("deadline %v after start, want about 1s", deadline.Sub(start))
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestTimeout_LateWritesAreDropped(t *testing.T) {
	wrote := make(chan error, 1)
	rec := runWithTimeout(50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		_, err := w.Write([]byte("too late"))
		wrote <- err
	})

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
	select {
	case err := <-wrote:
		if err != http.ErrHandlerTimeout {
			t.Errorf("late write error = %v, want ErrHandlerTimeout", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("handler never attempted the late write")
	}
	if strings.Contains(rec.Body.String(), "too late") {
		t.Errorf("late write reached the client: %q", rec.Body.String())
	}
}

func TestTimeout_ImplicitStatusAndMultipleWrites(t *testing.T) {
	rec := runWithTimeout(time.Second, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tier=pro "))
		_, _ = w.Write([]byte("remaining=4"))
	})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want implicit 200", rec.Code)
	}
	if rec.Body.String() != "tier=pro remaining=4" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
