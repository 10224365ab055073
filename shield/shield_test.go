package shield

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/eksirss/kit"
)

func TestSecurityHeaders(t *testing.T) {
	// WHAT: Configured headers appear on every response.
	// WHY: The subscription UI is browser-facing.
	h := SecurityHeaders(DefaultHeaders())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options: got %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy")
	}
}

func TestHeadToGet(t *testing.T) {
	// WHAT: HEAD is rewritten to GET before reaching the handler.
	// WHY: Feed readers probe feed URLs with HEAD.
	var seen string
	h := HeadToGet(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Method
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("HEAD", "/all.xml", nil))

	if seen != http.MethodGet {
		t.Errorf("method: got %q, want GET", seen)
	}
}

func TestTraceID(t *testing.T) {
	// WHAT: Trace ID lands in context, header, and per-request logger.
	// WHY: Log lines must be correlatable to responses.
	var ctxID string
	h := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = kit.GetTraceID(r.Context())
		if GetLogger(r.Context()) == nil {
			t.Error("no logger in context")
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if ctxID == "" {
		t.Fatal("no trace ID in context")
	}
	if got := rec.Header().Get("X-Trace-ID"); got != ctxID {
		t.Errorf("header trace ID %q != context trace ID %q", got, ctxID)
	}
}
