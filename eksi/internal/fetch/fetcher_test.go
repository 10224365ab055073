package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTP_Success(t *testing.T) {
	// WHAT: Basic GET returns body, status, and final URL.
	// WHY: Core fetch contract for the extractors.
	body := "<html><h1 id=\"title\">pena</h1></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewHTTP(Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.StatusCode != 200 {
		t.Errorf("status: got %d", res.StatusCode)
	}
	if string(res.Body) != body {
		t.Errorf("body: got %q", string(res.Body))
	}
	if res.FinalURL == "" {
		t.Error("final URL empty")
	}
}

func TestHTTP_FinalURLAfterRedirect(t *testing.T) {
	// WHAT: FinalURL reflects the post-redirect location.
	// WHY: The topic extractor falls back to the final URL for ID and slug.
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/pena--31782", http.StatusFound)
	})
	mux.HandleFunc("/pena--31782", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewHTTP(Config{})
	res, err := f.Fetch(context.Background(), srv.URL+"/short")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if want := srv.URL + "/pena--31782"; res.FinalURL != want {
		t.Errorf("final URL: got %q, want %q", res.FinalURL, want)
	}
}

func TestHTTP_Non2xxIsError(t *testing.T) {
	// WHAT: 404 yields an error, with the status still reported.
	// WHY: A missing topic must surface as a fetch failure, not empty HTML.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTP(Config{})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if res == nil || res.StatusCode != 404 {
		t.Errorf("result: got %+v, want status 404", res)
	}
}

func TestHTTP_Timeout(t *testing.T) {
	// WHAT: Fetch respects the configured timeout.
	// WHY: One slow origin page must not block a feed request forever.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	f := NewHTTP(Config{Timeout: 100 * time.Millisecond})
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestHTTP_MaxBody(t *testing.T) {
	// WHAT: Body is truncated to MaxBytes.
	// WHY: Prevents memory exhaustion from a hostile or broken origin.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 1000; i++ {
			w.Write([]byte("x"))
		}
	}))
	defer srv.Close()

	f := NewHTTP(Config{MaxBytes: 100})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(res.Body) > 100 {
		t.Errorf("body too large: %d bytes, max 100", len(res.Body))
	}
}

func TestHTTP_UnsupportedScheme(t *testing.T) {
	// WHAT: Non-http(s) URLs are rejected before any request.
	// WHY: The resolver only ever emits http(s); anything else is a bug.
	f := NewHTTP(Config{})
	if _, err := f.Fetch(context.Background(), "file:///etc/passwd"); err == nil {
		t.Fatal("expected error for file scheme")
	}
}

func TestHTTP_TooManyRedirects(t *testing.T) {
	// WHAT: More than 5 redirects are blocked.
	// WHY: Redirect loop protection.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.String()+"x", http.StatusFound)
	}))
	defer srv.Close()

	f := NewHTTP(Config{})
	if _, err := f.Fetch(context.Background(), srv.URL+"/start"); err == nil {
		t.Fatal("expected error for too many redirects")
	}
}

// --- Recorder decorator ---

type memRecorder struct {
	recs []Record
}

func (m *memRecorder) Record(_ context.Context, rec Record) { m.recs = append(m.recs, rec) }

func TestRecorded_SuccessAndFailure(t *testing.T) {
	// WHAT: Both outcomes produce a record with status/bytes/error filled in.
	// WHY: The fetch log is the only visibility into origin behaviour.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(500)
			return
		}
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	rec := &memRecorder{}
	c := WithRecorder(NewHTTP(Config{}), rec)

	if _, err := c.Fetch(context.Background(), srv.URL+"/ok"); err != nil {
		t.Fatalf("fetch ok: %v", err)
	}
	if _, err := c.Fetch(context.Background(), srv.URL+"/bad"); err == nil {
		t.Fatal("expected error for 500")
	}

	if len(rec.recs) != 2 {
		t.Fatalf("records: got %d, want 2", len(rec.recs))
	}
	if rec.recs[0].Status != 200 || rec.recs[0].Bytes != 5 || rec.recs[0].Err != "" {
		t.Errorf("success record: %+v", rec.recs[0])
	}
	if rec.recs[1].Status != 500 || rec.recs[1].Err == "" {
		t.Errorf("failure record: %+v", rec.recs[1])
	}
}

func TestWithRecorder_NilPassthrough(t *testing.T) {
	// WHAT: A nil recorder returns the inner client unchanged.
	// WHY: The fetch log is optional; callers should not need a null object.
	inner := NewHTTP(Config{})
	if got := WithRecorder(inner, nil); got != Client(inner) {
		t.Error("nil recorder should pass through the inner client")
	}
}

// --- Cache decorator ---

type countingClient struct {
	calls int
	fail  bool
}

func (c *countingClient) Fetch(_ context.Context, url string) (*Result, error) {
	c.calls++
	if c.fail {
		return nil, fmt.Errorf("origin down")
	}
	return &Result{Body: []byte("page " + url), FinalURL: url, StatusCode: 200}, nil
}

func TestCache_HitWithinTTL(t *testing.T) {
	// WHAT: A second fetch of the same URL within the TTL hits the memo.
	// WHY: The topic page is fetched once per assembly plus once per day page.
	inner := &countingClient{}
	c := NewCache(inner, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), "https://example.org/a"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls: got %d, want 1", inner.calls)
	}
}

func TestCache_ExpiryEvicts(t *testing.T) {
	// WHAT: After the TTL passes, the entry is evicted and re-fetched.
	// WHY: Feed content must not stay stale beyond the window.
	inner := &countingClient{}
	c := NewCache(inner, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Fetch(context.Background(), "https://example.org/a")
	now = now.Add(2 * time.Minute)
	c.Fetch(context.Background(), "https://example.org/a")

	if inner.calls != 2 {
		t.Errorf("inner calls: got %d, want 2", inner.calls)
	}
	if c.Len() != 1 {
		t.Errorf("entries: got %d, want 1", c.Len())
	}
}

func TestCache_FailureNotCached(t *testing.T) {
	// WHAT: Errors are never memoised.
	// WHY: A transient origin failure must not blank the feed for the
	// whole cache window.
	inner := &countingClient{fail: true}
	c := NewCache(inner, time.Minute)

	c.Fetch(context.Background(), "https://example.org/a")
	inner.fail = false
	if _, err := c.Fetch(context.Background(), "https://example.org/a"); err != nil {
		t.Fatalf("second fetch should succeed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls: got %d, want 2", inner.calls)
	}
}

func TestCache_DistinctURLs(t *testing.T) {
	// WHAT: Different URLs get separate entries.
	// WHY: Page 1 and page 2 of a topic differ only by query parameter.
	inner := &countingClient{}
	c := NewCache(inner, time.Minute)

	c.Fetch(context.Background(), "https://example.org/t?day=2026-08-28")
	c.Fetch(context.Background(), "https://example.org/t?day=2026-08-28&p=2")

	if inner.calls != 2 {
		t.Errorf("inner calls: got %d, want 2", inner.calls)
	}
	if c.Len() != 2 {
		t.Errorf("entries: got %d, want 2", c.Len())
	}
}
