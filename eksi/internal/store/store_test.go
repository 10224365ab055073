package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/eksirss/dbopen"
	"github.com/hazyhaar/eksirss/eksi/internal/fetch"

	_ "modernc.org/sqlite"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "subscriptions.json"))
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	// WHAT: Listing before any write returns an empty list, no error.
	// WHY: First boot has no subscriptions.json yet.
	s := tempStore(t)
	subs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("subs: got %d, want 0", len(subs))
	}
}

func TestStore_AddListRoundTrip(t *testing.T) {
	// WHAT: Added subscriptions come back in insertion order.
	// WHY: The combined feed truncates by store order, so order matters.
	s := tempStore(t)

	for _, id := range []string{"31782", "42", "7"} {
		changed, err := s.Add(Subscription{ID: id, Title: "t" + id, URL: "https://eksisozluk.com/baslik/" + id, Added: time.Now()})
		if err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
		if !changed {
			t.Errorf("add %s: expected change", id)
		}
	}

	subs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("subs: got %d, want 3", len(subs))
	}
	for i, want := range []string{"31782", "42", "7"} {
		if subs[i].ID != want {
			t.Errorf("subs[%d]: got %q, want %q", i, subs[i].ID, want)
		}
	}
}

func TestStore_AddDuplicateIsNoop(t *testing.T) {
	// WHAT: Adding an existing ID leaves the store unchanged.
	// WHY: Subscribing twice from the form must not duplicate feed items.
	s := tempStore(t)

	s.Add(Subscription{ID: "31782", Title: "pena"})
	changed, err := s.Add(Subscription{ID: "31782", Title: "pena again"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if changed {
		t.Error("duplicate add reported a change")
	}

	subs, _ := s.List()
	if len(subs) != 1 {
		t.Fatalf("subs: got %d, want 1", len(subs))
	}
	if subs[0].Title != "pena" {
		t.Errorf("title overwritten: got %q", subs[0].Title)
	}
}

func TestStore_Remove(t *testing.T) {
	// WHAT: Remove deletes by ID; unknown IDs are a no-op.
	// WHY: The remove link is idempotent by contract.
	s := tempStore(t)
	s.Add(Subscription{ID: "1"})
	s.Add(Subscription{ID: "2"})

	if err := s.Remove("1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove("nope"); err != nil {
		t.Fatalf("remove unknown: %v", err)
	}

	subs, _ := s.List()
	if len(subs) != 1 || subs[0].ID != "2" {
		t.Errorf("subs after remove: %+v", subs)
	}
}

func TestStore_Get(t *testing.T) {
	// WHAT: Get finds by ID and returns nil for unknown IDs.
	// WHY: The topic feed route prefers the stored (resolved) URL.
	s := tempStore(t)
	s.Add(Subscription{ID: "31782", URL: "https://eksisozluk.com/pena--31782"})

	sub, err := s.Get("31782")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sub == nil || sub.URL != "https://eksisozluk.com/pena--31782" {
		t.Errorf("get: %+v", sub)
	}

	missing, err := s.Get("0")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown ID, got %+v", missing)
	}
}

func TestFetchLog_RoundTrip(t *testing.T) {
	// WHAT: Records insert and come back newest-first.
	// WHY: The log is the paper trail for origin failures.
	db := dbopen.OpenMemory(t)
	l := NewFetchLog(db, nil)
	if err := l.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	ctx := context.Background()
	l.Record(ctx, fetch.Record{URL: "https://eksisozluk.com/a", Status: 200, Bytes: 1234, Duration: 80 * time.Millisecond})
	l.Record(ctx, fetch.Record{URL: "https://eksisozluk.com/b", Status: 503, Err: "fetch: http 503", Duration: 40 * time.Millisecond})

	recs, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d, want 2", len(recs))
	}
	if recs[0].URL != "https://eksisozluk.com/b" || recs[0].Status != 503 || recs[0].Err == "" {
		t.Errorf("newest record: %+v", recs[0])
	}
	if recs[1].Status != 200 || recs[1].Bytes != 1234 || recs[1].DurationMs != 80 {
		t.Errorf("older record: %+v", recs[1])
	}
}
