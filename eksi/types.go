package eksi

import (
	"time"

	"github.com/hazyhaar/eksirss/eksi/internal/store"
)

// Zone is the site's civil timezone: fixed UTC+3, no daylight saving.
// Every displayed and published timestamp uses it.
var Zone = time.FixedZone("+03", 3*60*60)

// Topic identifies one discussion thread on the source site.
type Topic struct {
	ID    string // numeric, stable key
	Title string
	Slug  string // may be empty
	URL   string // canonical URL after redirects
}

// Entry is one user-authored post inside a topic page. Entries live only
// for the duration of one feed assembly; they are never persisted.
type Entry struct {
	ID          string
	Author      string
	ContentHTML string // inner HTML of the content element, markup preserved
	Permalink   string // site-relative
	Published   time.Time
}

// EntryResult is the outcome of extracting one list item: either an Entry,
// or a skip with its reason. Malformed items on a live site are expected
// and must not abort the page, but the reasons stay observable.
type EntryResult struct {
	Entry Entry
	Skip  string // empty means success
}

// Subscription is one tracked topic in the persisted list.
type Subscription = store.Subscription
