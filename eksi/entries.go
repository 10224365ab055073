package eksi

import (
	"bytes"
	"regexp"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// dateLayout matches the site's entry timestamp: "02.01.2026 15:04" in the
// site's fixed UTC+3 zone. Edited entries render as "date ~ date"; the
// pattern picks the first occurrence, the original posting time.
const dateLayout = "02.01.2006 15:04"

var datePattern = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4} \d{2}:\d{2})`)

// timeNow is swapped in tests that pin the date-fallback clock.
var timeNow = time.Now

// ExtractEntries extracts every entry on a topic page, in document order.
// Each list item yields exactly one EntryResult: either a complete Entry or
// a skip naming the missing field. A page without an entry list yields nil.
func ExtractEntries(page []byte) []EntryResult {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil
	}

	list := findFirst(doc, atom.Ul, "id", "entry-item-list")
	if list == nil {
		return nil
	}

	var results []EntryResult
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		results = append(results, extractEntry(li))
	}
	return results
}

func extractEntry(li *html.Node) EntryResult {
	id := getAttr(li, "data-id")
	if id == "" {
		return EntryResult{Skip: "missing data-id"}
	}
	author := getAttr(li, "data-author")
	if author == "" {
		return EntryResult{Skip: "missing data-author"}
	}
	content := findFirstClass(li, atom.Div, "content")
	if content == nil {
		return EntryResult{Skip: "missing content element"}
	}
	info := findFirstClass(li, atom.Div, "info")
	if info == nil {
		return EntryResult{Skip: "missing info element"}
	}
	dateLink := findFirstClass(info, atom.A, "entry-date")
	if dateLink == nil {
		return EntryResult{Skip: "missing date link"}
	}

	return EntryResult{Entry: Entry{
		ID:          id,
		Author:      author,
		ContentHTML: innerHTML(content),
		Permalink:   getAttr(dateLink, "href"),
		Published:   parseEntryDate(collectText(dateLink)),
	}}
}

// parseEntryDate parses the timestamp out of the date link's text. An
// unparseable date degrades to "now" rather than dropping the entry: a
// wrong timestamp is recoverable, a missing entry is not.
func parseEntryDate(text string) time.Time {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return timeNow().In(Zone)
	}
	t, err := time.ParseInLocation(dateLayout, m[1], Zone)
	if err != nil {
		return timeNow().In(Zone)
	}
	return t
}
