package eksi

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExtractTopic pulls topic identity out of a fetched page. The title
// heading carries the display title plus data-id and data-slug attributes;
// when those are absent the final URL is the fallback source for both ID
// and slug, and knownID (from Resolve) is the last resort for the ID.
//
// A page without a title heading is not a topic page.
func ExtractTopic(page []byte, finalURL, knownID string) (*Topic, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("eksi: parse page: %w", err)
	}

	h1 := findFirst(doc, atom.H1, "id", "title")
	if h1 == nil {
		return nil, fmt.Errorf("%w: no title heading at %s", ErrTopicNotFound, finalURL)
	}

	t := &Topic{
		Title: collectText(h1),
		Slug:  getAttr(h1, "data-slug"),
		URL:   finalURL,
		ID:    getAttr(h1, "data-id"),
	}
	if t.ID == "" {
		t.ID = idFromURL(finalURL)
	}
	if t.ID == "" {
		t.ID = knownID
	}
	if t.Slug == "" {
		t.Slug = slugFromURL(finalURL)
	}
	if t.ID == "" {
		return nil, fmt.Errorf("%w: no topic id at %s", ErrTopicNotFound, finalURL)
	}
	if t.Title == "" {
		t.Title = t.Slug
	}
	return t, nil
}
