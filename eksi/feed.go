package eksi

import (
	"io"

	"github.com/hazyhaar/eksirss/eksi/internal/rss"
)

// Feed and Item are the assembled feed model, re-exported so callers
// outside this package tree can consume what Service methods return.
type (
	Feed = rss.Feed
	Item = rss.Item
)

// WriteFeed serialises a feed as RSS 2.0 XML.
func WriteFeed(w io.Writer, f *Feed) error {
	return rss.Write(w, f)
}
