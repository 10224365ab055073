// Package eksi turns Ekşi Sözlük topics into RSS feeds: it resolves
// free-form topic input to a canonical URL, extracts topic and entry fields
// from fetched pages, and assembles paginated day feeds.
package eksi

import "errors"

// ErrTopicNotFound is returned when a fetched page has no recognisable
// topic structure, or a topic identifier cannot be determined.
var ErrTopicNotFound = errors.New("eksi: topic not found")

// ErrInvalidInput is returned when subscription input fails validation.
var ErrInvalidInput = errors.New("eksi: invalid input")
