// Package rss serialises assembled feeds as RSS 2.0 using encoding/xml.
//
// Entry content travels in <content:encoded> as CDATA so feed readers render
// the markup; <description> carries a plain-text rendition. Authors use
// <dc:creator>, which unlike RSS's <author> does not require an e-mail
// address.
package rss

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// Item is one feed entry.
type Item struct {
	GUID        string
	Title       string
	Link        string
	Author      string
	Description string // plain text
	ContentHTML string // sanitised HTML
	Published   time.Time
}

// Feed is an assembled feed ready for serialisation.
type Feed struct {
	Title       string
	Link        string
	Description string
	Language    string
	PubDate     time.Time
	Items       []Item
}

// --- XML shapes ---

type xmlRoot struct {
	XMLName      xml.Name   `xml:"rss"`
	Version      string     `xml:"version,attr"`
	ContentXMLNS string     `xml:"xmlns:content,attr"`
	DCXMLNS      string     `xml:"xmlns:dc,attr"`
	Channel      xmlChannel `xml:"channel"`
}

type xmlChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	PubDate     string    `xml:"pubDate,omitempty"`
	Items       []xmlItem `xml:"item"`
}

type xmlItem struct {
	GUID        xmlGUID     `xml:"guid"`
	Title       string      `xml:"title"`
	Link        string      `xml:"link"`
	Creator     string      `xml:"dc:creator,omitempty"`
	Description string      `xml:"description,omitempty"`
	Content     *xmlContent `xml:"content:encoded,omitempty"`
	PubDate     string      `xml:"pubDate,omitempty"`
}

type xmlGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type xmlContent struct {
	Body string `xml:",cdata"`
}

// Write serialises the feed as indented RSS 2.0 XML, with the standard XML
// declaration.
func Write(w io.Writer, f *Feed) error {
	root := xmlRoot{
		Version:      "2.0",
		ContentXMLNS: "http://purl.org/rss/1.0/modules/content/",
		DCXMLNS:      "http://purl.org/dc/elements/1.1/",
		Channel: xmlChannel{
			Title:       f.Title,
			Link:        f.Link,
			Description: f.Description,
			Language:    f.Language,
			Items:       make([]xmlItem, 0, len(f.Items)),
		},
	}
	if !f.PubDate.IsZero() {
		root.Channel.PubDate = f.PubDate.Format(time.RFC1123Z)
	}

	for _, it := range f.Items {
		xi := xmlItem{
			GUID:        xmlGUID{IsPermaLink: true, Value: it.GUID},
			Title:       it.Title,
			Link:        it.Link,
			Creator:     it.Author,
			Description: it.Description,
		}
		if it.ContentHTML != "" {
			xi.Content = &xmlContent{Body: it.ContentHTML}
		}
		if !it.Published.IsZero() {
			xi.PubDate = it.Published.Format(time.RFC1123Z)
		}
		root.Channel.Items = append(root.Channel.Items, xi)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("rss: write header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("rss: encode: %w", err)
	}
	return enc.Close()
}
