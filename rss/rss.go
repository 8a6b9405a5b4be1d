// Package rss renders extracted page items as an RSS 2.0 document.
package rss

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"path"
	"strings"
	"time"

	"github.com/pevans/feedgen/scraper"
)

// Channel describes the feed a set of items is rendered into.
type Channel struct {
	Title       string
	Link        string
	Description string
	SelfLink    string
	BuildDate   time.Time
}

// Generator writes RSS documents.
type Generator struct {
	version string
}

// NewGenerator creates a generator that reports version in <generator>.
func NewGenerator(version string) *Generator {
	return &Generator{version: cmp.Or(version, "dev")}
}

// Render returns the RSS document for items in the order given. Item
// dates are YYYY-MM-DD strings; unparseable or empty dates are omitted.
func (g *Generator) Render(ch Channel, items []scraper.Item) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(ch.Title, ch.Link), 4)
	g.writeElement(&buf, "link", ch.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(ch.Description, fmt.Sprintf("Items extracted from %s", ch.Link)), 4)

	if ch.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(ch.SelfLink)))
	}

	buildDate := ch.BuildDate
	if buildDate.IsZero() {
		buildDate = time.Now().UTC()
	}
	g.writeElement(&buf, "lastBuildDate", buildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("feedgen/%s", g.version), 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>\n")

	return buf.String()
}

func (g *Generator) writeItem(buf *bytes.Buffer, item scraper.Item) {
	buf.WriteString("    <item>\n")

	if item.Link != "" {
		buf.WriteString("      <guid isPermaLink=\"true\">")
		xml.EscapeText(buf, []byte(item.Link))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", item.Title, 6)
	g.writeElement(buf, "link", item.Link, 6)
	g.writeElement(buf, "description", item.Description, 6)

	if item.Date != "" {
		if t, err := time.Parse(scraper.DateLayout, item.Date); err == nil {
			g.writeElement(buf, "pubDate", t.Format(time.RFC1123Z), 6)
		}
	}

	// RSS 2.0 requires url, length and type; the length is unknown here
	if item.Image != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(item.Image),
			imageType(item.Image)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// imageType guesses the MIME type from the URL's extension, defaulting to
// JPEG.
func imageType(link string) string {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	if typ, ok := imageTypes[strings.ToLower(path.Ext(link))]; ok {
		return typ
	}
	return "image/jpeg"
}
