package rss

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pevans/feedgen/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []scraper.Item {
	return []scraper.Item{
		{
			Title:       "Newest <post>",
			Description: "Fish & chips",
			Link:        "https://example.com/p/2",
			Date:        "2024-05-02",
			Image:       "https://example.com/i/2.png?w=300",
		},
		{
			Title: "Older",
			Link:  "https://example.com/p/1",
			Date:  "not a date",
		},
	}
}

// TestRender_ParsesAsRSS verifies the output is valid RSS that a feed
// reader understands
func TestRender_ParsesAsRSS(t *testing.T) {
	g := NewGenerator("1.0.0")
	build := time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC)

	out := g.Render(Channel{
		Link:      "https://example.com/blog/",
		SelfLink:  "http://localhost:8080/api/v1/feeds/rss?url=https%3A%2F%2Fexample.com%2Fblog%2F",
		BuildDate: build,
	}, sampleItems())

	feed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)

	assert.Equal(t, "rss", feed.FeedType)
	assert.Equal(t, "https://example.com/blog/", feed.Title, "title defaults to the page URL")
	assert.Equal(t, "https://example.com/blog/", feed.Link)
	assert.Equal(t, "Items extracted from https://example.com/blog/", feed.Description)
	assert.Equal(t, "feedgen/1.0.0", feed.Generator)

	require.Len(t, feed.Items, 2)
	assert.Equal(t, "Newest <post>", feed.Items[0].Title)
	assert.Equal(t, "Fish & chips", feed.Items[0].Description)
	assert.Equal(t, "https://example.com/p/2", feed.Items[0].Link)
	assert.Equal(t, "https://example.com/p/2", feed.Items[0].GUID)
	require.NotNil(t, feed.Items[0].PublishedParsed)
	assert.Equal(t, "2024-05-02", feed.Items[0].PublishedParsed.UTC().Format(scraper.DateLayout))
	require.Len(t, feed.Items[0].Enclosures, 1)
	assert.Equal(t, "image/png", feed.Items[0].Enclosures[0].Type)

	assert.Nil(t, feed.Items[1].PublishedParsed, "bad dates are omitted")
	assert.Empty(t, feed.Items[1].Enclosures)
}

// TestRender_Escaping verifies markup in item text is escaped
func TestRender_Escaping(t *testing.T) {
	out := NewGenerator("").Render(Channel{Link: "https://example.com/"}, sampleItems())

	assert.Contains(t, out, "<title>Newest &lt;post&gt;</title>")
	assert.Contains(t, out, "Fish &amp; chips")
	assert.Contains(t, out, "feedgen/dev")
	assert.False(t, strings.Contains(out, "<post>"))
}

// TestRender_NoItems verifies an empty page still yields a valid channel
func TestRender_NoItems(t *testing.T) {
	out := NewGenerator("1").Render(Channel{Title: "Blog", Link: "https://example.com/"}, nil)

	feed, err := gofeed.NewParser().ParseString(out)
	require.NoError(t, err)
	assert.Equal(t, "Blog", feed.Title)
	assert.Empty(t, feed.Items)
}

func TestImageType(t *testing.T) {
	tests := map[string]string{
		"https://x/a.png":        "image/png",
		"https://x/a.GIF":        "image/gif",
		"https://x/a.webp?v=2":   "image/webp",
		"https://x/a.svg#frag":   "image/svg+xml",
		"https://x/photo.jpg":    "image/jpeg",
		"https://x/no-extension": "image/jpeg",
	}
	for link, want := range tests {
		assert.Equal(t, want, imageType(link), link)
	}
}
