package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestText verifies first-match text extraction and trimming
func TestText(t *testing.T) {
	doc := parseHTML(t, `
		<div id="root">
			<h2>
				First heading
			</h2>
			<h2>Second heading</h2>
		</div>
	`)
	root := doc.Find("#root")

	assert.Equal(t, "First heading", Text(root, "h2"))
	assert.Empty(t, Text(root, "h4"), "no match should be empty")
	assert.Empty(t, Text(root, ""), "empty selector should be empty")
	assert.Empty(t, Text(root, "  "), "blank selector should be empty")
	assert.Empty(t, Text(nil, "h2"), "nil selection should be empty")
}

// TestAttr verifies attribute extraction with URL resolution
func TestAttr(t *testing.T) {
	doc := parseHTML(t, `
		<div id="root">
			<a>no href</a>
			<a href="/second">second</a>
			<img src="pic.jpg">
		</div>
	`)
	root := doc.Find("#root")

	assert.Empty(t, Attr(root, "a", "href", "https://x.example.com/"),
		"first match lacks href, so the field is empty")
	assert.Equal(t, "https://x.example.com/second", Attr(root, "a[href]", "href", "https://x.example.com/"))
	assert.Equal(t, "https://x.example.com/dir/pic.jpg", Attr(root, "img", "src", "https://x.example.com/dir/page"))
	assert.Empty(t, Attr(root, "video", "src", "https://x.example.com/"))
	assert.Empty(t, Attr(root, "", "href", "https://x.example.com/"))
}

// TestResolveURL verifies relative and absolute reference handling
func TestResolveURL(t *testing.T) {
	tests := []struct {
		base     string
		ref      string
		expected string
	}{
		{"https://x.example.com/a/b", "/c", "https://x.example.com/c"},
		{"https://x.example.com/a/b", "c", "https://x.example.com/a/c"},
		{"https://x.example.com/a/b", "../c", "https://x.example.com/c"},
		{"https://x.example.com/a/", "https://y.example.com/z", "https://y.example.com/z"},
		{"https://x.example.com/a/", "//cdn.example.com/i.png", "https://cdn.example.com/i.png"},
		{"https://x.example.com/a/", "?page=2", "https://x.example.com/a/?page=2"},
		{"https://x.example.com/a/", "", "https://x.example.com/a/"},
		{"https://x.example.com/a/", "  /trimmed ", "https://x.example.com/trimmed"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ResolveURL(tt.base, tt.ref), "%s + %s", tt.base, tt.ref)
	}
}

// TestResolveURL_BadBase verifies that an unparseable base leaves the
// reference untouched
func TestResolveURL_BadBase(t *testing.T) {
	assert.Equal(t, "/post", ResolveURL("http://[::1", "/post"))
}
