package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDetectDocument_Card verifies a single card is detected with its class
func TestDetectDocument_Card(t *testing.T) {
	doc := parseHTML(t, `
		<html><body>
			<div class="card"><h2>Title</h2><p>Body</p></div>
		</body></html>
	`)

	assert.Equal(t, "div.card", DetectDocument(doc))
}

// TestDetectDocument_MultipleClasses verifies classes are dot-joined
func TestDetectDocument_MultipleClasses(t *testing.T) {
	doc := parseHTML(t, `
		<section class="entry  featured"><h1>Title</h1><div><p>Body</p></div></section>
	`)

	assert.Equal(t, "section.entry.featured", DetectDocument(doc))
}

// TestDetectDocument_NoClass verifies a bare tag name is returned
func TestDetectDocument_NoClass(t *testing.T) {
	doc := parseHTML(t, `<article><h3>Title</h3><p>Body</p></article>`)

	assert.Equal(t, "article", DetectDocument(doc))
}

// TestDetectDocument_FirstMatchWins verifies the greedy document-order
// behavior, including outer wrappers that qualify first
func TestDetectDocument_FirstMatchWins(t *testing.T) {
	doc := parseHTML(t, `
		<div class="page">
			<article class="post"><h2>One</h2><p>Body</p></article>
			<article class="post"><h2>Two</h2><p>Body</p></article>
		</div>
	`)

	assert.Equal(t, "div.page", DetectDocument(doc),
		"the outer wrapper contains a heading and paragraph, so it wins")
}

// TestDetectDocument_SkipsIncompleteContainers verifies containers need both
// a heading and a paragraph
func TestDetectDocument_SkipsIncompleteContainers(t *testing.T) {
	doc := parseHTML(t, `
		<div class="nav"><h1>Site</h1></div>
		<div class="footer"><p>Copyright</p></div>
		<section class="news"><h3>Story</h3><p>Text</p></section>
	`)

	assert.Equal(t, "section.news", DetectDocument(doc))
}

// TestDetectDocument_HeadingLevels verifies only h1 to h3 count as headings
func TestDetectDocument_HeadingLevels(t *testing.T) {
	doc := parseHTML(t, `<div class="x"><h4>Small</h4><p>Body</p></div>`)

	assert.Empty(t, DetectDocument(doc))
}

// TestDetectDocument_NothingFound verifies an empty selector when nothing
// qualifies
func TestDetectDocument_NothingFound(t *testing.T) {
	doc := parseHTML(t, `<ul><li><h2>Item</h2><p>Text</p></li></ul>`)

	assert.Empty(t, DetectDocument(doc))
	assert.Empty(t, DetectDocument(nil))
}

// fakeElement is a hand-built tree used to exercise the detector without a
// parser.
type fakeElement struct {
	tag      string
	classes  []string
	children []*fakeElement
}

func (f *fakeElement) TagName() string    { return f.tag }
func (f *fakeElement) Classes() []string  { return f.classes }
func (f *fakeElement) Children() []Element {
	out := make([]Element, 0, len(f.children))
	for _, c := range f.children {
		out = append(out, c)
	}
	return out
}

func el(tag string, classes []string, children ...*fakeElement) *fakeElement {
	return &fakeElement{tag: tag, classes: classes, children: children}
}

// TestDetectItemSelector_AbstractTree verifies the detector works over any
// Element implementation
func TestDetectItemSelector_AbstractTree(t *testing.T) {
	root := el("root", nil,
		el("header", nil, el("h1", nil)),
		el("main", nil,
			el("DIV", []string{"teaser", "wide"},
				el("span", nil, el("H2", nil)),
				el("p", nil),
			),
		),
	)

	assert.Equal(t, "div.teaser.wide", DetectItemSelector(root))
	assert.Empty(t, DetectItemSelector(nil))
}

// TestDetectItemSelector_RootExcluded verifies the root itself is not a
// candidate
func TestDetectItemSelector_RootExcluded(t *testing.T) {
	root := el("div", []string{"root"}, el("h2", nil), el("p", nil))

	assert.Empty(t, DetectItemSelector(root))
}
