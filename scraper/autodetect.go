package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Element is the minimal view of a document tree needed for auto-detection.
// Any parser that can expose tag names, classes and child elements can be
// used.
type Element interface {
	TagName() string
	Classes() []string
	Children() []Element
}

var (
	containerTags = map[string]bool{"article": true, "div": true, "section": true}
	headingTags   = map[string]bool{"h1": true, "h2": true, "h3": true}
)

// DetectItemSelector scans the descendants of root in document order and
// returns a selector for the first article, div or section that contains
// both a heading (h1-h3) and a paragraph. The selector is the tag name,
// followed by its classes joined with dots when it has any. It returns ""
// when no container qualifies.
//
// First match wins; no attempt is made to find the most repeated pattern.
func DetectItemSelector(root Element) string {
	if root == nil {
		return ""
	}

	var found Element
	walk(root.Children(), func(el Element) bool {
		if !containerTags[strings.ToLower(el.TagName())] {
			return true
		}
		if hasDescendant(el, headingTags) && hasDescendant(el, map[string]bool{"p": true}) {
			found = el
			return false
		}
		return true
	})

	if found == nil {
		return ""
	}
	return selectorFor(found)
}

// DetectDocument runs DetectItemSelector over a parsed goquery document.
func DetectDocument(doc *goquery.Document) string {
	if doc == nil || len(doc.Nodes) == 0 {
		return ""
	}
	return DetectItemSelector(NodeElement{Node: doc.Nodes[0]})
}

// walk visits elements depth-first in document order until visit returns
// false. It reports whether the walk ran to completion.
func walk(elements []Element, visit func(Element) bool) bool {
	for _, el := range elements {
		if !visit(el) {
			return false
		}
		if !walk(el.Children(), visit) {
			return false
		}
	}
	return true
}

func hasDescendant(el Element, tags map[string]bool) bool {
	found := false
	walk(el.Children(), func(child Element) bool {
		if tags[strings.ToLower(child.TagName())] {
			found = true
			return false
		}
		return true
	})
	return found
}

func selectorFor(el Element) string {
	tag := strings.ToLower(el.TagName())
	classes := el.Classes()
	if len(classes) == 0 {
		return tag
	}
	return tag + "." + strings.Join(classes, ".")
}

// NodeElement adapts an x/net/html node to Element. Only element nodes are
// reported as children.
type NodeElement struct {
	Node *html.Node
}

// TagName returns the node's tag, or "" for non-element nodes such as the
// document root.
func (e NodeElement) TagName() string {
	if e.Node == nil || e.Node.Type != html.ElementNode {
		return ""
	}
	return e.Node.Data
}

// Classes returns the whitespace-separated entries of the class attribute.
func (e NodeElement) Classes() []string {
	if e.Node == nil {
		return nil
	}
	for _, attr := range e.Node.Attr {
		if attr.Namespace == "" && attr.Key == "class" {
			return strings.Fields(attr.Val)
		}
	}
	return nil
}

func (e NodeElement) Children() []Element {
	if e.Node == nil {
		return nil
	}

	var children []Element
	for c := e.Node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, NodeElement{Node: c})
		}
	}
	return children
}
