package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// first returns the first element under s matching selector, or nil when the
// selector is empty or matches nothing. goquery treats a selector that fails
// to compile as matching nothing.
func first(s *goquery.Selection, selector string) *goquery.Selection {
	selector = strings.TrimSpace(selector)
	if s == nil || selector == "" {
		return nil
	}

	match := s.Find(selector).First()
	if match.Length() == 0 {
		return nil
	}
	return match
}

// Text returns the trimmed text of the first element under s matching
// selector. A missing selector or match yields "".
func Text(s *goquery.Selection, selector string) string {
	match := first(s, selector)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match.Text())
}

// Attr returns the named attribute of the first element under s matching
// selector, resolved against base. It yields "" when the selector is empty,
// nothing matches, or the matched element lacks the attribute.
func Attr(s *goquery.Selection, selector, attr, base string) string {
	match := first(s, selector)
	if match == nil {
		return ""
	}

	value, ok := match.Attr(attr)
	if !ok {
		return ""
	}
	return ResolveURL(base, value)
}

// ResolveURL resolves ref against base the way a browser would. If either
// side cannot be parsed, ref is returned unchanged.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)

	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
