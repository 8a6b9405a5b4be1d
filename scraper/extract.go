package scraper

import (
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Item is a single entry extracted from a page. Links and images are
// absolute; Date is YYYY-MM-DD or empty.
type Item struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Date        string `json:"date,omitempty"`
	Image       string `json:"image,omitempty"`
}

// ExtractItems extracts one Item per element matching config.ItemSelector,
// in document order. Each field is evaluated independently within its item
// element, so a missing match or attribute only empties that field. Items
// whose title or description is shorter than the configured minimum are
// dropped.
func ExtractItems(doc *goquery.Document, baseURL string, config SelectorConfig) []Item {
	config = config.Normalize()
	items := []Item{}
	if doc == nil || config.ItemSelector == "" {
		return items
	}

	minTitle := config.MinTitleLength.Int()
	minDesc := config.MinDescLength.Int()

	doc.Find(config.ItemSelector).Each(func(_ int, el *goquery.Selection) {
		item := Item{
			Title:       Text(el, config.TitleSelector),
			Description: Text(el, config.DescSelector),
			Link:        Attr(el, config.URLSelector, "href", baseURL),
			Image:       Attr(el, config.ImageSelector, "src", baseURL),
		}
		item.Date = ParseDate(Text(el, config.DateSelector), config.DateFormat)

		if utf8.RuneCountInString(item.Title) < minTitle ||
			utf8.RuneCountInString(item.Description) < minDesc {
			return
		}
		items = append(items, item)
	})

	return items
}

// Newest returns the first extracted item, which is treated as the most
// recent one. Pages are trusted to list newest first; items are never
// re-sorted by date.
func Newest(items []Item) (Item, bool) {
	if len(items) == 0 {
		return Item{}, false
	}
	return items[0], true
}
