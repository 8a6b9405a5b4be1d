package scraper

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SelectorConfig defines how to extract feed items from a page. Every field
// is optional except ItemSelector; when ItemSelector is empty, extraction
// yields no items.
type SelectorConfig struct {
	ItemSelector   string    `json:"item_selector"`
	TitleSelector  string    `json:"title_selector,omitempty"`
	DescSelector   string    `json:"desc_selector,omitempty"`
	URLSelector    string    `json:"url_selector,omitempty"`
	DateSelector   string    `json:"date_selector,omitempty"`
	DateFormat     string    `json:"date_format,omitempty"` // Go layout or strptime-style
	ImageSelector  string    `json:"image_selector,omitempty"`
	MinTitleLength MinLength `json:"min_title_length"`
	MinDescLength  MinLength `json:"min_desc_length"`
}

// AutoSelectorConfig returns the selectors used when a page is configured
// without explicit selectors. The item selector comes from auto-detection.
func AutoSelectorConfig(itemSelector string) SelectorConfig {
	return SelectorConfig{
		ItemSelector:  itemSelector,
		TitleSelector: "h3",
		DescSelector:  "p",
		URLSelector:   "a",
		DateSelector:  "span",
		ImageSelector: "img",
	}
}

// Normalize trims surrounding whitespace from every selector and format.
func (c SelectorConfig) Normalize() SelectorConfig {
	c.ItemSelector = strings.TrimSpace(c.ItemSelector)
	c.TitleSelector = strings.TrimSpace(c.TitleSelector)
	c.DescSelector = strings.TrimSpace(c.DescSelector)
	c.URLSelector = strings.TrimSpace(c.URLSelector)
	c.DateSelector = strings.TrimSpace(c.DateSelector)
	c.DateFormat = strings.TrimSpace(c.DateFormat)
	c.ImageSelector = strings.TrimSpace(c.ImageSelector)
	return c
}

// MinLength is a minimum text length threshold. It never holds a negative
// value once parsed: anything that is not a non-negative integer becomes 0.
type MinLength int

// ParseMinLength parses a threshold from user input, falling back to 0 on
// empty, non-numeric or negative values.
func ParseMinLength(s string) MinLength {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return MinLength(n)
}

// Int returns the threshold as an int, clamping negatives to 0.
func (m MinLength) Int() int {
	if m < 0 {
		return 0
	}
	return int(m)
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null. Any other
// input resolves to 0 rather than failing the whole document.
func (m *MinLength) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*m = ParseMinLength(n.String())
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = ParseMinLength(s)
		return nil
	}

	*m = 0
	return nil
}
