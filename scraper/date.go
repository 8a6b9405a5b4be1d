package scraper

import (
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
)

// DateLayout is the normalized form of every extracted date.
const DateLayout = "2006-01-02"

// glibcFlags drops the "no padding" flag (%-d). Parsing already accepts
// unpadded numbers.
var glibcFlags = strings.NewReplacer("%%", "%%", "%-", "%")

// ParseDate parses text with format and returns the date normalized to
// YYYY-MM-DD. A format containing '%' is a strptime format; anything else
// is a Go reference layout. It returns "" when either input is empty or the
// text does not match the format; a bad date never produces a partial value.
func ParseDate(text, format string) string {
	text = strings.TrimSpace(text)
	if text == "" || format == "" {
		return ""
	}

	if !strings.Contains(format, "%") {
		t, err := time.Parse(format, text)
		if err != nil {
			return ""
		}
		return t.Format(DateLayout)
	}

	format = glibcFlags.Replace(format)
	t, err := timefmt.Parse(text, format)
	if err != nil {
		return ""
	}

	// Out of range fields such as Feb 30 roll over into the next month
	if !sameNumbers(text, timefmt.Format(t, format)) {
		return ""
	}
	return t.Format(DateLayout)
}

// sameNumbers reports whether a and b carry the same sequence of numbers,
// ignoring zero padding. Inputs with a different count of numbers are
// treated as matching.
func sameNumbers(a, b string) bool {
	na, nb := numbers(a), numbers(b)
	if len(na) != len(nb) {
		return true
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

func numbers(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	for i, f := range fields {
		if trimmed := strings.TrimLeft(f, "0"); trimmed != "" {
			fields[i] = trimmed
		} else {
			fields[i] = "0"
		}
	}
	return fields
}
