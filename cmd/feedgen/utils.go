package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/pevans/feedgen/config"
	"github.com/pevans/feedgen/scraper"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// truncate shortens s to at most width display columns, marking the cut
// with "...".
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

// pad truncates s and right-pads it to width display columns.
func pad(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}

// ensureStorageDir creates the parent directory of a SQLite database.
func ensureStorageDir(cfg *config.FileConfig) error {
	switch strings.ToLower(cfg.Storage.Type) {
	case "sqlite", "sqlite3", "":
	default:
		return nil
	}

	dir := filepath.Dir(cfg.Storage.DSN)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

// selectorFlags registers the selector flags shared by preview and save.
type selectorFlags struct {
	item, title, desc, link, date, dateFormat, image string
	minTitle, minDesc                                string
}

func (f *selectorFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.item, "item", "", "CSS selector for each item")
	fs.StringVar(&f.title, "title", "", "CSS selector for the item title")
	fs.StringVar(&f.desc, "desc", "", "CSS selector for the item description")
	fs.StringVar(&f.link, "link", "", "CSS selector for the element whose href is the item link")
	fs.StringVar(&f.date, "date", "", "CSS selector for the item date")
	fs.StringVar(&f.dateFormat, "date-format", "", "Date format (Go layout or strptime, e.g. %Y-%m-%d)")
	fs.StringVar(&f.image, "image", "", "CSS selector for the element whose src is the item image")
	fs.StringVar(&f.minTitle, "min-title", "0", "Minimum title length in characters")
	fs.StringVar(&f.minDesc, "min-desc", "0", "Minimum description length in characters")
}

func (f *selectorFlags) selectors() scraper.SelectorConfig {
	return scraper.SelectorConfig{
		ItemSelector:   f.item,
		TitleSelector:  f.title,
		DescSelector:   f.desc,
		URLSelector:    f.link,
		DateSelector:   f.date,
		DateFormat:     f.dateFormat,
		ImageSelector:  f.image,
		MinTitleLength: scraper.ParseMinLength(f.minTitle),
		MinDescLength:  scraper.ParseMinLength(f.minDesc),
	}.Normalize()
}
