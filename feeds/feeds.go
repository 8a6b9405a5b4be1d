package feeds

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/feedgen/scraper"
)

// Custom errors for feed operations
var (
	ErrFeedNotFound       = errors.New("feed not found")
	ErrUnsupportedStorage = errors.New("storage type must be sqlite or postgres")
)

// timeLayout is fixed-width so that lexical ordering of stored timestamps
// matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FeedStore persists feed configurations keyed by page URL. It runs on
// SQLite by default and on PostgreSQL when opened with the postgres driver.
type FeedStore struct {
	db       *sql.DB
	postgres bool
}

// FeedConfig is the stored configuration for one watched page.
type FeedConfig struct {
	FeedID        uuid.UUID              `json:"feed_id"`
	URL           string                 `json:"url"`
	Selectors     scraper.SelectorConfig `json:"selectors"`
	WebhookTarget string                 `json:"webhook_target,omitempty"`
	WatermarkLink *string                `json:"watermark_link,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// HasWebhook reports whether the feed is eligible for polling.
func (f *FeedConfig) HasWebhook() bool {
	return strings.TrimSpace(f.WebhookTarget) != ""
}

// NewFeedStore opens the store. storageType is "sqlite" (or "sqlite3") or
// "postgres"; dsn is a file path for SQLite and a connection string for
// PostgreSQL.
func NewFeedStore(storageType, dsn string) (*FeedStore, error) {
	var driver string
	switch strings.ToLower(storageType) {
	case "", "sqlite", "sqlite3":
		driver = "sqlite3"
	case "postgres", "postgresql":
		driver = "postgres"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStorage, storageType)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &FeedStore{db: db, postgres: driver == "postgres"}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the feed_configs table if it doesn't exist.
func (s *FeedStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feed_configs (
		feed_id TEXT PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		item_selector TEXT NOT NULL DEFAULT '',
		title_selector TEXT NOT NULL DEFAULT '',
		desc_selector TEXT NOT NULL DEFAULT '',
		url_selector TEXT NOT NULL DEFAULT '',
		date_selector TEXT NOT NULL DEFAULT '',
		date_format TEXT NOT NULL DEFAULT '',
		image_selector TEXT NOT NULL DEFAULT '',
		min_title_length INTEGER NOT NULL DEFAULT 0,
		min_desc_length INTEGER NOT NULL DEFAULT 0,
		webhook_target TEXT NOT NULL DEFAULT '',
		watermark_link TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *FeedStore) Close() error {
	return s.db.Close()
}

const feedColumns = `
	feed_id, url, item_selector, title_selector, desc_selector,
	url_selector, date_selector, date_format, image_selector,
	min_title_length, min_desc_length, webhook_target, watermark_link,
	created_at, updated_at
`

// Upsert creates or replaces the configuration for url. The watermark,
// feed ID and creation time of an existing row are preserved. It returns
// the stored configuration.
func (s *FeedStore) Upsert(url string, selectors scraper.SelectorConfig, webhookTarget string) (*FeedConfig, error) {
	url = strings.TrimSpace(url)
	selectors = selectors.Normalize()
	now := formatTime(time.Now())

	query := `
		INSERT INTO feed_configs (
			feed_id, url, item_selector, title_selector, desc_selector,
			url_selector, date_selector, date_format, image_selector,
			min_title_length, min_desc_length, webhook_target,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			item_selector = excluded.item_selector,
			title_selector = excluded.title_selector,
			desc_selector = excluded.desc_selector,
			url_selector = excluded.url_selector,
			date_selector = excluded.date_selector,
			date_format = excluded.date_format,
			image_selector = excluded.image_selector,
			min_title_length = excluded.min_title_length,
			min_desc_length = excluded.min_desc_length,
			webhook_target = excluded.webhook_target,
			updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(s.rebind(query),
		uuid.New().String(),
		url,
		selectors.ItemSelector,
		selectors.TitleSelector,
		selectors.DescSelector,
		selectors.URLSelector,
		selectors.DateSelector,
		selectors.DateFormat,
		selectors.ImageSelector,
		selectors.MinTitleLength.Int(),
		selectors.MinDescLength.Int(),
		strings.TrimSpace(webhookTarget),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert feed: %w", err)
	}

	return s.GetByURL(url)
}

// GetByURL retrieves the configuration for a page URL.
func (s *FeedStore) GetByURL(url string) (*FeedConfig, error) {
	query := "SELECT " + feedColumns + " FROM feed_configs WHERE url = ?"

	feed, err := scanFeed(s.db.QueryRow(s.rebind(query), strings.TrimSpace(url)))
	if err == sql.ErrNoRows {
		return nil, ErrFeedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}

	return feed, nil
}

// ListFeeds returns every stored configuration, newest first.
func (s *FeedStore) ListFeeds() ([]FeedConfig, error) {
	query := "SELECT " + feedColumns + " FROM feed_configs ORDER BY created_at DESC, url ASC"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feeds: %w", err)
	}
	defer rows.Close()

	feeds := []FeedConfig{}
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed: %w", err)
		}
		feeds = append(feeds, *feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feeds: %w", err)
	}

	return feeds, nil
}

// SetWatermark unconditionally records link as the last notified item.
func (s *FeedStore) SetWatermark(url, link string) error {
	query := "UPDATE feed_configs SET watermark_link = ?, updated_at = ? WHERE url = ?"

	result, err := s.db.Exec(s.rebind(query), link, formatTime(time.Now()), url)
	if err != nil {
		return fmt.Errorf("failed to update watermark: %w", err)
	}

	return requireAffected(result)
}

// CompareAndSetWatermark records link as the last notified item only if the
// stored watermark still equals expected (nil meaning never set). It
// reports whether the write happened. A missing feed is ErrFeedNotFound.
func (s *FeedStore) CompareAndSetWatermark(url string, expected *string, link string) (bool, error) {
	query := "UPDATE feed_configs SET watermark_link = ?, updated_at = ? WHERE url = ? AND watermark_link IS NULL"
	args := []any{link, formatTime(time.Now()), url}
	if expected != nil {
		query = "UPDATE feed_configs SET watermark_link = ?, updated_at = ? WHERE url = ? AND watermark_link = ?"
		args = append(args, *expected)
	}

	result, err := s.db.Exec(s.rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("failed to update watermark: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}

	// Distinguish a lost race from a feed that no longer exists
	if _, err := s.GetByURL(url); err != nil {
		return false, err
	}
	return false, nil
}

// DeleteFeed removes the configuration for a page URL.
func (s *FeedStore) DeleteFeed(url string) error {
	result, err := s.db.Exec(s.rebind("DELETE FROM feed_configs WHERE url = ?"), strings.TrimSpace(url))
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}

	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrFeedNotFound
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *FeedStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanFeed is a shared helper that parses a row into a FeedConfig.
func scanFeed(row rowScanner) (*FeedConfig, error) {
	var feedIDStr, createdAtStr, updatedAtStr string
	var minTitle, minDesc int
	var watermark sql.NullString
	feed := &FeedConfig{}
	sel := &feed.Selectors

	err := row.Scan(
		&feedIDStr, &feed.URL,
		&sel.ItemSelector, &sel.TitleSelector, &sel.DescSelector,
		&sel.URLSelector, &sel.DateSelector, &sel.DateFormat, &sel.ImageSelector,
		&minTitle, &minDesc, &feed.WebhookTarget, &watermark,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	feed.FeedID, err = uuid.Parse(feedIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed ID: %w", err)
	}

	sel.MinTitleLength = scraper.MinLength(minTitle)
	sel.MinDescLength = scraper.MinLength(minDesc)
	if watermark.Valid {
		feed.WatermarkLink = &watermark.String
	}
	feed.CreatedAt = parseTime(createdAtStr)
	feed.UpdatedAt = parseTime(updatedAtStr)

	return feed, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(0).Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t.Truncate(0)
}
