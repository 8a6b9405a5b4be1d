// Package configure implements the interactive flows behind the API and
// CLI: saving a page configuration, previewing extraction and detecting an
// item selector.
package configure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/feedgen/feeds"
	"github.com/pevans/feedgen/notify"
	"github.com/pevans/feedgen/scraper"
)

// Custom errors for configuration requests
var (
	ErrURLRequired          = errors.New("url is required")
	ErrItemSelectorRequired = errors.New("item selector is required in advanced mode")
)

// Store is the part of the feed store used when saving.
type Store interface {
	GetByURL(url string) (*feeds.FeedConfig, error)
	Upsert(url string, selectors scraper.SelectorConfig, webhookTarget string) (*feeds.FeedConfig, error)
}

// Fetcher retrieves and parses a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Notifier delivers a message to a webhook target.
type Notifier interface {
	Dispatch(ctx context.Context, target, content string) bool
}

// Bootstrapper sends the initial post for a newly saved feed.
type Bootstrapper interface {
	BootstrapItems(ctx context.Context, feed *feeds.FeedConfig, items []scraper.Item) (bool, error)
}

// Service runs the configuration flows.
type Service struct {
	store        Store
	fetcher      Fetcher
	notifier     Notifier
	bootstrapper Bootstrapper
	logger       *slog.Logger
}

// NewService creates a configuration service. bootstrapper may be nil, in
// which case no initial post is sent on save.
func NewService(store Store, fetcher Fetcher, notifier Notifier, bootstrapper Bootstrapper, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:        store,
		fetcher:      fetcher,
		notifier:     notifier,
		bootstrapper: bootstrapper,
		logger:       logger.With("component", "configure"),
	}
}

// SaveRequest is a request to create or replace a page configuration.
// When Auto is set the item selector is detected from the page and the
// other selectors use their auto-mode defaults.
type SaveRequest struct {
	URL           string                 `json:"url"`
	Auto          bool                   `json:"auto"`
	Selectors     scraper.SelectorConfig `json:"selectors"`
	WebhookTarget string                 `json:"webhook_target"`
}

// SaveResult describes a saved configuration.
type SaveResult struct {
	Feed             *feeds.FeedConfig `json:"feed"`
	DetectedSelector string            `json:"detected_selector,omitempty"`
	Items            []scraper.Item    `json:"items"`
	InitialPostSent  bool              `json:"initial_post_sent"`
}

// Save fetches the page, resolves the selectors, stores the configuration,
// confirms it on the webhook and, for a feed that has never been announced,
// sends the initial post. Fetch failures are returned; notification and
// bootstrap failures are only logged.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, ErrURLRequired
	}

	selectors := req.Selectors.Normalize()
	if !req.Auto && selectors.ItemSelector == "" {
		return nil, ErrItemSelectorRequired
	}

	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	result := &SaveResult{}
	webhook := strings.TrimSpace(req.WebhookTarget)

	if req.Auto {
		result.DetectedSelector = scraper.DetectDocument(doc)
		selectors = scraper.AutoSelectorConfig(result.DetectedSelector)

		// Auto mode keeps an existing webhook unless a new one is given
		if webhook == "" {
			existing, err := s.store.GetByURL(url)
			if err != nil && !errors.Is(err, feeds.ErrFeedNotFound) {
				return nil, err
			}
			if existing != nil {
				webhook = existing.WebhookTarget
			}
		}
	}

	feed, err := s.store.Upsert(url, selectors, webhook)
	if err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}
	result.Feed = feed
	result.Items = scraper.ExtractItems(doc, url, feed.Selectors)

	logger := s.logger.With("feed", url)
	logger.Info("configuration saved", "auto", req.Auto, "item_selector", feed.Selectors.ItemSelector)

	if !feed.HasWebhook() {
		return result, nil
	}

	s.notifier.Dispatch(ctx, feed.WebhookTarget, notify.ConfigSavedMessage(url))

	if s.bootstrapper != nil && feed.WatermarkLink == nil {
		sent, err := s.bootstrapper.BootstrapItems(ctx, feed, result.Items)
		if err != nil {
			logger.Error("initial post failed", "error", err)
		}
		result.InitialPostSent = sent

		if sent {
			if refreshed, err := s.store.GetByURL(url); err == nil {
				result.Feed = refreshed
			}
		}
	}

	return result, nil
}

// PreviewRequest is a request to extract items without saving anything.
type PreviewRequest struct {
	URL       string                 `json:"url"`
	Auto      bool                   `json:"auto"`
	Selectors scraper.SelectorConfig `json:"selectors"`
}

// PreviewResult holds the items a configuration would produce.
type PreviewResult struct {
	Selectors        scraper.SelectorConfig `json:"selectors"`
	DetectedSelector string                 `json:"detected_selector,omitempty"`
	Items            []scraper.Item         `json:"items"`
}

// Preview fetches the page and extracts items. Nothing is stored or sent.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, ErrURLRequired
	}

	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{Selectors: req.Selectors.Normalize()}
	if req.Auto {
		result.DetectedSelector = scraper.DetectDocument(doc)
		result.Selectors = scraper.AutoSelectorConfig(result.DetectedSelector)
	}
	result.Items = scraper.ExtractItems(doc, url, result.Selectors)

	return result, nil
}

// Detect fetches the page and returns the auto-detected item selector,
// which is empty when nothing qualifies.
func (s *Service) Detect(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", ErrURLRequired
	}

	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	return scraper.DetectDocument(doc), nil
}

// FeedItems fetches a stored feed's page and extracts its current items.
func (s *Service) FeedItems(ctx context.Context, url string) (*feeds.FeedConfig, []scraper.Item, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, nil, ErrURLRequired
	}

	feed, err := s.store.GetByURL(url)
	if err != nil {
		return nil, nil, err
	}

	doc, err := s.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		return nil, nil, err
	}

	return feed, scraper.ExtractItems(doc, feed.URL, feed.Selectors), nil
}
