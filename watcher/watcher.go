package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/feedgen/feeds"
	"github.com/pevans/feedgen/notify"
	"github.com/pevans/feedgen/scraper"
	"github.com/robfig/cron/v3"
)

// Store is the part of the feed store the watcher needs.
type Store interface {
	ListFeeds() ([]feeds.FeedConfig, error)
	GetByURL(url string) (*feeds.FeedConfig, error)
	CompareAndSetWatermark(url string, expected *string, link string) (bool, error)
}

// Fetcher retrieves and parses a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Notifier delivers a message to a webhook target. Failures are handled by
// the notifier and only reported as false.
type Notifier interface {
	Dispatch(ctx context.Context, target, content string) bool
}

// Config holds configuration for the watcher.
type Config struct {
	// Time between sweeps when no Schedule is set
	Interval time.Duration
	// Optional cron expression; replaces Interval when set
	Schedule string
	// Timeout per page fetch
	FetchTimeout time.Duration
	// Maximum number of feeds checked in parallel
	Concurrency int
}

// DefaultConfig returns the default configuration: a sequential sweep every
// five minutes with a ten second fetch timeout.
func DefaultConfig() *Config {
	return &Config{
		Interval:     300 * time.Second,
		FetchTimeout: scraper.DefaultTimeout,
		Concurrency:  1,
	}
}

// Outcome is the result of checking a single feed.
type Outcome int

const (
	// OutcomeUnchanged means the newest item matches the watermark.
	OutcomeUnchanged Outcome = iota
	// OutcomeSkipped means the feed has no webhook or the page yielded no
	// items.
	OutcomeSkipped
	// OutcomeNotified means a new item was detected and announced.
	OutcomeNotified
	// OutcomeFailed means the page could not be fetched or parsed, or the
	// watermark could not be stored.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeNotified:
		return "notified"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// FeedError records why a feed failed during a sweep.
type FeedError struct {
	URL string
	Err error
}

func (e FeedError) Error() string {
	return fmt.Sprintf("%s: %v", e.URL, e.Err)
}

func (e FeedError) Unwrap() error {
	return e.Err
}

// SweepResult summarizes one pass over all stored feeds.
type SweepResult struct {
	Checked   int
	Unchanged int
	Skipped   int
	Notified  int
	Failed    int
	Errors    []FeedError
}

func (r *SweepResult) record(url string, outcome Outcome, err error) {
	r.Checked++
	switch outcome {
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeNotified:
		r.Notified++
	case OutcomeFailed:
		r.Failed++
	}
	if err != nil {
		r.Errors = append(r.Errors, FeedError{URL: url, Err: err})
	}
}

// Watcher periodically re-polls configured pages and announces a new top
// item exactly once, persisting the announced link as the feed's watermark.
type Watcher struct {
	store    Store
	fetcher  Fetcher
	notifier Notifier
	config   *Config
	logger   *slog.Logger

	sweepMu  sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a watcher. A nil config uses DefaultConfig and a nil logger
// uses slog.Default().
func New(store Store, fetcher Fetcher, notifier Notifier, config *Config, logger *slog.Logger) *Watcher {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		config:   config,
		logger:   logger.With("component", "watcher"),
		stopChan: make(chan struct{}),
	}
}

// Run sweeps once immediately and then on every tick (or cron firing) until
// Stop is called or ctx is cancelled. An in-progress sweep always runs to
// completion before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watcher starting", "interval", w.config.Interval, "schedule", w.config.Schedule)

	w.sweepAndLog(ctx)

	if w.config.Schedule != "" {
		return w.runSchedule(ctx)
	}

	interval := w.config.Interval
	if interval <= 0 {
		interval = DefaultConfig().Interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping (context cancelled)")
			return ctx.Err()
		case <-w.stopChan:
			w.logger.Info("watcher stopping")
			return nil
		case <-ticker.C:
			w.sweepAndLog(ctx)
		}
	}
}

// runSchedule drives sweeps from a cron expression. Firings that arrive
// while a sweep is still running are dropped.
func (w *Watcher) runSchedule(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.config.Schedule, func() { w.sweepAndLog(ctx) }); err != nil {
		return fmt.Errorf("invalid watcher schedule %q: %w", w.config.Schedule, err)
	}
	c.Start()

	var err error
	select {
	case <-ctx.Done():
		w.logger.Info("watcher stopping (context cancelled)")
		err = ctx.Err()
	case <-w.stopChan:
		w.logger.Info("watcher stopping")
	}

	<-c.Stop().Done()
	return err
}

// Stop signals the watcher to stop gracefully. It is safe to call more
// than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

func (w *Watcher) sweepAndLog(ctx context.Context) {
	start := time.Now()
	result, err := w.Sweep(ctx)
	if err != nil {
		w.logger.Error("sweep failed", "error", err)
		return
	}

	w.logger.Info("sweep complete",
		"checked", result.Checked,
		"notified", result.Notified,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", time.Since(start),
	)
}

// Sweep checks every stored feed once. One feed's failure never stops the
// sweep; per-feed errors are collected in the result. The returned error
// is only set when the feed list itself could not be read. Sweeps never
// overlap.
func (w *Watcher) Sweep(ctx context.Context) (SweepResult, error) {
	w.sweepMu.Lock()
	defer w.sweepMu.Unlock()

	var result SweepResult

	list, err := w.store.ListFeeds()
	if err != nil {
		return result, fmt.Errorf("failed to list feeds: %w", err)
	}

	concurrency := w.config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	if concurrency == 1 {
		for _, feed := range list {
			if ctx.Err() != nil {
				break
			}
			outcome, err := w.CheckFeed(ctx, feed)
			result.record(feed.URL, outcome, err)
		}
		return result, nil
	}

	// Each feed is checked by exactly one goroutine, so watermark writes
	// for a feed are never concurrent within a sweep
	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

loop:
	for _, feed := range list {
		select {
		case <-ctx.Done():
			break loop
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(f feeds.FeedConfig) {
			defer wg.Done()
			defer func() { <-semaphore }()

			outcome, err := w.CheckFeed(ctx, f)

			mu.Lock()
			result.record(f.URL, outcome, err)
			mu.Unlock()
		}(feed)
	}
	wg.Wait()

	return result, nil
}

// CheckFeed re-polls one feed. When the newest item's link differs from
// the watermark the link is claimed as the new watermark and the new-post
// message is sent. Claiming first with a compare-and-set means a
// concurrent writer (such as a bootstrap for the same feed) makes this
// check back off instead of announcing the same item twice.
func (w *Watcher) CheckFeed(ctx context.Context, feed feeds.FeedConfig) (Outcome, error) {
	logger := w.logger.With("feed", feed.URL)

	if !feed.HasWebhook() {
		logger.Debug("skipping feed without webhook")
		return OutcomeSkipped, nil
	}

	items, err := w.extract(ctx, feed)
	if err != nil {
		logger.Warn("failed to fetch feed", "error", err)
		return OutcomeFailed, err
	}

	newest, ok := scraper.Newest(items)
	if !ok {
		logger.Debug("no items extracted")
		return OutcomeSkipped, nil
	}

	if feed.WatermarkLink != nil && *feed.WatermarkLink == newest.Link {
		return OutcomeUnchanged, nil
	}

	claimed, err := w.store.CompareAndSetWatermark(feed.URL, feed.WatermarkLink, newest.Link)
	if errors.Is(err, feeds.ErrFeedNotFound) {
		logger.Debug("feed deleted during sweep")
		return OutcomeSkipped, nil
	}
	if err != nil {
		logger.Error("failed to store watermark", "error", err)
		return OutcomeFailed, fmt.Errorf("failed to store watermark: %w", err)
	}
	if !claimed {
		logger.Info("watermark changed concurrently, not notifying", "link", newest.Link)
		return OutcomeUnchanged, nil
	}

	logger.Info("new post detected", "title", newest.Title, "link", newest.Link)
	w.notifier.Dispatch(ctx, feed.WebhookTarget, notify.NewPostMessage(newest))

	return OutcomeNotified, nil
}

// Bootstrap announces the current top item of a newly configured page and
// seeds its watermark, so that the next sweep does not announce it again.
// It does nothing when the feed has no webhook or already has a watermark.
// It reports whether an initial post was sent.
func (w *Watcher) Bootstrap(ctx context.Context, url string) (bool, error) {
	feed, err := w.store.GetByURL(url)
	if err != nil {
		return false, err
	}
	if !feed.HasWebhook() || hasWatermark(feed) {
		return false, nil
	}

	items, err := w.extract(ctx, *feed)
	if err != nil {
		return false, err
	}

	return w.BootstrapItems(ctx, feed, items)
}

// BootstrapItems is Bootstrap for a page whose items were already
// extracted, as happens when a configuration is saved.
func (w *Watcher) BootstrapItems(ctx context.Context, feed *feeds.FeedConfig, items []scraper.Item) (bool, error) {
	if !feed.HasWebhook() || hasWatermark(feed) {
		return false, nil
	}

	logger := w.logger.With("feed", feed.URL)

	newest, ok := scraper.Newest(items)
	if !ok {
		logger.Info("no items for initial post")
		return false, nil
	}

	if newest.Link != "" {
		claimed, err := w.store.CompareAndSetWatermark(feed.URL, feed.WatermarkLink, newest.Link)
		if err != nil {
			return false, fmt.Errorf("failed to seed watermark: %w", err)
		}
		if !claimed {
			logger.Info("feed already announced, skipping initial post")
			return false, nil
		}
	}

	w.notifier.Dispatch(ctx, feed.WebhookTarget, notify.InitialPostMessage(feed.URL, newest))
	logger.Info("initial post sent", "link", newest.Link)

	return true, nil
}

// hasWatermark reports whether an item was already announced. An empty
// stored link counts as unset.
func hasWatermark(feed *feeds.FeedConfig) bool {
	return feed.WatermarkLink != nil && *feed.WatermarkLink != ""
}

// extract fetches the page with the configured timeout and extracts its
// items.
func (w *Watcher) extract(ctx context.Context, feed feeds.FeedConfig) ([]scraper.Item, error) {
	timeout := w.config.FetchTimeout
	if timeout <= 0 {
		timeout = scraper.DefaultTimeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	doc, err := w.fetcher.Fetch(fetchCtx, feed.URL)
	if err != nil {
		return nil, err
	}

	return scraper.ExtractItems(doc, feed.URL, feed.Selectors), nil
}
