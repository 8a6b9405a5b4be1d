package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pevans/feedgen/scraper"
)

// Transport delivers a message to a webhook target.
type Transport interface {
	Send(ctx context.Context, target, content string) error
}

// Dispatcher sends messages through a Transport. Delivery failures are
// logged and never returned; notifications are not retried.
type Dispatcher struct {
	transport Transport
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil logger uses slog.Default().
func NewDispatcher(transport Transport, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		transport: transport,
		logger:    logger,
	}
}

// Dispatch sends content to target. It reports whether delivery succeeded
// so callers can record it, but callers must not treat false as fatal. An
// empty target is a no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, target, content string) bool {
	if strings.TrimSpace(target) == "" {
		return false
	}

	if err := d.transport.Send(ctx, target, content); err != nil {
		d.logger.Error("notification delivery failed", "error", err)
		return false
	}

	d.logger.Debug("notification delivered")
	return true
}

// NewPostMessage announces a newly detected item.
func NewPostMessage(item scraper.Item) string {
	return fmt.Sprintf("**New post detected!**\n**Title:** %s\n**Link:** %s", item.Title, item.Link)
}

// InitialPostMessage announces the current top item of a page when it is
// first configured.
func InitialPostMessage(pageURL string, item scraper.Item) string {
	return fmt.Sprintf("🚀 Initial post for `%s`:\n**%s**\n%s", pageURL, item.Title, item.Link)
}

// ConfigSavedMessage confirms that a page configuration was saved.
func ConfigSavedMessage(pageURL string) string {
	return fmt.Sprintf("✅ Feedgen: Configuration saved for `%s`.\nYou'll get future updates here!", pageURL)
}
