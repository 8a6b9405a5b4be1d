package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pevans/feedgen/feeds"
	"github.com/pevans/feedgen/scraper"
)

// printFeedsTable prints feed configurations as a table
func printFeedsTable(list []feeds.FeedConfig) {
	if len(list) == 0 {
		fmt.Println("No pages configured.")
		return
	}

	fmt.Printf("%s %s %s %s\n", pad("URL", 50), pad("ITEM SELECTOR", 24), pad("WEBHOOK", 7), "LAST SEEN")
	fmt.Println(strings.Repeat("-", 100))

	for _, feed := range list {
		webhook := "no"
		if feed.HasWebhook() {
			webhook = "yes"
		}

		lastSeen := "-"
		if feed.WatermarkLink != nil {
			lastSeen = truncate(*feed.WatermarkLink, 40)
		}

		fmt.Printf("%s %s %s %s\n",
			pad(feed.URL, 50),
			pad(feed.Selectors.ItemSelector, 24),
			pad(webhook, 7),
			lastSeen,
		)
	}
}

// printFeedDetail prints one feed configuration
func printFeedDetail(feed *feeds.FeedConfig) {
	sel := feed.Selectors

	fmt.Printf("URL:            %s\n", feed.URL)
	fmt.Printf("ID:             %s\n", feed.FeedID)
	fmt.Printf("Item selector:  %s\n", orDash(sel.ItemSelector))
	fmt.Printf("Title selector: %s\n", orDash(sel.TitleSelector))
	fmt.Printf("Desc selector:  %s\n", orDash(sel.DescSelector))
	fmt.Printf("Link selector:  %s\n", orDash(sel.URLSelector))
	fmt.Printf("Date selector:  %s\n", orDash(sel.DateSelector))
	fmt.Printf("Date format:    %s\n", orDash(sel.DateFormat))
	fmt.Printf("Image selector: %s\n", orDash(sel.ImageSelector))
	fmt.Printf("Min title len:  %d\n", sel.MinTitleLength.Int())
	fmt.Printf("Min desc len:   %d\n", sel.MinDescLength.Int())
	fmt.Printf("Webhook:        %s\n", orDash(feed.WebhookTarget))
	if feed.WatermarkLink != nil {
		fmt.Printf("Last seen:      %s\n", *feed.WatermarkLink)
	} else {
		fmt.Printf("Last seen:      -\n")
	}
	fmt.Printf("Created:        %s\n", feed.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("Updated:        %s\n", feed.UpdatedAt.Format("2006-01-02 15:04"))
}

// printItems prints extracted items in a human-readable list
func printItems(items []scraper.Item) {
	if len(items) == 0 {
		fmt.Println("No items found.")
		return
	}

	fmt.Printf("Found %d items\n\n", len(items))

	for i, item := range items {
		fmt.Printf("%2d. %s\n", i+1, truncate(orDash(item.Title), 80))
		if item.Date != "" {
			fmt.Printf("    Date: %s\n", item.Date)
		}
		if item.Description != "" {
			fmt.Printf("    %s\n", truncate(item.Description, 150))
		}
		if item.Link != "" {
			fmt.Printf("    URL: %s\n", item.Link)
		}
		if item.Image != "" {
			fmt.Printf("    Image: %s\n", item.Image)
		}
		fmt.Println()
	}
}

// printJSON prints v as indented JSON
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(data))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
