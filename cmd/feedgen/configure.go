package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pevans/feedgen/configure"
)

func handlePreview(args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	url := fs.String("url", "", "Page URL")
	auto := fs.Bool("auto", false, "Detect the item selector and use default selectors")
	asJSON := fs.Bool("json", false, "Print JSON")
	var sel selectorFlags
	sel.register(fs)
	fs.Parse(args)

	if *url == "" {
		fmt.Fprintf(os.Stderr, "Error: --url is required\n")
		fs.Usage()
		os.Exit(1)
	}

	a := openApp()
	defer a.Close()

	result, err := a.service.Preview(context.Background(), configure.PreviewRequest{
		URL:       *url,
		Auto:      *auto,
		Selectors: sel.selectors(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		printJSON(result)
		return
	}

	if *auto {
		fmt.Printf("Detected item selector: %s\n\n", orDash(result.DetectedSelector))
	}
	printItems(result.Items)
}

func handleDetect(args []string) {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	url := fs.String("url", "", "Page URL")
	fs.Parse(args)

	if *url == "" {
		fmt.Fprintf(os.Stderr, "Error: --url is required\n")
		fs.Usage()
		os.Exit(1)
	}

	a := openApp()
	defer a.Close()

	selector, err := a.service.Detect(context.Background(), *url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if selector == "" {
		fmt.Println("No item container found.")
		os.Exit(1)
	}
	fmt.Println(selector)
}

func handleSave(args []string) {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	url := fs.String("url", "", "Page URL")
	auto := fs.Bool("auto", false, "Detect the item selector and use default selectors")
	webhook := fs.String("webhook", "", "Webhook URL for new item notifications")
	var sel selectorFlags
	sel.register(fs)
	fs.Parse(args)

	if *url == "" {
		fmt.Fprintf(os.Stderr, "Error: --url is required\n")
		fs.Usage()
		os.Exit(1)
	}
	if !*auto && sel.item == "" {
		fmt.Fprintf(os.Stderr, "Error: --item is required unless --auto is set\n")
		fs.Usage()
		os.Exit(1)
	}

	a := openApp()
	defer a.Close()

	result, err := a.service.Save(context.Background(), configure.SaveRequest{
		URL:           *url,
		Auto:          *auto,
		Selectors:     sel.selectors(),
		WebhookTarget: *webhook,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Saved configuration for %s\n", result.Feed.URL)
	if *auto {
		fmt.Printf("  Detected item selector: %s\n", orDash(result.DetectedSelector))
	}
	fmt.Printf("  Items found: %d\n", len(result.Items))
	if result.Feed.HasWebhook() {
		fmt.Printf("  Webhook: %s\n", result.Feed.WebhookTarget)
	}
	if result.InitialPostSent {
		fmt.Println("  Initial post sent")
	}
}

func handleBootstrap(args []string) {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	url := fs.String("url", "", "Configured page URL")
	fs.Parse(args)

	if *url == "" {
		fmt.Fprintf(os.Stderr, "Error: --url is required\n")
		fs.Usage()
		os.Exit(1)
	}

	a := openApp()
	defer a.Close()

	sent, err := a.watcher.Bootstrap(context.Background(), *url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !sent {
		fmt.Println("Nothing to send: no webhook, already announced, or no items.")
		return
	}
	fmt.Printf("✓ Initial post sent for %s\n", *url)
}
