package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/pevans/feedgen/feeds"
)

func handleFeedsList(args []string) {
	fs := flag.NewFlagSet("feeds list", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	fs.Parse(args)

	a := openApp()
	defer a.Close()

	list, err := a.store.ListFeeds()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list pages: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		printJSON(map[string]any{"feeds": list, "total": len(list)})
		return
	}
	printFeedsTable(list)
}

func handleFeedsShow(args []string) {
	fs := flag.NewFlagSet("feeds show", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: page URL is required\n")
		fmt.Fprintf(os.Stderr, "Usage: feedgen feeds show <url>\n")
		os.Exit(1)
	}

	a := openApp()
	defer a.Close()

	feed, err := a.store.GetByURL(fs.Arg(0))
	if err != nil {
		if errors.Is(err, feeds.ErrFeedNotFound) {
			fmt.Fprintf(os.Stderr, "Error: no configuration for %s\n", fs.Arg(0))
		} else {
			fmt.Fprintf(os.Stderr, "Error: failed to get page: %v\n", err)
		}
		os.Exit(1)
	}

	if *asJSON {
		printJSON(feed)
		return
	}
	printFeedDetail(feed)
}

func handleFeedsDelete(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: page URL is required\n")
		fmt.Fprintf(os.Stderr, "Usage: feedgen feeds delete <url>\n")
		os.Exit(1)
	}

	a := openApp()
	defer a.Close()

	if err := a.store.DeleteFeed(args[0]); err != nil {
		if errors.Is(err, feeds.ErrFeedNotFound) {
			fmt.Fprintf(os.Stderr, "Error: no configuration for %s\n", args[0])
		} else {
			fmt.Fprintf(os.Stderr, "Error: failed to delete page: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("✓ Deleted configuration for %s\n", args[0])
}
