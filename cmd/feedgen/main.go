package main

import (
	"fmt"
	"os"

	"github.com/pevans/feedgen/config"
	"github.com/pevans/feedgen/configure"
	"github.com/pevans/feedgen/feeds"
	"github.com/pevans/feedgen/logging"
	"github.com/pevans/feedgen/notify"
	"github.com/pevans/feedgen/scraper"
	"github.com/pevans/feedgen/watcher"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Variables already in the environment win over .env
	if err := config.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	subcommand := os.Args[1]
	args := os.Args[2:]

	switch subcommand {
	case "feeds":
		if len(args) < 1 {
			printFeedsUsage()
			os.Exit(1)
		}
		handleFeedsCommand(args[0], args[1:])
	case "preview":
		handlePreview(args)
	case "detect":
		handleDetect(args)
	case "save":
		handleSave(args)
	case "check":
		handleCheck(args)
	case "bootstrap":
		handleBootstrap(args)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

// app holds everything a command needs, built from the effective
// configuration.
type app struct {
	cfg     *config.FileConfig
	logger  *logging.Logger
	store   *feeds.FeedStore
	fetcher *scraper.Fetcher
	watcher *watcher.Watcher
	service *configure.Service
}

// openApp loads configuration and opens the feed store. Errors are fatal.
func openApp() *app {
	cfg, err := config.Load(getEnv("FEEDGEN_CONFIG", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// CLI output goes to stdout; logs stay on stderr and default to warnings
	logger := logging.New(os.Stderr, getEnv("FEEDGEN_LOG_LEVEL", "warn"), cfg.Log.Format)
	logger.Install()

	if err := ensureStorageDir(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := feeds.NewFeedStore(cfg.Storage.Type, cfg.Storage.DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open feed store: %v\n", err)
		os.Exit(1)
	}

	fetcher := scraper.NewFetcher(cfg.Watcher.FetchTimeout, cfg.HTTP.UserAgent)
	dispatcher := notify.NewDispatcher(notify.NewDiscordWebhook(cfg.Notify.Timeout), logger.Logger)

	w := watcher.New(store, fetcher, dispatcher, &watcher.Config{
		Interval:     cfg.Watcher.Interval,
		Schedule:     cfg.Watcher.Schedule,
		FetchTimeout: cfg.Watcher.FetchTimeout,
		Concurrency:  cfg.Watcher.Concurrency,
	}, logger.Logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		fetcher: fetcher,
		watcher: w,
		service: configure.NewService(store, fetcher, dispatcher, w, logger.Logger),
	}
}

func (a *app) Close() {
	a.store.Close()
}

func handleFeedsCommand(action string, args []string) {
	switch action {
	case "list":
		handleFeedsList(args)
	case "show":
		handleFeedsShow(args)
	case "delete":
		handleFeedsDelete(args)
	case "help", "--help", "-h":
		printFeedsUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown feeds command: %s\n\n", action)
		printFeedsUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("feedgen - Turn HTML pages into feeds and webhook notifications")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  feedgen <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  feeds      Manage configured pages")
	fmt.Println("  preview    Extract items from a page without saving")
	fmt.Println("  detect     Detect the item selector for a page")
	fmt.Println("  save       Save a page configuration")
	fmt.Println("  check      Check every configured page once")
	fmt.Println("  bootstrap  Send the initial post for a saved page")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  FEEDGEN_CONFIG        Path to config file (default: ~/.feedgen/config.yaml)")
	fmt.Println("  FEEDGEN_STORAGE_TYPE  sqlite or postgres (default: sqlite)")
	fmt.Println("  FEEDGEN_STORAGE_DSN   Database path or connection string")
	fmt.Println("  FEEDGEN_LOG_LEVEL     Log level for diagnostics (default: warn)")
}

func printFeedsUsage() {
	fmt.Println("feedgen feeds - Manage configured pages")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  feedgen feeds <action> [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  list           List all configured pages")
	fmt.Println("  show <url>     Show one page configuration")
	fmt.Println("  delete <url>   Delete a page configuration")
	fmt.Println("  help           Show this help message")
}
