package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func handleCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show per-page errors and debug logs")
	fs.Parse(args)

	a := openApp()
	defer a.Close()

	if *verbose {
		a.logger.SetLevel("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Checking all configured pages...")

	result, err := a.watcher.Sweep(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Check completed:")
	fmt.Printf("  Pages checked: %d\n", result.Checked)
	fmt.Printf("  Notified:      %d\n", result.Notified)
	fmt.Printf("  Unchanged:     %d\n", result.Unchanged)
	fmt.Printf("  Skipped:       %d\n", result.Skipped)
	fmt.Printf("  Failed:        %d\n", result.Failed)

	if len(result.Errors) > 0 && *verbose {
		fmt.Println()
		fmt.Println("Errors:")
		for _, feedErr := range result.Errors {
			fmt.Printf("  - %s: %v\n", feedErr.URL, feedErr.Err)
		}
	}

	// Exit with error code if any pages failed
	if result.Failed > 0 {
		os.Exit(1)
	}
}
