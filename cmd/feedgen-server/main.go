package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"
	"github.com/pevans/feedgen/api"
	"github.com/pevans/feedgen/config"
	"github.com/pevans/feedgen/configure"
	"github.com/pevans/feedgen/feeds"
	"github.com/pevans/feedgen/logging"
	"github.com/pevans/feedgen/notify"
	"github.com/pevans/feedgen/scraper"
	"github.com/pevans/feedgen/watcher"
)

// Version is set at build time via -ldflags
var Version = "dev"

// shutdownTimeout bounds how long in-flight requests and the current sweep
// get to finish after a signal.
const shutdownTimeout = 30 * time.Second

// options are the command-line flags. Flags that are set override the
// config file and FEEDGEN_* variables.
type options struct {
	Config    string `long:"config" short:"c" env:"FEEDGEN_CONFIG" description:"Path to config file (default: ~/.feedgen/config.yaml)"`
	EnvFile   string `long:"env-file" default:".env" description:"Environment file loaded before configuration"`
	Addr      string `long:"addr" description:"HTTP listen address"`
	APIKey    string `long:"api-key" description:"API key required on /api/v1 routes"`
	BaseURL   string `long:"base-url" description:"Public base URL used in RSS self links"`
	LogLevel  string `long:"log-level" description:"Log level (debug, info, warn, error)"`
	NoWatcher bool   `long:"no-watcher" description:"Serve the API without polling pages"`
	Version   bool   `long:"version" short:"v" description:"Print the version and exit"`
}

// parseOptions parses args. It returns nil options when help was shown.
func parseOptions(args []string) (*options, error) {
	var opts options

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse options: %w", err)
	}

	return &opts, nil
}

// apply lays flag values over the loaded configuration.
func (o *options) apply(cfg *config.FileConfig) {
	cfg.Server.Addr = cmp.Or(o.Addr, cfg.Server.Addr)
	cfg.Server.APIKey = cmp.Or(o.APIKey, cfg.Server.APIKey)
	cfg.Server.BaseURL = cmp.Or(o.BaseURL, cfg.Server.BaseURL)
	cfg.Log.Level = cmp.Or(o.LogLevel, cfg.Log.Level)
	if o.NoWatcher {
		cfg.Watcher.Enabled = false
	}
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}
	if opts == nil {
		return
	}
	if opts.Version {
		fmt.Printf("feedgen-server %s\n", Version)
		return
	}

	if err := config.LoadEnvFiles(opts.EnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts.apply(cfg)

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	logger.Install()

	if err := run(cfg, logger.Logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.FileConfig, logger *slog.Logger) error {
	logger.Info("starting feedgen", "version", Version, "storage", cfg.Storage.Type)

	if cfg.Storage.Type == "sqlite" || cfg.Storage.Type == "sqlite3" {
		dir := filepath.Dir(cfg.Storage.DSN)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	store, err := feeds.NewFeedStore(cfg.Storage.Type, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	fetcher := scraper.NewFetcher(cfg.Watcher.FetchTimeout, cfg.HTTP.UserAgent)
	dispatcher := notify.NewDispatcher(notify.NewDiscordWebhook(cfg.Notify.Timeout), logger)

	w := watcher.New(store, fetcher, dispatcher, &watcher.Config{
		Interval:     cfg.Watcher.Interval,
		Schedule:     cfg.Watcher.Schedule,
		FetchTimeout: cfg.Watcher.FetchTimeout,
		Concurrency:  cfg.Watcher.Concurrency,
	}, logger)

	service := configure.NewService(store, fetcher, dispatcher, w, logger)

	gin.SetMode(gin.ReleaseMode)
	server := api.NewAPIServer(store, service, api.Options{
		APIKey:  cfg.Server.APIKey,
		BaseURL: cfg.Server.BaseURL,
		Version: Version,
		Logger:  logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.SetupRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	errChan := make(chan error, 2)

	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "api_key_required", cfg.Server.APIKey != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	watcherDone := make(chan struct{})
	if cfg.Watcher.Enabled {
		go func() {
			defer close(watcherDone)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("watcher: %w", err)
			}
		}()
	} else {
		logger.Info("watcher disabled")
		close(watcherDone)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	case runErr = <-errChan:
		stop()
	}

	w.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	select {
	case <-watcherDone:
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}

	return runErr
}
