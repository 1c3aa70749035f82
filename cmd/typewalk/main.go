package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"typewalk/internal/analyzer"
	"typewalk/internal/config"
	"typewalk/internal/observability"
	"typewalk/internal/watcher"
)

var (
	configPath = flag.String("config", "./typewalk.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run single analysis and exit")
	describe   = flag.String("describe", "", "Print the resolved model of one class and exit")
	serve      = flag.String("serve", "", "Serve /metrics and /health on this address (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("typewalk v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath != "./typewalk.toml" {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	if flag.NArg() > 0 {
		cfg.WatchPaths = flag.Args()
	}
	if *serve != "" {
		cfg.Observability.Enabled = true
		cfg.Observability.Address = *serve
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := analyzer.New(cfg)
	if err != nil {
		slog.Error("failed to initialize analyzer", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var srv *observability.Server
	if cfg.Observability.Enabled {
		srv = observability.NewServer(cfg.Observability.Address, a)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
		defer srv.Stop(context.Background())
	}

	result, err := a.Run(ctx)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if *describe != "" {
		out, err := describeClass(a.Model(), *describe)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Print(out)
		os.Exit(0)
	}

	fmt.Print(formatSummary(result))

	if *once {
		if len(result.Diagnostics) > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Watch mode
	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Exclude.Dirs, cfg.Exclude.Files, func(paths []string) {
		res, err := a.Reanalyze(ctx, paths)
		if err != nil {
			slog.Error("re-analysis failed", "error", err)
			return
		}
		fmt.Print(formatSummary(res))
	})
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := w.Watch(cfg.WatchPaths); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	slog.Info("watching for changes", "paths", cfg.WatchPaths)
	<-ctx.Done()
}
