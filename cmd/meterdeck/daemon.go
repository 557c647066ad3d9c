package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/meterdeck/internal/config"
	"github.com/1broseidon/meterdeck/internal/daemon"
	"github.com/1broseidon/meterdeck/internal/deck"
	"github.com/1broseidon/meterdeck/internal/feed"
	"github.com/1broseidon/meterdeck/internal/ipc"
	"github.com/1broseidon/meterdeck/internal/logging"
	"github.com/1broseidon/meterdeck/internal/platform"
	"github.com/1broseidon/meterdeck/internal/runtimepath"
	"github.com/1broseidon/meterdeck/internal/snap"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/meterdeck/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: meterdeck daemon [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the meter windows, IPC socket and trade feed in the foreground.")
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	if err := ipc.NewClient().Ping(); err == nil {
		logger.Error("another meterdeck daemon is already running")
		return 1
	}

	if err := serve(cfg, *path, logger); err != nil {
		logger.Error("daemon stopped", "error", err)
		return 1
	}
	return 0
}

func serve(cfg *config.Config, path string, logger *slog.Logger) error {
	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display, logger.With("component", "x11"))
	if err != nil {
		return fmt.Errorf("connect to display: %w", err)
	}
	defer backend.Disconnect()

	registry := snap.NewRegistry(
		snap.WithDistance(cfg.SnapDistance),
		snap.WithLogger(logger.With("component", "snap")),
	)
	d := deck.New(backend, registry, cfg, logger.With("component", "deck"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := make(chan error, 1)
	backend.Dispatch(func() { started <- d.Start() })

	var autosaver *daemon.Autosaver
	if cfg.AutosaveSeconds > 0 {
		autosaver = daemon.NewAutosaver(daemon.AutosaverConfig{
			Interval: time.Duration(cfg.AutosaveSeconds) * time.Second,
			Logger:   logger.With("component", "autosave"),
		}, cfg, daemon.UISnapshot(backend.Dispatch, d, ipc.DefaultUITimeout))
	}

	reload := func() (*config.Config, error) {
		next, err := loadConfig(path)
		if err != nil {
			return nil, err
		}
		if autosaver != nil {
			autosaver.SetConfig(next)
		}
		return next, nil
	}

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return err
	}
	server := ipc.NewServer(socketPath, d, backend.Dispatch, reload, logger.With("component", "ipc"))
	if err := server.Start(); err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer server.Stop()

	loopErr := make(chan error, 1)
	go func() { loopErr <- backend.EventLoop(ctx) }()

	select {
	case err := <-started:
		if err != nil {
			stop()
			<-loopErr
			return fmt.Errorf("start deck: %w", err)
		}
	case err := <-loopErr:
		return err
	}
	logger.Info("meterdeck daemon started", "socket", socketPath, "feed", cfg.Feed.Kind)

	if autosaver != nil {
		go autosaver.Run(ctx)
	}
	if src := newFeedSource(cfg.Feed, logger.With("component", "feed")); src != nil {
		go func() {
			err := daemon.RunFeed(ctx, src, backend.Dispatch, d.ApplyTrade, logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("trade feed stopped", "error", err)
			}
		}()
	}

	err = <-loopErr
	logger.Info("shutting down meterdeck daemon")

	// The event loop has returned, so the deck is safe to read here.
	if autosaver != nil {
		final := daemon.Snapshot{SnapEnabled: d.SnapEnabled(), Meters: d.Specs()}
		if _, serr := autosaver.Save(final); serr != nil {
			logger.Warn("final autosave failed", "error", serr)
		}
	}
	d.Shutdown()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newFeedSource(cfg config.FeedConfig, logger *slog.Logger) feed.Source {
	switch cfg.Kind {
	case config.FeedRedis:
		client := feed.NewRedisClient(cfg)
		reconnect := time.Duration(cfg.ReconnectSeconds) * time.Second
		return feed.NewRedisSource(client, cfg.RedisChannel, reconnect, logger)
	case config.FeedStdin:
		return feed.NewReaderSource(os.Stdin, logger)
	default:
		return nil
	}
}
