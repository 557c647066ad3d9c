package daemon

import (
	"context"
	"log/slog"

	"github.com/1broseidon/meterdeck/internal/feed"
)

// RouteTrades hands every trade from in to apply on the UI goroutine until
// ctx is cancelled or in is closed.
func RouteTrades(ctx context.Context, in <-chan feed.Trade, dispatch func(func()), apply func(feed.Trade) int, logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-in:
			if !ok {
				return
			}
			dispatch(func() {
				if n := apply(t); n == 0 {
					logger.Debug("trade matched no meter", "strike", t.Strike, "right", t.Right)
				}
			})
		}
	}
}

// RunFeed runs src until ctx is cancelled and routes its trades. It returns
// the source's error, or nil when the source ended on its own.
func RunFeed(ctx context.Context, src feed.Source, dispatch func(func()), apply func(feed.Trade) int, logger *slog.Logger) error {
	trades := make(chan feed.Trade, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		RouteTrades(ctx, trades, dispatch, apply, logger)
	}()

	err := src.Run(ctx, trades)
	close(trades)
	<-done
	return err
}
