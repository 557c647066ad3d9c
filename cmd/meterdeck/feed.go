package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/1broseidon/meterdeck/internal/config"
	"github.com/1broseidon/meterdeck/internal/feed"
	"github.com/1broseidon/meterdeck/internal/meter"
)

func printFeedUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: meterdeck feed publish --strike N --size N --side buy|sell [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Publish one trade to the configured Redis channel. Useful for testing")
	fmt.Fprintln(w, "a running daemon whose feed.kind is redis.")
}

func runFeed(args []string) int {
	if len(args) == 0 {
		printFeedUsage(os.Stderr)
		return 2
	}
	switch args[0] {
	case "publish":
		return runFeedPublish(args[1:])
	case "help", "-h", "--help":
		printFeedUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown feed command: %s\n\n", args[0])
		printFeedUsage(os.Stderr)
		return 2
	}
}

func runFeedPublish(args []string) int {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/meterdeck/config.yaml)")
	channel := fs.String("channel", "", "Redis channel (default: feed.redis_channel)")
	strike := fs.Float64("strike", 0, "Strike price")
	right := fs.String("right", "CALL", "CALL or PUT")
	expiry := fs.String("expiry", "", "Expiry as YYYY-MM-DD")
	size := fs.Int64("size", 0, "Contracts traded")
	side := fs.String("side", "", "Aggressor side: buy or sell")
	price := fs.Float64("price", 0, "Trade price")
	fs.Usage = func() {
		printFeedUsage(os.Stderr)
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	trade, err := buildTrade(*strike, *right, *expiry, *size, *side, *price)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ch := cfg.Feed.RedisChannel
	if *channel != "" {
		ch = *channel
	}
	if ch == "" {
		ch = config.DefaultRedisChannel
	}

	client := feed.NewRedisClient(cfg.Feed)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := feed.Publish(ctx, client, ch, trade); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func buildTrade(strike float64, right, expiry string, size int64, side string, price float64) (feed.Trade, error) {
	if strike <= 0 {
		return feed.Trade{}, fmt.Errorf("--strike must be > 0")
	}
	if size <= 0 {
		return feed.Trade{}, fmt.Errorf("--size must be > 0")
	}
	r, err := meter.ParseRight(right)
	if err != nil {
		return feed.Trade{}, err
	}
	aggr, err := meter.ParseAggressor(side)
	if err != nil {
		return feed.Trade{}, err
	}
	if expiry != "" {
		if _, err := time.Parse(config.ExpiryLayout, expiry); err != nil {
			return feed.Trade{}, fmt.Errorf("--expiry must be YYYY-MM-DD: %w", err)
		}
	}
	return feed.Trade{
		Strike:    strike,
		Right:     r,
		Expiry:    expiry,
		Price:     price,
		Size:      size,
		Aggressor: aggr,
		Time:      time.Now().UTC(),
	}, nil
}
