package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/1broseidon/meterdeck/internal/config"
)

// Source produces trades until ctx is cancelled or the stream ends.
type Source interface {
	Run(ctx context.Context, out chan<- Trade) error
}

// NewRedisClient returns a client for the feed's Redis server.
func NewRedisClient(cfg config.FeedConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// RedisSource reads trades from a Redis pub/sub channel.
type RedisSource struct {
	client    *redis.Client
	channel   string
	reconnect time.Duration
	logger    *slog.Logger
}

func NewRedisSource(client *redis.Client, channel string, reconnect time.Duration, logger *slog.Logger) *RedisSource {
	if reconnect <= 0 {
		reconnect = time.Duration(config.DefaultReconnectSeconds) * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisSource{
		client:    client,
		channel:   channel,
		reconnect: reconnect,
		logger:    logger,
	}
}

// Run subscribes and forwards trades. A lost subscription is retried after
// the reconnect delay. Run returns ctx.Err() once ctx is done.
func (s *RedisSource) Run(ctx context.Context, out chan<- Trade) error {
	for {
		err := s.subscribe(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("feed subscription lost", "channel", s.channel, "error", err, "retry", s.reconnect)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnect):
		}
	}
}

func (s *RedisSource) subscribe(ctx context.Context, out chan<- Trade) error {
	ps := s.client.Subscribe(ctx, s.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.logger.Info("feed subscribed", "channel", s.channel)

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("subscription closed")
			}
			trade, err := DecodeTrade([]byte(msg.Payload))
			if err != nil {
				s.logger.Debug("dropping malformed trade", "error", err)
				continue
			}
			if err := send(ctx, out, trade); err != nil {
				return err
			}
		}
	}
}

// Publish sends trade to channel. Used by the feed publish command.
func Publish(ctx context.Context, client *redis.Client, channel string, trade Trade) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("encode trade: %w", err)
	}
	if err := client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// ReaderSource reads newline-delimited JSON trades, typically from stdin.
// Blank and malformed lines are skipped. A blocked read is not interrupted by
// ctx; Run notices cancellation at the next line.
type ReaderSource struct {
	r      io.Reader
	logger *slog.Logger
}

func NewReaderSource(r io.Reader, logger *slog.Logger) *ReaderSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReaderSource{r: r, logger: logger}
}

// Run returns nil at EOF.
func (s *ReaderSource) Run(ctx context.Context, out chan<- Trade) error {
	scanner := bufio.NewScanner(s.r)
	line := 0
	for scanner.Scan() {
		line++
		if ctx.Err() != nil {
			return ctx.Err()
		}
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		trade, err := DecodeTrade(text)
		if err != nil {
			s.logger.Debug("dropping malformed trade", "line", line, "error", err)
			continue
		}
		if err := send(ctx, out, trade); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read trades: %w", err)
	}
	return nil
}

func send(ctx context.Context, out chan<- Trade, t Trade) error {
	select {
	case out <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
