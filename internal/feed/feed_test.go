package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/meterdeck/internal/config"
	"github.com/1broseidon/meterdeck/internal/meter"
)

func TestDecodeTrade(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Trade
		wantErr bool
	}{
		{
			name: "shorthand",
			in:   `{"symbol":"SPXW","strike":5900,"right":"C","expiry":"2026-10-16","price":1.25,"size":10,"aggressor":"B"}`,
			want: Trade{Symbol: "SPXW", Strike: 5900, Right: meter.RightCall, Expiry: "2026-10-16", Price: 1.25, Size: 10, Aggressor: meter.Buy},
		},
		{
			name: "long form",
			in:   `{"strike":412.5,"right":"put","size":3,"aggressor":"sell"}`,
			want: Trade{Strike: 412.5, Right: meter.RightPut, Size: 3, Aggressor: meter.Sell},
		},
		{name: "not json", in: `strike=1`, wantErr: true},
		{name: "zero size", in: `{"strike":1,"right":"C","size":0,"aggressor":"B"}`, wantErr: true},
		{name: "no strike", in: `{"right":"C","size":1,"aggressor":"B"}`, wantErr: true},
		{name: "bad right", in: `{"strike":1,"right":"X","size":1,"aggressor":"B"}`, wantErr: true},
		{name: "bad aggressor", in: `{"strike":1,"right":"C","size":1,"aggressor":"M"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTrade([]byte(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTradeMatches(t *testing.T) {
	tr := Trade{Strike: 5900, Right: meter.RightCall, Expiry: "2026-10-16", Size: 1, Aggressor: meter.Buy}

	if !tr.Matches(5900, meter.RightCall, "") {
		t.Fatalf("expected match when meter has no expiry")
	}
	if !tr.Matches(5900, meter.RightCall, "2026-10-16") {
		t.Fatalf("expected match on same expiry")
	}
	if tr.Matches(5900, meter.RightCall, "2026-10-17") {
		t.Fatalf("expected expiry mismatch")
	}
	if tr.Matches(5900, meter.RightPut, "") {
		t.Fatalf("expected right mismatch")
	}
	if tr.Matches(5905, meter.RightCall, "") {
		t.Fatalf("expected strike mismatch")
	}
}

func TestReaderSourceSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"strike":5900,"right":"C","size":2,"aggressor":"B"}`,
		``,
		`garbage`,
		`{"strike":5900,"right":"C","size":5,"aggressor":"S"}`,
	}, "\n")

	out := make(chan Trade, 4)
	if err := NewReaderSource(strings.NewReader(input), nil).Run(context.Background(), out); err != nil {
		t.Fatalf("run: %v", err)
	}
	close(out)

	var tally meter.Tally
	n := 0
	for tr := range out {
		tally.Add(tr.Aggressor, tr.Size)
		n++
	}
	if n != 2 {
		t.Fatalf("expected 2 trades, got %d", n)
	}
	if tally.Buy != 2 || tally.Sell != 5 {
		t.Fatalf("unexpected tally %+v", tally)
	}
}

func TestReaderSourceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan Trade)
	err := NewReaderSource(strings.NewReader(`{"strike":1,"right":"C","size":1,"aggressor":"B"}`+"\n"), nil).Run(ctx, out)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRedisSourceRetriesUntilCancelled(t *testing.T) {
	client := NewRedisClient(config.FeedConfig{RedisAddr: "127.0.0.1:1"})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	src := NewRedisSource(client, "trades", 10*time.Millisecond, nil)
	err := src.Run(ctx, make(chan Trade))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
