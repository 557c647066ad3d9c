// Package feed turns a market-data stream into Trade values for the deck.
package feed

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/1broseidon/meterdeck/internal/meter"
)

// Trade is one option print.
type Trade struct {
	Symbol    string          `json:"symbol,omitempty"`
	Strike    float64         `json:"strike"`
	Right     meter.Right     `json:"right"`
	Expiry    string          `json:"expiry,omitempty"`
	Price     float64         `json:"price,omitempty"`
	Size      int64           `json:"size"`
	Aggressor meter.Aggressor `json:"aggressor"`
	Time      time.Time       `json:"time,omitzero"`
}

type wireTrade struct {
	Symbol    string    `json:"symbol"`
	Strike    float64   `json:"strike"`
	Right     string    `json:"right"`
	Expiry    string    `json:"expiry"`
	Price     float64   `json:"price"`
	Size      int64     `json:"size"`
	Aggressor string    `json:"aggressor"`
	Time      time.Time `json:"time"`
}

// DecodeTrade parses one JSON trade message. Right and aggressor accept the
// single-letter shorthands.
func DecodeTrade(data []byte) (Trade, error) {
	var w wireTrade
	if err := json.Unmarshal(data, &w); err != nil {
		return Trade{}, fmt.Errorf("decode trade: %w", err)
	}
	if w.Strike <= 0 {
		return Trade{}, fmt.Errorf("decode trade: strike must be > 0")
	}
	if w.Size <= 0 {
		return Trade{}, fmt.Errorf("decode trade: size must be > 0")
	}
	right, err := meter.ParseRight(w.Right)
	if err != nil {
		return Trade{}, fmt.Errorf("decode trade: %w", err)
	}
	aggr, err := meter.ParseAggressor(w.Aggressor)
	if err != nil {
		return Trade{}, fmt.Errorf("decode trade: %w", err)
	}
	return Trade{
		Symbol:    strings.TrimSpace(w.Symbol),
		Strike:    w.Strike,
		Right:     right,
		Expiry:    strings.TrimSpace(w.Expiry),
		Price:     w.Price,
		Size:      w.Size,
		Aggressor: aggr,
		Time:      w.Time,
	}, nil
}

// Matches reports whether the trade belongs to a meter tracking strike and
// right. Expiries are compared only when both sides carry one.
func (t Trade) Matches(strike float64, right meter.Right, expiry string) bool {
	if t.Right != right || math.Abs(t.Strike-strike) > 1e-9 {
		return false
	}
	if t.Expiry != "" && expiry != "" && t.Expiry != expiry {
		return false
	}
	return true
}
