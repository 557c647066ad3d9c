package meter

import (
	"fmt"
	"strings"
)

// Right is the option right a meter tracks.
type Right string

const (
	RightCall Right = "CALL"
	RightPut  Right = "PUT"
)

// ParseRight accepts CALL/PUT (and the C/P shorthands) in any case.
func ParseRight(s string) (Right, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "C":
		return RightCall, nil
	case "PUT", "P":
		return RightPut, nil
	default:
		return "", fmt.Errorf("invalid option right %q (want CALL or PUT)", s)
	}
}

// Toggle flips CALL to PUT and back.
func (r Right) Toggle() Right {
	if r == RightPut {
		return RightCall
	}
	return RightPut
}

// Aggressor is the side that initiated a trade.
type Aggressor string

const (
	Buy  Aggressor = "BUY"
	Sell Aggressor = "SELL"
)

// ParseAggressor accepts BUY/SELL (and B/S) in any case.
func ParseAggressor(s string) (Aggressor, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "B":
		return Buy, nil
	case "SELL", "S":
		return Sell, nil
	default:
		return "", fmt.Errorf("invalid aggressor %q (want BUY or SELL)", s)
	}
}

// Tally is the running buy/sell volume of one meter.
type Tally struct {
	Buy  int64 `json:"buy"`
	Sell int64 `json:"sell"`
}

// Add records size contracts on the given side. Non-positive sizes are ignored.
func (t *Tally) Add(side Aggressor, size int64) {
	if size <= 0 {
		return
	}
	switch side {
	case Buy:
		t.Buy += size
	case Sell:
		t.Sell += size
	}
}

// Reset zeroes both sides.
func (t *Tally) Reset() {
	t.Buy = 0
	t.Sell = 0
}

func (t Tally) Total() int64 { return t.Buy + t.Sell }

func (t Tally) Net() int64 { return t.Buy - t.Sell }

// BuyFraction returns the buy share of total volume, or 0.5 when nothing
// has traded yet.
func (t Tally) BuyFraction() float64 {
	total := t.Total()
	if total == 0 {
		return 0.5
	}
	return float64(t.Buy) / float64(total)
}
