package meter

import "testing"

func TestTallyAddIgnoresNonPositiveSizes(t *testing.T) {
	var tally Tally
	tally.Add(Buy, 5)
	tally.Add(Sell, 3)
	tally.Add(Buy, 0)
	tally.Add(Sell, -7)

	if tally.Buy != 5 || tally.Sell != 3 {
		t.Fatalf("tally = %+v, want buy=5 sell=3", tally)
	}
	if tally.Total() != 8 || tally.Net() != 2 {
		t.Fatalf("total/net = %d/%d, want 8/2", tally.Total(), tally.Net())
	}

	tally.Reset()
	if tally.Total() != 0 {
		t.Fatalf("expected reset tally to be empty, got %+v", tally)
	}
	if got := tally.BuyFraction(); got != 0.5 {
		t.Fatalf("BuyFraction on empty tally = %v, want 0.5", got)
	}
}

func TestParseRightAndAggressor(t *testing.T) {
	tests := []struct {
		in   string
		want Right
		ok   bool
	}{
		{"CALL", RightCall, true},
		{"c", RightCall, true},
		{" put ", RightPut, true},
		{"P", RightPut, true},
		{"straddle", "", false},
	}
	for _, tt := range tests {
		got, err := ParseRight(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseRight(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRight(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got, err := ParseAggressor("s"); err != nil || got != Sell {
		t.Fatalf("ParseAggressor(s) = %q, %v", got, err)
	}
	if _, err := ParseAggressor("hold"); err == nil {
		t.Fatal("expected error for unknown aggressor")
	}
	if RightCall.Toggle() != RightPut || RightPut.Toggle() != RightCall {
		t.Fatal("Toggle did not flip the right")
	}
}

func TestLayoutSplitsCanvasByVolume(t *testing.T) {
	st := State{Strike: 5900, Right: RightCall, Tally: Tally{Buy: 3, Sell: 1}}
	v := Layout(60, 200, st)

	canvasH := 200 - headerHeight - footerHeight
	var buy, sell *Fill
	for i := range v.Fills {
		switch v.Fills[i].Color {
		case ColorBuy:
			buy = &v.Fills[i]
		case ColorSell:
			sell = &v.Fills[i]
		}
	}
	if buy == nil || sell == nil {
		t.Fatalf("expected buy and sell fills, got %+v", v.Fills)
	}
	if buy.Box.H+sell.Box.H != canvasH {
		t.Fatalf("segments cover %d px, want %d", buy.Box.H+sell.Box.H, canvasH)
	}
	if buy.Box.Y <= sell.Box.Y {
		t.Fatalf("expected buy segment below sell segment: buy=%+v sell=%+v", buy.Box, sell.Box)
	}
	if want := canvasH * 3 / 4; buy.Box.H != want {
		t.Fatalf("buy height = %d, want %d", buy.Box.H, want)
	}
}

func TestLayoutInvertedPutsBuyOnTop(t *testing.T) {
	st := State{Strike: 5900, Right: RightPut, Inverted: true, Tally: Tally{Buy: 1, Sell: 1}}
	v := Layout(60, 200, st)

	var buyY, sellY int
	for _, f := range v.Fills {
		switch f.Color {
		case ColorBuy:
			buyY = f.Box.Y
		case ColorSell:
			sellY = f.Box.Y
		}
	}
	if buyY >= sellY {
		t.Fatalf("inverted meter should draw buy above sell, buyY=%d sellY=%d", buyY, sellY)
	}
}

func TestLayoutClampsToMinimumSize(t *testing.T) {
	v := Layout(10, 10, State{Strike: 1})
	if v.Width != MinWidth || v.Height != MinHeight {
		t.Fatalf("size = %dx%d, want %dx%d", v.Width, v.Height, MinWidth, MinHeight)
	}
}

func TestHitTestFindsHeaderButtons(t *testing.T) {
	v := Layout(60, 200, State{Strike: 5900, Right: RightCall})

	for _, c := range v.Controls {
		x, y := c.Box.X+c.Box.W/2, c.Box.Y+c.Box.H/2
		if got := v.HitTest(x, y); got != c.Button {
			t.Errorf("HitTest(%d,%d) = %v, want %v", x, y, got, c.Button)
		}
	}
	if got := v.HitTest(30, 120); got != ButtonNone {
		t.Fatalf("HitTest inside canvas = %v, want none", got)
	}
}

func TestFormatStrike(t *testing.T) {
	if got := FormatStrike(5900); got != "5900" {
		t.Fatalf("FormatStrike(5900) = %q", got)
	}
	if got := FormatStrike(412.5); got != "412.5" {
		t.Fatalf("FormatStrike(412.5) = %q", got)
	}
}
