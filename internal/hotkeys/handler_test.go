package hotkeys

import (
	"slices"
	"testing"
)

func TestIgnoreMasks(t *testing.T) {
	tests := []struct {
		name                   string
		caps, numLock, scrollL uint16
		want                   []uint16
	}{
		{"caps only", 2, 0, 0, []uint16{0, 2}},
		{"caps and numlock", 2, 16, 0, []uint16{0, 2, 16, 18}},
		{"numlock same as caps", 2, 2, 0, []uint16{0, 2}},
		{"all three", 2, 16, 128, []uint16{0, 2, 16, 18, 128, 130, 144, 146}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ignoreMasks(tt.caps, tt.numLock, tt.scrollL)
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("ignoreMasks = %v, want %v", got, tt.want)
			}
		})
	}
}
