package sched

import (
	"testing"
	"time"
)

func TestWeekdaysBitfieldRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		days Weekdays
		bits uint8
	}{
		{name: "none", days: Weekdays{}, bits: 0},
		{name: "monday", days: Weekdays{0: true}, bits: 0b0000001},
		{name: "weekend", days: Weekdays{5: true, 6: true}, bits: 0b1100000},
		{name: "all", days: Weekdays{true, true, true, true, true, true, true}, bits: 0b1111111},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.days.Bitfield(); got != tt.bits {
				t.Fatalf("Bitfield() = %07b, want %07b", got, tt.bits)
			}
			if got := WeekdaysFromBitfield(tt.bits); got != tt.days {
				t.Fatalf("WeekdaysFromBitfield(%07b) = %v, want %v", tt.bits, got, tt.days)
			}
		})
	}
}

func TestWeekdaysOnUsesMondayFirstIndexing(t *testing.T) {
	t.Parallel()
	var w Weekdays
	w[0] = true // Monday
	w[6] = true // Sunday

	if !w.On(time.Monday) {
		t.Fatal("Monday should be on")
	}
	if !w.On(time.Sunday) {
		t.Fatal("Sunday should be on")
	}
	if w.On(time.Wednesday) {
		t.Fatal("Wednesday should be off")
	}
}

func TestWeekdaysCount(t *testing.T) {
	t.Parallel()
	w := Weekdays{0: true, 2: true, 4: true}
	if got := w.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}
}
