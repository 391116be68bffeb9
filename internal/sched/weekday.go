package sched

import "time"

// Weekdays is the set of weekdays a routine is active on, indexed by the
// app-internal convention Monday=0 .. Sunday=6 (the week starts on Monday,
// which is why time.Weekday's Sunday-first numbering is not used directly).
type Weekdays [7]bool

// Count returns the number of active weekdays.
func (w Weekdays) Count() int {
	var cnt int
	for _, b := range w {
		if b {
			cnt++
		}
	}
	return cnt
}

// On returns the flag for the given Go weekday.
func (w Weekdays) On(d time.Weekday) bool {
	return w[(d+6)%7]
}

// Bitfield packs the set into an integer, least significant bit = Monday.
// This is the storage representation of active_days.
func (w Weekdays) Bitfield() uint8 {
	var days uint8
	for i, b := range w {
		if b {
			days |= 1 << i
		}
	}
	return days
}

// WeekdaysFromBitfield is the inverse of Bitfield. Bits beyond the seventh
// are ignored.
func WeekdaysFromBitfield(days uint8) Weekdays {
	var w Weekdays
	for i := range w {
		w[i] = days&(1<<i) != 0
	}
	return w
}
