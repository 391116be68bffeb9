package sched

import (
	"testing"

	"glowd/internal/alerts"

	logx "glowd/pkg/logx"
)

func TestRoutineCandidatesOnePerActiveDay(t *testing.T) {
	t.Parallel()
	routines := []Routine{{
		ID:      "rt-1",
		Name:    "Morning Glow",
		Segment: SegmentMorning,
		Enabled: true,
		Days:    Weekdays{0: true, 2: true, 4: true}, // Mon, Wed, Fri
	}}

	got := RoutineCandidates(routines, Settings{RoutineRemindersEnabled: true}, logx.Nop())
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}

	wantDays := []int{0, 2, 4}
	for i, c := range got {
		if c.Producer != ProducerRoutine {
			t.Fatalf("candidate %d producer = %s", i, c.Producer)
		}
		tr := c.Request.Trigger
		if tr.Kind != alerts.TriggerWeekly {
			t.Fatalf("candidate %d kind = %v, want weekly", i, tr.Kind)
		}
		if tr.Weekday != wantDays[i] {
			t.Fatalf("candidate %d weekday = %d, want %d", i, tr.Weekday, wantDays[i])
		}
		// Default morning time applies when nothing overrides it.
		if tr.Hour != 7 || tr.Minute != 30 {
			t.Fatalf("candidate %d time = %02d:%02d, want 07:30", i, tr.Hour, tr.Minute)
		}
		if c.Request.Title != "Time for Morning Glow" {
			t.Fatalf("candidate %d title = %q", i, c.Request.Title)
		}
		if c.Request.Data.Type != PayloadRoutineReminder || c.Request.Data.SubjectID != "rt-1" {
			t.Fatalf("candidate %d payload = %+v", i, c.Request.Data)
		}
		if c.Request.Data.Segment != string(SegmentMorning) {
			t.Fatalf("candidate %d segment = %q", i, c.Request.Data.Segment)
		}
	}
}

func TestRoutineCandidatesTimePrecedence(t *testing.T) {
	t.Parallel()
	st := Settings{RoutineRemindersEnabled: true, EveningTime: "20:15"}
	tests := []struct {
		name         string
		override     string
		wantH, wantM int
	}{
		{name: "routine override wins", override: "21:45", wantH: 21, wantM: 45},
		{name: "settings time next", override: "", wantH: 20, wantM: 15},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			routines := []Routine{{
				ID: "rt", Name: "Night", Segment: SegmentEvening, Enabled: true,
				Days: Weekdays{0: true}, ReminderTime: tt.override,
			}}
			got := RoutineCandidates(routines, st, logx.Nop())
			if len(got) != 1 {
				t.Fatalf("got %d candidates, want 1", len(got))
			}
			tr := got[0].Request.Trigger
			if tr.Hour != tt.wantH || tr.Minute != tt.wantM {
				t.Fatalf("time = %02d:%02d, want %02d:%02d", tr.Hour, tr.Minute, tt.wantH, tt.wantM)
			}
		})
	}
}

func TestRoutineCandidatesSkipsUnusableRecords(t *testing.T) {
	t.Parallel()
	routines := []Routine{
		{ID: "disabled", Name: "a", Segment: SegmentMorning, Days: Weekdays{0: true}},
		{ID: "no-days", Name: "b", Segment: SegmentMorning, Enabled: true},
		{ID: "bad-time", Name: "c", Segment: SegmentMorning, Enabled: true, Days: Weekdays{0: true}, ReminderTime: "25:99"},
		{ID: "bad-segment", Name: "d", Segment: Segment("midnight"), Enabled: true, Days: Weekdays{0: true}},
		{ID: "ok", Name: "e", Segment: SegmentAfternoon, Enabled: true, Days: Weekdays{1: true}},
	}

	got := RoutineCandidates(routines, Settings{RoutineRemindersEnabled: true}, logx.Nop())
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].SubjectID != "ok" {
		t.Fatalf("survivor = %s, want ok", got[0].SubjectID)
	}
	if got[0].Request.Trigger.Hour != 15 || got[0].Request.Trigger.Minute != 0 {
		t.Fatalf("afternoon default = %02d:%02d, want 15:00",
			got[0].Request.Trigger.Hour, got[0].Request.Trigger.Minute)
	}
}

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	h, m, err := parseHHMM("19:30")
	if err != nil {
		t.Fatalf("parseHHMM error: %v", err)
	}
	if h != 19 || m != 30 {
		t.Fatalf("unexpected result: %d:%d", h, m)
	}

	for _, bad := range []string{"", "19", "24:00", "12:60", "ab:cd"} {
		if _, _, err := parseHHMM(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
