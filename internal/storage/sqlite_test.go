package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"glowd/internal/sched"

	logx "glowd/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "glowd.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSettingsDefaults(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)

	got, err := st.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings error: %v", err)
	}
	if !got.RoutineRemindersEnabled || !got.ExpiryAlertsEnabled {
		t.Fatalf("seeded settings = %+v, want both producers enabled", got)
	}
	if got.MorningTime != "" || got.EveningTime != "" {
		t.Fatalf("seeded times = %+v, want empty (built-in defaults)", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	want := sched.Settings{
		RoutineRemindersEnabled: true,
		ExpiryAlertsEnabled:     false,
		MorningTime:             "08:00",
		AfternoonTime:           "14:30",
		EveningTime:             "21:00",
	}
	if err := st.UpdateSettings(ctx, want); err != nil {
		t.Fatalf("UpdateSettings error: %v", err)
	}
	got, err := st.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings error: %v", err)
	}
	if got != want {
		t.Fatalf("Settings = %+v, want %+v", got, want)
	}
}

func TestRoutineRoundTrip(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	rt := sched.Routine{
		ID:           "rt-1",
		Name:         "Morning Glow",
		Segment:      sched.SegmentMorning,
		Enabled:      true,
		Days:         sched.Weekdays{0: true, 2: true, 4: true},
		ReminderTime: "07:45",
	}
	if err := st.UpsertRoutine(ctx, rt); err != nil {
		t.Fatalf("UpsertRoutine error: %v", err)
	}
	// Disabled routines never surface in the active view.
	if err := st.UpsertRoutine(ctx, sched.Routine{ID: "rt-2", Name: "Off", Segment: sched.SegmentEvening}); err != nil {
		t.Fatalf("UpsertRoutine error: %v", err)
	}

	got, err := st.ActiveRoutines(ctx)
	if err != nil {
		t.Fatalf("ActiveRoutines error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d routines, want 1", len(got))
	}
	if got[0] != rt {
		t.Fatalf("routine = %+v, want %+v", got[0], rt)
	}

	// Upsert overwrites in place.
	rt.ReminderTime = "08:15"
	rt.Days = sched.Weekdays{6: true}
	if err := st.UpsertRoutine(ctx, rt); err != nil {
		t.Fatalf("UpsertRoutine error: %v", err)
	}
	got, _ = st.ActiveRoutines(ctx)
	if len(got) != 1 || got[0].ReminderTime != "08:15" || !got[0].Days[6] {
		t.Fatalf("after upsert: %+v", got)
	}

	if err := st.DeleteRoutine(ctx, rt.ID); err != nil {
		t.Fatalf("DeleteRoutine error: %v", err)
	}
	got, _ = st.ActiveRoutines(ctx)
	if len(got) != 0 {
		t.Fatalf("got %d routines after delete, want 0", len(got))
	}
}

func TestShelfItemRoundTrip(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	expiry := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	opened := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	items := []sched.ShelfItem{
		{ID: "it-1", Name: "Retinol", Status: sched.ShelfStatusActive, ExpiryDate: &expiry},
		{ID: "it-2", Name: "Cleanser", Status: sched.ShelfStatusActive, OpenedAt: &opened, ShelfLifeDays: 90},
		{ID: "it-3", Name: "Archived", Status: "archived", ExpiryDate: &expiry},
	}
	for _, it := range items {
		if err := st.UpsertShelfItem(ctx, it); err != nil {
			t.Fatalf("UpsertShelfItem(%s) error: %v", it.ID, err)
		}
	}

	got, err := st.ActiveShelfItems(ctx)
	if err != nil {
		t.Fatalf("ActiveShelfItems error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2 (archived filtered)", len(got))
	}

	byID := map[string]sched.ShelfItem{}
	for _, it := range got {
		byID[it.ID] = it
	}
	if it := byID["it-1"]; it.ExpiryDate == nil || !it.ExpiryDate.Equal(expiry) {
		t.Fatalf("it-1 = %+v", it)
	}
	if it := byID["it-2"]; it.OpenedAt == nil || it.ShelfLifeDays != 90 {
		t.Fatalf("it-2 = %+v", it)
	}
	if e, ok := byID["it-2"].EffectiveExpiry(); !ok || !e.Equal(opened.AddDate(0, 0, 90)) {
		t.Fatalf("it-2 effective expiry = %v ok=%v", e, ok)
	}

	if err := st.DeleteShelfItem(ctx, "it-1"); err != nil {
		t.Fatalf("DeleteShelfItem error: %v", err)
	}
	got, _ = st.ActiveShelfItems(ctx)
	if len(got) != 1 {
		t.Fatalf("got %d items after delete, want 1", len(got))
	}
}

func TestActiveShelfItemsSkipsMalformedDates(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	expiry := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	if err := st.UpsertShelfItem(ctx, sched.ShelfItem{
		ID: "good", Name: "a", Status: sched.ShelfStatusActive, ExpiryDate: &expiry,
	}); err != nil {
		t.Fatalf("UpsertShelfItem error: %v", err)
	}

	// Corrupt a row behind the store's back.
	sq := st.(*sqliteStore)
	if _, err := sq.db.ExecContext(ctx,
		`INSERT INTO shelf_items(id, name, status, expiry_date, updated_at)
		 VALUES('bad', 'b', 'active', 'next summer', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("raw insert error: %v", err)
	}

	got, err := st.ActiveShelfItems(ctx)
	if err != nil {
		t.Fatalf("ActiveShelfItems error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "good" {
		t.Fatalf("got %+v, want only the good row", got)
	}
}
