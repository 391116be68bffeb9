package sched

import (
	"context"
	"time"

	"glowd/internal/alerts"
)

// Producer identifies one of the two independent alert sources. The producer
// partitions both the quota sub-budgets and the cancel scope.
type Producer string

const (
	ProducerRoutine Producer = "routine"
	ProducerExpiry  Producer = "expiry"
)

// Payload type tags carried on every alert; they are the only thing that
// links a live alert back to its producer.
const (
	PayloadRoutineReminder = "routine_reminder"
	PayloadExpiryReminder  = "expiry_reminder"
)

// PayloadType returns the payload tag this producer stamps on its alerts.
func (p Producer) PayloadType() string {
	switch p {
	case ProducerRoutine:
		return PayloadRoutineReminder
	case ProducerExpiry:
		return PayloadExpiryReminder
	default:
		return ""
	}
}

// Segment is a time-of-day bucket used to pick default reminder times.
type Segment string

const (
	SegmentMorning   Segment = "morning"
	SegmentAfternoon Segment = "afternoon"
	SegmentEvening   Segment = "evening"
)

// Routine is an active skincare routine as read from the data store.
type Routine struct {
	ID      string
	Name    string
	Segment Segment
	Enabled bool
	Days    Weekdays

	// ReminderTime is an optional per-routine "HH:MM" override. When empty,
	// the settings-level segment time (or the built-in default) applies.
	ReminderTime string
}

// ShelfItem is a product on the user's shelf as read from the data store.
type ShelfItem struct {
	ID     string
	Name   string
	Status string

	// ExpiryDate is the explicit expiry when known. Otherwise the expiry is
	// derived from OpenedAt plus ShelfLifeDays.
	ExpiryDate    *time.Time
	OpenedAt      *time.Time
	ShelfLifeDays int
}

// ShelfStatusActive is the only status that produces expiry warnings.
const ShelfStatusActive = "active"

// EffectiveExpiry resolves the item's expiry instant. The second return is
// false when the item carries no usable expiry information.
func (it ShelfItem) EffectiveExpiry() (time.Time, bool) {
	if it.ExpiryDate != nil {
		return *it.ExpiryDate, true
	}
	if it.OpenedAt != nil && it.ShelfLifeDays > 0 {
		return it.OpenedAt.AddDate(0, 0, it.ShelfLifeDays), true
	}
	return time.Time{}, false
}

// Settings are the per-user notification preferences. They are read at the
// start of every reconciler run and never written by this package.
type Settings struct {
	RoutineRemindersEnabled bool
	ExpiryAlertsEnabled     bool

	// Per-segment "HH:MM" overrides; empty means the built-in default.
	MorningTime   string
	AfternoonTime string
	EveningTime   string
}

func (s Settings) ProducerEnabled(p Producer) bool {
	switch p {
	case ProducerRoutine:
		return s.RoutineRemindersEnabled
	case ProducerExpiry:
		return s.ExpiryAlertsEnabled
	default:
		return false
	}
}

// SegmentTime returns the user's custom reminder time for the segment, or ""
// when the default applies.
func (s Settings) SegmentTime(seg Segment) string {
	switch seg {
	case SegmentMorning:
		return s.MorningTime
	case SegmentAfternoon:
		return s.AfternoonTime
	case SegmentEvening:
		return s.EveningTime
	default:
		return ""
	}
}

// Candidate is a potential alert computed from source data, before admission.
type Candidate struct {
	Producer  Producer
	SubjectID string

	// Urgency orders expiry candidates for admission (days until expiry at
	// generation time; smaller is more urgent). Routine candidates are all
	// equally weighted and leave it zero.
	Urgency int

	Request alerts.Request
}

// Source is the read-only view of the remote data store this core consumes.
type Source interface {
	ActiveRoutines(ctx context.Context) ([]Routine, error)
	ActiveShelfItems(ctx context.Context) ([]ShelfItem, error)
	Settings(ctx context.Context) (Settings, error)
}

// Primitive is the host-level local alert API (implemented by the alerts
// engine). The primitive exclusively owns the underlying OS resource; this
// core only ever holds returned handles.
type Primitive interface {
	Schedule(ctx context.Context, req alerts.Request) (string, error)
	Pending(ctx context.Context) ([]alerts.Scheduled, error)
	Cancel(ctx context.Context, ids ...string) error
	CancelAll(ctx context.Context) error
}

// Authorizer gates all scheduling on the platform's notification permission.
type Authorizer interface {
	// Authorized reports whether alerts may be delivered, prompting the user
	// once if the state is undetermined. It never fails: errors count as
	// "denied".
	Authorized(ctx context.Context) bool
}
