package alerts

import (
	"fmt"
	"time"
)

// TriggerKind selects between the two trigger shapes the host primitive
// can express.
type TriggerKind int

const (
	// TriggerWeekly repeats every week on Weekday at Hour:Minute.
	TriggerWeekly TriggerKind = iota
	// TriggerOnce fires exactly once at At.
	TriggerOnce
)

// Trigger describes when an alert fires.
//
// Weekday follows the app-internal convention Monday=0 .. Sunday=6 (the week
// starts on Monday). The engine converts at the host boundary; nothing else
// in the repo deals with the cron or time.Weekday conventions.
type Trigger struct {
	Kind TriggerKind

	// Weekly fields.
	Weekday int
	Hour    int
	Minute  int

	// Once field.
	At time.Time
}

// stdWeekdayTable maps Monday=0..Sunday=6 to Go's Sunday-first weekday.
var stdWeekdayTable = [7]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// StdWeekday converts an app-internal weekday number to time.Weekday.
// Out-of-range input panics; callers validate via Trigger.validate.
func StdWeekday(day int) time.Weekday {
	return stdWeekdayTable[day]
}

// cronDOW converts an app-internal weekday number to the cron day-of-week
// field (Sunday=0).
func cronDOW(day int) int {
	return int(stdWeekdayTable[day]) // time.Sunday == 0
}

// cronSpec renders a weekly trigger as a 5-field cron expression.
func (t Trigger) cronSpec() string {
	return fmt.Sprintf("%d %d * * %d", t.Minute, t.Hour, cronDOW(t.Weekday))
}

func (t Trigger) validate(now time.Time) error {
	switch t.Kind {
	case TriggerWeekly:
		if t.Weekday < 0 || t.Weekday > 6 {
			return fmt.Errorf("alerts: weekday %d out of range", t.Weekday)
		}
		if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return fmt.Errorf("alerts: time %02d:%02d out of range", t.Hour, t.Minute)
		}
		return nil
	case TriggerOnce:
		if t.At.IsZero() {
			return fmt.Errorf("alerts: one-shot trigger without instant")
		}
		if !t.At.After(now) {
			return ErrPastTrigger
		}
		return nil
	default:
		return fmt.Errorf("alerts: unknown trigger kind %d", t.Kind)
	}
}

func (t Trigger) String() string {
	switch t.Kind {
	case TriggerWeekly:
		return fmt.Sprintf("weekly(%s %02d:%02d)", StdWeekday(t.Weekday), t.Hour, t.Minute)
	case TriggerOnce:
		return fmt.Sprintf("once(%s)", t.At.Format(time.RFC3339))
	default:
		return fmt.Sprintf("trigger(%d)", t.Kind)
	}
}
