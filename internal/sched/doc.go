// Package sched keeps the device's local alerts consistent with the user's
// skincare data.
//
// # Overview
//
// Two producers compete for the platform's fixed alert quota:
//
//   - routine: recurring reminders, one per active weekday of each routine,
//     at the segment's reminder time (custom or default).
//   - expiry: one-off warnings ahead of a shelf item's expiry date (7 days
//     and 1 day before, at 09:00).
//
// A Reconciler run is a full, idempotent replace of one producer's alerts:
// it regenerates the candidate set from source data, cancels everything the
// producer had scheduled, admits candidates against the producer's
// sub-budget, and schedules the survivors. The alert table is therefore
// always a pure function of current source data and settings; a crashed or
// repeated run converges on the next invocation.
//
// # Failure policy
//
// Nothing here returns errors to callers in normal operation. Authorization
// denial clears the producer's alerts. Malformed source records are skipped
// one at a time. Schedule failures drop that one candidate. Quota exhaustion
// is deterministic truncation, not an error. Every degradation shows up only
// as "fewer alerts than ideal".
package sched
