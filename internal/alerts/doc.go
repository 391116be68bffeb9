// Package alerts implements the host-level local alert primitive used by the
// glowd reconciler.
//
// # Overview
//
// The engine holds a bounded table of scheduled alerts and fires them through
// a delivery Sink. Two trigger shapes exist:
//
//   - Weekly: repeats every week on one weekday at HH:MM (backed by a cron
//     entry; one trigger cannot express "every Mon/Wed/Fri", callers register
//     one alert per weekday instead).
//   - Once: fires at an absolute instant (backed by a one-shot timer) and is
//     removed from the table when it fires, freeing its quota slot.
//
// # Quota
//
// Schedule returns ErrQuotaExceeded once the table is full. The quota models
// the platform-wide cap mobile systems place on concurrently schedulable
// local notifications; callers are expected to budget below it and treat
// rejection as an expected outcome, not a failure.
//
// # Handles
//
// Schedule mints an opaque handle per alert. Cancelling an unknown or stale
// handle is a no-op: from the caller's perspective the alert is simply gone.
//
// # Lifecycle
//
// The engine can be started/stopped at runtime (e.g. via config hot reload).
// Scheduling while stopped is supported: entries are stored and armed on the
// next Start.
package alerts
