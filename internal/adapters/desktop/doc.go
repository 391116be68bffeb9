package desktop

// Package desktop delivers alerts through the freedesktop notification
// service on the session bus. It is both the delivery sink for the alert
// engine and the authorization gate the reconciler consults: a notification
// daemon that does not answer the probe means alerts cannot be shown, and
// scheduling on top of that would only accumulate garbage.
