package storage

// Package storage persists the user's routines, shelf items and notification
// settings in a local SQLite database and exposes the read views the
// reconciler consumes.
