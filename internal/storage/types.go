package storage

import (
	"context"
	"time"

	"glowd/internal/sched"
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (the default)
//
// Path is the database file; parent directories are created as needed.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means the driver default
}

// Store is the persistence API. Its read side satisfies the reconciler's
// source interface; the write side backs the user-facing data mutations.
type Store interface {
	sched.Source

	UpsertRoutine(ctx context.Context, r sched.Routine) error
	DeleteRoutine(ctx context.Context, id string) error
	UpsertShelfItem(ctx context.Context, it sched.ShelfItem) error
	DeleteShelfItem(ctx context.Context, id string) error
	UpdateSettings(ctx context.Context, st sched.Settings) error

	Close() error
}
