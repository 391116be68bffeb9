package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"glowd/internal/sched"

	logx "glowd/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) ActiveRoutines(ctx context.Context) ([]sched.Routine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, segment, active_days, reminder_time
		 FROM routines WHERE enabled = 1 ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sched.Routine
	for rows.Next() {
		var r sched.Routine
		var days int
		if err := rows.Scan(&r.ID, &r.Name, (*string)(&r.Segment), &days, &r.ReminderTime); err != nil {
			return nil, err
		}
		r.Enabled = true
		r.Days = sched.WeekdaysFromBitfield(uint8(days))
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ActiveShelfItems(ctx context.Context) ([]sched.ShelfItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, status, expiry_date, opened_at, shelf_life_days
		 FROM shelf_items WHERE status = ? ORDER BY name, id`, sched.ShelfStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sched.ShelfItem
	for rows.Next() {
		var it sched.ShelfItem
		var expiry, opened sql.NullString
		if err := rows.Scan(&it.ID, &it.Name, &it.Status, &expiry, &opened, &it.ShelfLifeDays); err != nil {
			return nil, err
		}
		ok := true
		if it.ExpiryDate, ok = s.parseDate(it.ID, "expiry_date", expiry); !ok {
			continue
		}
		if it.OpenedAt, ok = s.parseDate(it.ID, "opened_at", opened); !ok {
			continue
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Settings(ctx context.Context) (sched.Settings, error) {
	var st sched.Settings
	err := s.db.QueryRowContext(ctx,
		`SELECT routine_reminders_enabled, expiry_alerts_enabled, morning_time, afternoon_time, evening_time
		 FROM settings WHERE id = 1`).
		Scan(&st.RoutineRemindersEnabled, &st.ExpiryAlertsEnabled,
			&st.MorningTime, &st.AfternoonTime, &st.EveningTime)
	if errors.Is(err, sql.ErrNoRows) {
		// The seed row is missing only on a hand-edited database. Fall back
		// to the defaults rather than silencing every alert.
		return sched.Settings{RoutineRemindersEnabled: true, ExpiryAlertsEnabled: true}, nil
	}
	if err != nil {
		return sched.Settings{}, err
	}
	return st, nil
}

func (s *sqliteStore) UpsertRoutine(ctx context.Context, r sched.Routine) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO routines(id, name, segment, enabled, active_days, reminder_time, updated_at)
		 VALUES(?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, segment=excluded.segment, enabled=excluded.enabled,
		   active_days=excluded.active_days, reminder_time=excluded.reminder_time,
		   updated_at=excluded.updated_at`,
		r.ID, r.Name, string(r.Segment), r.Enabled, r.Days.Bitfield(), r.ReminderTime,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *sqliteStore) DeleteRoutine(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM routines WHERE id = ?`, id)
	return err
}

func (s *sqliteStore) UpsertShelfItem(ctx context.Context, it sched.ShelfItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shelf_items(id, name, status, expiry_date, opened_at, shelf_life_days, updated_at)
		 VALUES(?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, status=excluded.status, expiry_date=excluded.expiry_date,
		   opened_at=excluded.opened_at, shelf_life_days=excluded.shelf_life_days,
		   updated_at=excluded.updated_at`,
		it.ID, it.Name, it.Status, formatDate(it.ExpiryDate), formatDate(it.OpenedAt),
		it.ShelfLifeDays, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *sqliteStore) DeleteShelfItem(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shelf_items WHERE id = ?`, id)
	return err
}

func (s *sqliteStore) UpdateSettings(ctx context.Context, st sched.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE settings SET
		   routine_reminders_enabled = ?, expiry_alerts_enabled = ?,
		   morning_time = ?, afternoon_time = ?, evening_time = ?
		 WHERE id = 1`,
		st.RoutineRemindersEnabled, st.ExpiryAlertsEnabled,
		st.MorningTime, st.AfternoonTime, st.EveningTime,
	)
	return err
}

// parseDate decodes a stored date column. A malformed value drops the whole
// row with a warning; a half-read item must not reach the generators.
func (s *sqliteStore) parseDate(id, column string, v sql.NullString) (*time.Time, bool) {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil, true
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, v.String); err == nil {
			return &t, true
		}
	}
	s.log.Warn("shelf item has malformed date; skipping row",
		logx.String("item", id),
		logx.String("column", column),
		logx.String("value", v.String))
	return nil, false
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.DateOnly)
}
