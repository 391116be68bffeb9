package alerts

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	logx "glowd/pkg/logx"
)

// Schedule registers an alert and returns its opaque handle.
//
// Returns ErrQuotaExceeded when the table is full and ErrPastTrigger for
// one-shot triggers that are not strictly in the future. The handle stays
// valid until the alert is cancelled or (for one-shots) fires.
func (s *Engine) Schedule(ctx context.Context, req Request) (string, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loc != nil {
		now = now.In(s.loc)
	}
	if err := req.Trigger.validate(now); err != nil {
		return "", err
	}
	if len(s.entries) >= s.cfg.Quota {
		return "", ErrQuotaExceeded
	}

	e := &entry{id: uuid.NewString(), req: req}
	s.entries[e.id] = e
	if s.running {
		s.armLocked(e)
	}

	s.log.Debug("alert scheduled",
		logx.String("id", e.id),
		logx.String("type", req.Data.Type),
		logx.String("subject", req.Data.SubjectID),
		logx.String("trigger", req.Trigger.String()),
		logx.Int("scheduled", len(s.entries)))
	return e.id, nil
}

// Cancel removes the alerts with the given handles. Unknown or stale handles
// are treated as already cancelled.
func (s *Engine) Cancel(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, id := range ids {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		s.disarmLocked(e)
		delete(s.entries, id)
		removed++
	}
	if removed > 0 {
		s.log.Debug("alerts cancelled", logx.Int("removed", removed), logx.Int("scheduled", len(s.entries)))
	}
	return nil
}

// CancelAll wipes the whole alert table (both producers).
func (s *Engine) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		s.disarmLocked(e)
		delete(s.entries, id)
	}
	s.log.Debug("all alerts cancelled")
	return nil
}

// Pending returns a snapshot of the alert table, sorted by handle for
// deterministic output.
func (s *Engine) Pending(ctx context.Context) ([]Scheduled, error) {
	s.mu.Lock()
	out := make([]Scheduled, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Scheduled{ID: e.id, Title: e.req.Title, Body: e.req.Body, Data: e.req.Data, Trigger: e.req.Trigger})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
