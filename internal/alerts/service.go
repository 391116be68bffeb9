package alerts

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	logx "glowd/pkg/logx"
)

func New(cfg Config, sink Sink, log logx.Logger) *Engine {
	if cfg.Quota <= 0 {
		cfg.Quota = defaultQuota
	}
	return &Engine{
		cfg:     cfg,
		log:     log,
		sink:    sink,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		entries: map[string]*entry{},
	}
}

// Quota reports the configured quota. (Thread-safe; Apply() may run concurrently.)
func (s *Engine) Quota() int {
	s.mu.Lock()
	q := s.cfg.Quota
	s.mu.Unlock()
	return q
}

// Apply updates quota/timezone at runtime. A timezone change restarts the
// cron runner so weekly triggers fire in the new location. Shrinking the
// quota never cancels already-scheduled alerts; it only gates new ones.
func (s *Engine) Apply(cfg Config) {
	if cfg.Quota <= 0 {
		cfg.Quota = defaultQuota
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oldTZ := strings.TrimSpace(s.cfg.Timezone)
	newTZ := strings.TrimSpace(cfg.Timezone)
	s.cfg = cfg

	if s.running && oldTZ != newTZ {
		s.restartLocked()
	}
}

func (s *Engine) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	s.runCtx, s.runCancel = context.WithCancel(ctx)
	loc := s.loadLocationLocked()
	s.loc = loc
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))

	// Re-arm persisted entries (if any).
	for _, e := range s.entries {
		s.armLocked(e)
	}

	s.c.Start()
	s.running = true
	s.log.Info("alert engine started",
		logx.Int("quota", s.cfg.Quota),
		logx.String("tz", loc.String()),
		logx.Int("scheduled", len(s.entries)))
}

// Stop disarms all triggers but keeps the alert table, so a later Start
// resumes with the same entries.
func (s *Engine) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.c
	s.c = nil
	cancel := s.runCancel
	s.runCancel = nil
	s.runCtx = nil
	for _, e := range s.entries {
		s.disarmLocked(e)
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
			// in-flight fires finish in background
		}
	}
	s.log.Info("alert engine stopped")
}

// armLocked registers the trigger for e with the runtime. Call with s.mu held
// and s.c non-nil.
func (s *Engine) armLocked(e *entry) {
	switch e.req.Trigger.Kind {
	case TriggerWeekly:
		id := e.id
		eid, err := s.c.AddFunc(e.req.Trigger.cronSpec(), func() { s.fire(id, false) })
		if err != nil {
			// Validated at Schedule time, so this is unexpected.
			s.log.Error("alert arm failed", logx.String("id", e.id), logx.Err(err))
			return
		}
		e.entryID = eid
	case TriggerOnce:
		id := e.id
		delay := time.Until(e.req.Trigger.At)
		if delay < 0 {
			// Instant passed while stopped; fire promptly rather than drop.
			delay = 0
		}
		e.timer = time.AfterFunc(delay, func() { s.fire(id, true) })
	}
}

// disarmLocked detaches e from the runtime without touching the table.
func (s *Engine) disarmLocked(e *entry) {
	if e.entryID != 0 && s.c != nil {
		s.c.Remove(e.entryID)
	}
	e.entryID = 0
	if e.timer != nil {
		_ = e.timer.Stop()
		e.timer = nil
	}
}

// fire delivers the alert with the given id. One-shot fires consume their
// table entry before delivery so a delivery failure cannot replay them.
func (s *Engine) fire(id string, consume bool) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || !s.running {
		s.mu.Unlock()
		return
	}
	if consume {
		s.disarmLocked(e)
		delete(s.entries, id)
	}
	a := Scheduled{ID: e.id, Title: e.req.Title, Body: e.req.Body, Data: e.req.Data, Trigger: e.req.Trigger}
	ctx := s.runCtx
	s.mu.Unlock()

	if ctx == nil || s.sink == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in alert delivery",
				logx.String("id", id),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
		}
	}()

	if err := s.sink.Deliver(ctx, a); err != nil {
		s.log.Warn("alert delivery failed",
			logx.String("id", id),
			logx.String("type", a.Data.Type),
			logx.String("subject", a.Data.SubjectID),
			logx.Err(err))
		return
	}
	s.log.Debug("alert delivered",
		logx.String("id", id),
		logx.String("type", a.Data.Type),
		logx.String("title", a.Title))
}

func (s *Engine) restartLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
	}
	for _, e := range s.entries {
		s.disarmLocked(e)
	}
	loc := s.loadLocationLocked()
	s.loc = loc
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	for _, e := range s.entries {
		s.armLocked(e)
	}
	s.c.Start()
	s.log.Info("alert engine restarted", logx.String("tz", loc.String()), logx.Int("scheduled", len(s.entries)))
}

func (s *Engine) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
