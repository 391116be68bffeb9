package sched

import (
	"context"
	"errors"
	"sync"
	"time"

	"glowd/internal/alerts"

	logx "glowd/pkg/logx"
)

// ReconcilerConfig splits the shared alert quota between the producers.
//
// The routine producer is admitted against the full quota (it is the
// higher-priority producer). The expiry producer gets whatever the quota
// leaves after the live routine alerts, capped at ExpiryBudget so neither
// producer can starve the other as data grows.
type ReconcilerConfig struct {
	Quota        int
	ExpiryBudget int
}

const (
	defaultReconcilerQuota = 64
	defaultExpiryBudget    = 16
)

func (c ReconcilerConfig) withDefaults() ReconcilerConfig {
	if c.Quota <= 0 {
		c.Quota = defaultReconcilerQuota
	}
	if c.ExpiryBudget <= 0 {
		c.ExpiryBudget = defaultExpiryBudget
	}
	return c
}

// Reconciler keeps the alert table consistent with the data store. Every run
// is a full producer-scoped replace: cancel everything the producer had,
// then schedule the freshly admitted candidate set. Runs are idempotent, so
// callers may trigger them on any data-changing event without coordination.
type Reconciler struct {
	// mu serializes runs: a second run's cancel-all must not race with the
	// first run's schedule calls, or it could leave orphaned alerts.
	mu sync.Mutex

	cfg  ReconcilerConfig
	src  Source
	prim Primitive
	auth Authorizer
	log  logx.Logger

	now func() time.Time // test seam
}

func NewReconciler(cfg ReconcilerConfig, src Source, prim Primitive, auth Authorizer, log logx.Logger) *Reconciler {
	return &Reconciler{
		cfg:  cfg.withDefaults(),
		src:  src,
		prim: prim,
		auth: auth,
		log:  log,
		now:  time.Now,
	}
}

// Apply updates the budget split at runtime. The new split takes effect on
// the next run.
func (r *Reconciler) Apply(cfg ReconcilerConfig) {
	r.mu.Lock()
	r.cfg = cfg.withDefaults()
	r.mu.Unlock()
}

// Reconcile replaces one producer's alerts with the set implied by current
// source data and settings. It never returns an error: every failure mode
// degrades to fewer alerts and a log line.
func (r *Reconciler) Reconcile(ctx context.Context, p Producer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconcileLocked(ctx, p)
}

// ReconcileAll wipes every producer-tagged alert and rebuilds both producers.
// Used after bulk events (sign-in, bulk data refresh) to converge to a clean
// state in one call.
func (r *Reconciler) ReconcileAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelProducerLocked(ctx, ProducerRoutine)
	r.cancelProducerLocked(ctx, ProducerExpiry)
	// Routine first, so the expiry sub-budget sees the post-routine quota.
	r.reconcileLocked(ctx, ProducerRoutine)
	r.reconcileLocked(ctx, ProducerExpiry)
}

// CancelAll removes both producers' alerts in one call (account sign-out).
func (r *Reconciler) CancelAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.prim.CancelAll(ctx); err != nil {
		r.log.Warn("cancel-all failed", logx.Err(err))
		return
	}
	r.log.Info("all alerts cancelled")
}

func (r *Reconciler) reconcileLocked(ctx context.Context, p Producer) {
	log := r.log.With(logx.String("producer", string(p)))

	if !r.auth.Authorized(ctx) {
		n := r.cancelProducerLocked(ctx, p)
		log.Info("alert authorization absent; cleared producer", logx.Int("cancelled", n))
		return
	}

	st, err := r.src.Settings(ctx)
	if err != nil {
		log.Error("settings load failed; leaving alerts untouched", logx.Err(err))
		return
	}
	if !st.ProducerEnabled(p) {
		n := r.cancelProducerLocked(ctx, p)
		log.Info("producer disabled in settings; cleared", logx.Int("cancelled", n))
		return
	}

	var cands []Candidate
	switch p {
	case ProducerRoutine:
		routines, err := r.src.ActiveRoutines(ctx)
		if err != nil {
			log.Error("routine load failed; leaving alerts untouched", logx.Err(err))
			return
		}
		cands = RoutineCandidates(routines, st, log)
	case ProducerExpiry:
		items, err := r.src.ActiveShelfItems(ctx)
		if err != nil {
			log.Error("shelf load failed; leaving alerts untouched", logx.Err(err))
			return
		}
		cands = ExpiryCandidates(items, r.now(), log)
	default:
		log.Error("unknown producer")
		return
	}

	// Full producer-scoped wipe, never a diff. Unconditional cancellation
	// before scheduling is what keeps a crashed or repeated run idempotent.
	cancelled := r.cancelProducerLocked(ctx, p)

	admitted := Admit(cands, r.budgetLocked(ctx, p, log))

	scheduled := 0
	for _, c := range admitted {
		if _, err := r.prim.Schedule(ctx, c.Request); err != nil {
			if errors.Is(err, alerts.ErrQuotaExceeded) {
				log.Debug("quota reached; dropping candidate", logx.String("subject", c.SubjectID))
			} else {
				log.Warn("schedule failed; dropping candidate",
					logx.String("subject", c.SubjectID), logx.Err(err))
			}
			continue
		}
		scheduled++
	}

	log.Info("reconciled",
		logx.Int("candidates", len(cands)),
		logx.Int("admitted", len(admitted)),
		logx.Int("cancelled", cancelled),
		logx.Int("scheduled", scheduled))
}

// budgetLocked computes the producer's sub-budget for this run. Must run
// after the producer-scoped wipe so stale alerts don't count against it.
func (r *Reconciler) budgetLocked(ctx context.Context, p Producer, log logx.Logger) int {
	switch p {
	case ProducerRoutine:
		return r.cfg.Quota
	case ProducerExpiry:
		budget := r.cfg.ExpiryBudget
		pending, err := r.prim.Pending(ctx)
		if err != nil {
			log.Warn("pending lookup failed; using capped expiry budget", logx.Err(err))
			return budget
		}
		routines := 0
		for _, a := range pending {
			if a.Data.Type == PayloadRoutineReminder {
				routines++
			}
		}
		if rem := r.cfg.Quota - routines; rem < budget {
			budget = rem
		}
		if budget < 0 {
			budget = 0
		}
		return budget
	default:
		return 0
	}
}

// cancelProducerLocked removes every alert tagged with p's payload type and
// reports how many were cancelled.
func (r *Reconciler) cancelProducerLocked(ctx context.Context, p Producer) int {
	pending, err := r.prim.Pending(ctx)
	if err != nil {
		r.log.Warn("pending lookup failed; skipping producer wipe",
			logx.String("producer", string(p)), logx.Err(err))
		return 0
	}
	ids := make([]string, 0, len(pending))
	for _, a := range pending {
		if a.Data.Type == p.PayloadType() {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return 0
	}
	// Stale handles are treated as already cancelled by the primitive.
	if err := r.prim.Cancel(ctx, ids...); err != nil {
		r.log.Warn("producer wipe failed",
			logx.String("producer", string(p)), logx.Err(err))
		return 0
	}
	return len(ids)
}
