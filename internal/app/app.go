package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glowd/internal/adapters/desktop"
	"glowd/internal/alerts"
	"glowd/internal/config"
	"glowd/internal/sched"
	"glowd/internal/storage"

	logx "glowd/pkg/logx"
)

type reconcileRequest struct {
	all      bool
	producer sched.Producer
}

type App struct {
	cfgPath string
	cfgm    *config.Manager

	log  logx.Logger
	logs *logx.Service

	store    storage.Store
	delivery *desktop.Adapter
	engine   *alerts.Engine
	rec      *sched.Reconciler

	sup *Supervisor

	// reconcileCh funnels every reconcile trigger through one consumer
	// goroutine. A full request in the queue already covers anything a
	// dropped request would have done, so enqueueing never blocks.
	reconcileCh chan reconcileRequest
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	dc, err := mapDeliveryConfig(cfg)
	if err != nil {
		return nil, err
	}
	delivery, err := desktop.New(dc, log.With(logx.String("comp", "delivery")))
	if err != nil {
		return nil, err
	}

	engine := alerts.New(mapEngineConfig(cfg), delivery, log.With(logx.String("comp", "alerts")))
	rec := sched.NewReconciler(mapReconcilerConfig(cfg), store, engine, delivery,
		log.With(logx.String("comp", "sched")))

	a := &App{
		cfgPath:     cfgPath,
		cfgm:        cfgm,
		log:         log,
		logs:        logSvc,
		store:       store,
		delivery:    delivery,
		engine:      engine,
		rec:         rec,
		reconcileCh: make(chan reconcileRequest, 16),
	}

	delivery.SetTapHandler(func(p alerts.Payload) {
		dest := sched.Route(p)
		a.log.Info("alert tapped",
			logx.String("screen", dest.Screen),
			logx.String("subject", dest.SubjectID),
			logx.String("segment", string(dest.Segment)))
	})

	return a, nil
}

// Store exposes the persistence layer for the data-mutation surface.
func (a *App) Store() storage.Store { return a.store }

// Done is closed when the app supervisor context is canceled.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// RequestReconcile triggers one producer's reconcile run.
func (a *App) RequestReconcile(p sched.Producer) {
	a.enqueue(reconcileRequest{producer: p})
}

// RequestReconcileAll triggers a full rebuild of both producers.
func (a *App) RequestReconcileAll() {
	a.enqueue(reconcileRequest{all: true})
}

func (a *App) enqueue(req reconcileRequest) {
	select {
	case a.reconcileCh <- req:
	default:
		// Queue full means runs are already lined up; the latest data wins
		// on whichever run executes next.
		a.log.Debug("reconcile queue full; request coalesced")
	}
}

// SignOut cancels every scheduled alert. The data store is left alone; a
// later sign-in reconverges with a single full reconcile.
func (a *App) SignOut(ctx context.Context) {
	a.rec.CancelAll(ctx)
}

func (a *App) Start(ctx context.Context) error {
	a.sup = NewSupervisor(ctx, a.log)

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		if cfg.Alerts.Quota < 0 {
			return fmt.Errorf("alerts.quota must be >= 0")
		}
		if cfg.Alerts.ExpiryBudget < 0 {
			return fmt.Errorf("alerts.expiry_budget must be >= 0")
		}
		if cfg.Alerts.Delivery.RatePerSec < 0 {
			return fmt.Errorf("alerts.delivery.rate_per_sec must be >= 0")
		}
		if tz := strings.TrimSpace(cfg.Alerts.Timezone); tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return fmt.Errorf("alerts.timezone: invalid %q: %w", tz, err)
			}
		}
		if _, err := mapDeliveryConfig(cfg); err != nil {
			return err
		}
		if _, err := mapStorageConfig(cfg); err != nil {
			return err
		}
		return nil
	})

	if err := a.delivery.Start(a.sup.Context()); err != nil {
		return err
	}
	a.engine.Start(a.sup.Context())

	a.sup.Go0("reconcile.loop", func(c context.Context) {
		for {
			select {
			case <-c.Done():
				return
			case req := <-a.reconcileCh:
				if req.all {
					a.rec.ReconcileAll(c)
				} else {
					a.rec.Reconcile(c, req.producer)
				}
			}
		}
	})

	// Startup convergence: whatever the previous process left scheduled is
	// replaced by what the current data implies.
	a.RequestReconcileAll()

	// Hot reload config fan-out.
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				sections, attrs := config.SummarizeChange(lastApplied, newCfg)
				lastApplied = newCfg
				if len(sections) == 0 {
					a.log.Debug("config reload received, but no effective changes detected")
					continue
				}

				for _, s := range sections {
					switch s {
					case "storage":
						a.log.Warn("storage config changed; restart required for changes to take effect")
					case "alerts.delivery":
						a.log.Warn("delivery config changed; restart required for changes to take effect")
					}
				}

				a.logs.Apply(mapLoggingConfig(newCfg))
				a.engine.Apply(mapEngineConfig(newCfg))
				a.rec.Apply(mapReconcilerConfig(newCfg))

				// A quota or timezone change can invalidate the current alert
				// table wholesale; one full run converges it.
				a.RequestReconcileAll()

				fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
				a.log.Info("config reloaded", fields...)
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

// Stop shuts the app down; it also releases resources when Start was never
// called, so a failed startup can still close the store and the bus.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// Cancel the run context first so background loops start unwinding.
	if a.sup != nil {
		a.sup.Cancel()
	}

	// Run each shutdown step with an upper bound so one component cannot
	// stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			if dl, ok := ctx.Deadline(); ok {
				if rem := time.Until(dl); rem > 0 && rem < max {
					max = rem
				}
			}
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name), logx.Err(stepCtx.Err()))
		}
	}

	step("alerts", 2*time.Second, func(c context.Context) error { a.engine.Stop(c); return nil })
	step("delivery", 2*time.Second, func(c context.Context) error { return a.delivery.Stop(c) })
	step("delivery.close", time.Second, func(c context.Context) error { return a.delivery.Close() })
	step("storage", time.Second, func(c context.Context) error { return a.store.Close() })
	if a.sup != nil {
		step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	}

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}
