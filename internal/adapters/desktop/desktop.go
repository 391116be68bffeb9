package desktop

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/time/rate"

	"glowd/internal/alerts"

	logx "glowd/pkg/logx"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"
	probeMethod  = "org.freedesktop.Notifications.GetServerInformation"

	defaultAppName    = "glowd"
	defaultRatePerSec = 4
	defaultProbeTTL   = 30 * time.Second
	defaultTapAction  = "default"
)

type Config struct {
	AppName string

	// RatePerSec caps notification posts; bursts beyond it are dropped, not
	// queued, so a misbehaving trigger storm cannot flood the daemon.
	RatePerSec float64
	ProbeTTL   time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.AppName) == "" {
		c.AppName = defaultAppName
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = defaultRatePerSec
	}
	if c.ProbeTTL <= 0 {
		c.ProbeTTL = defaultProbeTTL
	}
	return c
}

// Adapter posts alerts to the session notification daemon and routes action
// taps back into the application.
type Adapter struct {
	cfg  Config
	log  logx.Logger
	conn *dbus.Conn

	limiter *rate.Limiter

	// onTap receives the payload of a tapped notification. Set before Start.
	onTap func(alerts.Payload)

	mu     sync.Mutex
	posted map[uint32]alerts.Payload

	probeMu sync.Mutex
	probeAt time.Time
	probeOK bool

	runMu     sync.Mutex
	running   bool
	runCancel context.CancelFunc
	runWG     sync.WaitGroup
	signals   chan *dbus.Signal
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	cfg = cfg.withDefaults()
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &Adapter{
		cfg:     cfg,
		log:     log,
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), int(cfg.RatePerSec)+1),
		posted:  make(map[uint32]alerts.Payload),
	}, nil
}

// SetTapHandler registers the callback invoked when the user activates a
// posted notification. Must be called before Start.
func (a *Adapter) SetTapHandler(fn func(alerts.Payload)) {
	a.onTap = fn
}

// Start subscribes to the daemon's action signals and begins dispatching
// taps. Delivery itself needs no Start; it works as soon as New returns.
func (a *Adapter) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.running {
		return nil
	}

	if err := a.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbus.ObjectPath(notifyPath)),
		dbus.WithMatchInterface(notifyDest),
	); err != nil {
		return err
	}

	rctx, cancel := context.WithCancel(ctx)
	a.runCancel = cancel
	a.signals = make(chan *dbus.Signal, 16)
	a.conn.Signal(a.signals)
	a.running = true

	a.runWG.Add(1)
	go func() {
		defer a.runWG.Done()
		a.signalLoop(rctx)
	}()

	a.log.Info("notification signal loop started", logx.String("app", a.cfg.AppName))
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	cancel := a.runCancel
	a.runCancel = nil
	wasRunning := a.running
	a.running = false
	a.runMu.Unlock()

	if !wasRunning {
		return nil
	}
	if cancel != nil {
		cancel()
	}
	a.conn.RemoveSignal(a.signals)

	done := make(chan struct{})
	go func() {
		a.runWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Adapter) Close() error {
	return a.conn.Close()
}

// Deliver posts one alert to the notification daemon. Posts beyond the rate
// cap are dropped with a warning; the alert table stays authoritative and a
// later reconcile run will not resurrect a dropped one-shot, which is the
// acceptable cost of not flooding the daemon.
func (a *Adapter) Deliver(ctx context.Context, al alerts.Scheduled) error {
	if !a.limiter.Allow() {
		a.log.Warn("notification rate cap hit; dropping post",
			logx.String("id", al.ID),
			logx.String("type", al.Data.Type))
		return nil
	}

	obj := a.conn.Object(notifyDest, notifyPath)
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		a.cfg.AppName,
		uint32(0),
		"",
		al.Title,
		al.Body,
		[]string{defaultTapAction, "Open"},
		map[string]dbus.Variant{},
		int32(-1),
	)
	if call.Err != nil {
		return call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return err
	}

	a.mu.Lock()
	a.posted[id] = al.Data
	a.mu.Unlock()

	a.log.Debug("notification posted",
		logx.String("id", al.ID),
		logx.String("type", al.Data.Type),
		logx.Any("dbus_id", id))
	return nil
}

// Authorized probes the notification daemon and caches the verdict for the
// configured TTL. Any failure counts as denied.
func (a *Adapter) Authorized(ctx context.Context) bool {
	a.probeMu.Lock()
	defer a.probeMu.Unlock()

	if !a.probeAt.IsZero() && time.Since(a.probeAt) < a.cfg.ProbeTTL {
		return a.probeOK
	}

	var name, vendor, version, spec string
	obj := a.conn.Object(notifyDest, notifyPath)
	err := obj.CallWithContext(ctx, probeMethod, 0).Store(&name, &vendor, &version, &spec)

	a.probeAt = time.Now()
	a.probeOK = err == nil
	if err != nil {
		a.log.Warn("notification daemon probe failed; treating as denied", logx.Err(err))
	} else {
		a.log.Debug("notification daemon probe ok",
			logx.String("daemon", name),
			logx.String("vendor", vendor))
	}
	return a.probeOK
}

func (a *Adapter) signalLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-a.signals:
			if !ok {
				return
			}
			a.handleSignal(sig)
		}
	}
}

func (a *Adapter) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case notifyDest + ".ActionInvoked":
		if len(sig.Body) < 2 {
			return
		}
		id, ok1 := sig.Body[0].(uint32)
		action, ok2 := sig.Body[1].(string)
		if !ok1 || !ok2 || action != defaultTapAction {
			return
		}
		a.mu.Lock()
		payload, known := a.posted[id]
		delete(a.posted, id)
		a.mu.Unlock()
		if !known {
			return
		}
		a.log.Debug("notification tapped",
			logx.String("type", payload.Type),
			logx.String("subject", payload.SubjectID))
		if a.onTap != nil {
			a.onTap(payload)
		}
	case notifyDest + ".NotificationClosed":
		if len(sig.Body) < 1 {
			return
		}
		id, ok := sig.Body[0].(uint32)
		if !ok {
			return
		}
		a.mu.Lock()
		delete(a.posted, id)
		a.mu.Unlock()
	}
}
