package alerts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "glowd/pkg/logx"
)

var (
	// ErrQuotaExceeded reports that the alert table is full. Expected under
	// normal operation; callers drop the alert and move on.
	ErrQuotaExceeded = errors.New("alerts: quota exceeded")

	// ErrPastTrigger reports a one-shot trigger that is not strictly in the
	// future. The reconciler filters these before scheduling; the engine
	// rejects them regardless.
	ErrPastTrigger = errors.New("alerts: one-shot trigger is in the past")
)

// Config controls the alert engine.
type Config struct {
	Quota    int    // max concurrently scheduled alerts (default 64)
	Timezone string // IANA TZ for weekly triggers; empty means process-local
}

const defaultQuota = 64

// Payload is the opaque data an alert carries from scheduling to delivery.
// It is the only link from a delivered (or tapped) alert back to the source
// record it was generated from.
type Payload struct {
	Type      string `json:"type"`
	SubjectID string `json:"subject_id"`
	Segment   string `json:"segment,omitempty"`
}

// Request is a schedule call: what to show, what to carry, when to fire.
type Request struct {
	Title   string
	Body    string
	Data    Payload
	Trigger Trigger
}

// Scheduled is one row of the engine's alert table. Sinks receive the full
// row, display fields included.
type Scheduled struct {
	ID      string
	Title   string
	Body    string
	Data    Payload
	Trigger Trigger
}

// Sink receives fired alerts. Delivery errors are logged by the engine and
// never retried; a failed delivery still consumes a one-shot entry.
type Sink interface {
	Deliver(ctx context.Context, a Scheduled) error
}

// entry is the engine-internal state for one scheduled alert. Either entryID
// (weekly, while running) or timer (once, while running) is armed; both are
// zero while the engine is stopped.
type entry struct {
	id      string
	req     Request
	entryID cron.EntryID
	timer   *time.Timer
}

// Engine is the local alert primitive. All methods are safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	log logx.Logger

	sink   Sink
	parser cron.Parser
	c      *cron.Cron
	loc    *time.Location

	entries map[string]*entry
	running bool

	runCtx    context.Context
	runCancel context.CancelFunc
}
