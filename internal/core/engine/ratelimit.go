package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/namelens/nutrilens/internal/core"
)

// LedgerStore persists the usage ledger.
type LedgerStore interface {
	UsageLedger(ctx context.Context) (core.UsageLedger, error)
	SetUsageLedger(ctx context.Context, ledger core.UsageLedger) error
}

// LedgerObserver is notified after every ledger write.
type LedgerObserver func(ledger core.UsageLedger)

// RateLimiter gates outbound requests against a fixed quota per window.
// It is advisory and client-local: it keeps this client under the upstream
// quota and is not an enforcement point.
type RateLimiter struct {
	Store  LedgerStore
	Limit  int
	Window time.Duration
	Clock  func() time.Time
	Logger *logging.Logger

	mu        sync.Mutex
	nextID    int
	observers []observerEntry
}

type observerEntry struct {
	id int
	fn LedgerObserver
}

// CheckResult reports whether a request may proceed.
type CheckResult struct {
	Limited bool
	Message string
	ResetAt time.Time
}

// UsageLevel buckets quota consumption for display.
type UsageLevel string

const (
	UsageNormal  UsageLevel = "normal"
	UsageWarning UsageLevel = "warning"
	UsageDanger  UsageLevel = "danger"
)

// Usage summarizes the current ledger against the limit.
type Usage struct {
	Count       int        `json:"count"`
	Limit       int        `json:"limit"`
	Remaining   int        `json:"remaining"`
	Percent     float64    `json:"percent"`
	WindowStart time.Time  `json:"window_start"`
	ResetAt     time.Time  `json:"reset_at"`
	Level       UsageLevel `json:"level"`
}

// ResetTimeLayout formats reset times in rate limit messages.
const ResetTimeLayout = "3:04:05 PM"

// NewRateLimiter returns a limiter with the FDC defaults.
func NewRateLimiter(store LedgerStore) *RateLimiter {
	return &RateLimiter{Store: store, Limit: core.RateLimit, Window: core.RateWindow}
}

// Check reports whether the quota for the current window is used up.
// Store read failures fail open.
func (r *RateLimiter) Check(ctx context.Context) CheckResult {
	if r == nil || r.Store == nil {
		return CheckResult{}
	}

	ledger, err := r.Store.UsageLedger(ctx)
	if err != nil {
		r.debug("usage ledger unreadable, allowing request", zap.Error(err))
	}

	resetAt := ledger.ResetAt(r.window())
	if ledger.Count >= r.limit() && r.now().Before(resetAt) {
		return CheckResult{
			Limited: true,
			Message: fmt.Sprintf("Rate limit reached. Resets at %s", resetAt.Local().Format(ResetTimeLayout)),
			ResetAt: resetAt,
		}
	}
	return CheckResult{ResetAt: resetAt}
}

// Record counts one consumed request and notifies observers.
func (r *RateLimiter) Record(ctx context.Context) (core.UsageLedger, error) {
	if r == nil || r.Store == nil {
		return core.UsageLedger{}, nil
	}

	ledger, err := r.Store.UsageLedger(ctx)
	if err != nil {
		r.debug("usage ledger unreadable, starting a new window", zap.Error(err))
	}
	ledger.Count++
	if ledger.WindowStart.IsZero() {
		ledger.WindowStart = r.now()
	}

	if err := r.Store.SetUsageLedger(ctx, ledger); err != nil {
		return ledger, err
	}
	r.notify(ledger)
	return ledger, nil
}

// Reset starts a new empty window now and notifies observers.
func (r *RateLimiter) Reset(ctx context.Context) (core.UsageLedger, error) {
	if r == nil || r.Store == nil {
		return core.UsageLedger{}, nil
	}

	ledger := core.NewLedger(r.now())
	if err := r.Store.SetUsageLedger(ctx, ledger); err != nil {
		return ledger, err
	}
	r.notify(ledger)
	return ledger, nil
}

// Usage reports consumption of the current window.
func (r *RateLimiter) Usage(ctx context.Context) (Usage, error) {
	if r == nil || r.Store == nil {
		return Usage{}, nil
	}

	ledger, err := r.Store.UsageLedger(ctx)
	limit := r.limit()
	percent := float64(ledger.Count) / float64(limit) * 100
	remaining := limit - ledger.Count
	if remaining < 0 {
		remaining = 0
	}

	level := UsageNormal
	switch {
	case percent >= 90:
		level = UsageDanger
	case percent >= 70:
		level = UsageWarning
	}

	return Usage{
		Count:       ledger.Count,
		Limit:       limit,
		Remaining:   remaining,
		Percent:     math.Min(percent, 100),
		WindowStart: ledger.WindowStart,
		ResetAt:     ledger.ResetAt(r.window()),
		Level:       level,
	}, err
}

// Subscribe registers fn for ledger change notifications. Observers run
// synchronously in subscription order. The returned func unsubscribes.
func (r *RateLimiter) Subscribe(fn LedgerObserver) func() {
	if r == nil || fn == nil {
		return func() {}
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.observers = append(r.observers, observerEntry{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, entry := range r.observers {
			if entry.id == id {
				r.observers = append(r.observers[:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

func (r *RateLimiter) notify(ledger core.UsageLedger) {
	r.mu.Lock()
	observers := make([]LedgerObserver, 0, len(r.observers))
	for _, entry := range r.observers {
		observers = append(observers, entry.fn)
	}
	r.mu.Unlock()

	for _, fn := range observers {
		fn(ledger)
	}
}

func (r *RateLimiter) limit() int {
	if r != nil && r.Limit > 0 {
		return r.Limit
	}
	return core.RateLimit
}

func (r *RateLimiter) window() time.Duration {
	if r != nil && r.Window > 0 {
		return r.Window
	}
	return core.RateWindow
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}

func (r *RateLimiter) debug(msg string, fields ...zap.Field) {
	if r != nil && r.Logger != nil {
		r.Logger.Debug(msg, fields...)
	}
}
