package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/core/prefs"
	"github.com/namelens/nutrilens/internal/core/store"
)

type memoryLedgerStore struct {
	ledger  *core.UsageLedger
	clock   func() time.Time
	readErr error
	writes  int
}

func (m *memoryLedgerStore) UsageLedger(ctx context.Context) (core.UsageLedger, error) {
	fresh := core.NewLedger(m.clock())
	if m.readErr != nil {
		return fresh, m.readErr
	}
	if m.ledger == nil || m.ledger.Expired(m.clock(), core.RateWindow) {
		return fresh, nil
	}
	return *m.ledger, nil
}

func (m *memoryLedgerStore) SetUsageLedger(ctx context.Context, ledger core.UsageLedger) error {
	m.writes++
	m.ledger = &ledger
	return nil
}

func newLimiter(now *time.Time) (*RateLimiter, *prefs.Store) {
	clock := func() time.Time { return *now }
	p := prefs.New(store.NewMemory())
	p.Clock = clock
	limiter := NewRateLimiter(p)
	limiter.Clock = clock
	return limiter, p
}

func TestRateLimiterScenarioA(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter, p := newLimiter(&now)

	start := now.Add(-1000 * time.Millisecond)
	require.NoError(t, p.SetUsageLedger(ctx, core.UsageLedger{Count: 999, WindowStart: start}))

	require.False(t, limiter.Check(ctx).Limited)

	ledger, err := limiter.Record(ctx)
	require.NoError(t, err)
	require.Equal(t, 1000, ledger.Count)
	require.True(t, start.Equal(ledger.WindowStart))

	result := limiter.Check(ctx)
	require.True(t, result.Limited)
	require.Contains(t, result.Message, "Rate limit reached. Resets at ")
	require.True(t, start.Add(time.Hour).Equal(result.ResetAt))
}

func TestRateLimiterScenarioB(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter, p := newLimiter(&now)

	require.NoError(t, p.SetUsageLedger(ctx, core.UsageLedger{Count: 1000, WindowStart: now.Add(-3700 * time.Second)}))

	ledger, err := p.UsageLedger(ctx)
	require.NoError(t, err)
	require.Equal(t, core.UsageLedger{Count: 0, WindowStart: now}, ledger)
	require.False(t, limiter.Check(ctx).Limited)
}

func TestRateLimiterBelowAndAtLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	mem := &memoryLedgerStore{clock: func() time.Time { return now }}
	limiter := &RateLimiter{Store: mem, Limit: 1000, Window: time.Hour, Clock: mem.clock}

	for _, count := range []int{0, 1, 500, 999} {
		mem.ledger = &core.UsageLedger{Count: count, WindowStart: now.Add(-59 * time.Minute)}
		require.False(t, limiter.Check(ctx).Limited, "count %d", count)
	}
	for _, count := range []int{1000, 1001, 5000} {
		mem.ledger = &core.UsageLedger{Count: count, WindowStart: now.Add(-59 * time.Minute)}
		require.True(t, limiter.Check(ctx).Limited, "count %d", count)
	}
}

func TestRateLimiterResetUnblocks(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter, p := newLimiter(&now)

	require.NoError(t, p.SetUsageLedger(ctx, core.UsageLedger{Count: 4000, WindowStart: now.Add(-time.Minute)}))
	require.True(t, limiter.Check(ctx).Limited)

	ledger, err := limiter.Reset(ctx)
	require.NoError(t, err)
	require.Equal(t, core.NewLedger(now), ledger)
	require.False(t, limiter.Check(ctx).Limited)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	mem := &memoryLedgerStore{
		clock:   func() time.Time { return now },
		readErr: errors.New("locked"),
		ledger:  &core.UsageLedger{Count: 5000, WindowStart: now},
	}
	limiter := &RateLimiter{Store: mem, Limit: 10, Clock: mem.clock}

	require.False(t, limiter.Check(ctx).Limited)
}

func TestRateLimiterCustomLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	mem := &memoryLedgerStore{clock: func() time.Time { return now }}
	limiter := &RateLimiter{Store: mem, Limit: 1, Window: time.Minute, Clock: mem.clock}

	require.False(t, limiter.Check(ctx).Limited)
	_, err := limiter.Record(ctx)
	require.NoError(t, err)

	result := limiter.Check(ctx)
	require.True(t, result.Limited)
	require.Equal(t, now.Add(time.Minute), result.ResetAt)
}

func TestRateLimiterObservers(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter, _ := newLimiter(&now)

	var first, second []core.UsageLedger
	unsubscribe := limiter.Subscribe(func(l core.UsageLedger) { first = append(first, l) })
	limiter.Subscribe(func(l core.UsageLedger) { second = append(second, l) })

	_, err := limiter.Record(ctx)
	require.NoError(t, err)
	_, err = limiter.Record(ctx)
	require.NoError(t, err)

	unsubscribe()
	_, err = limiter.Reset(ctx)
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Equal(t, 2, first[1].Count)
	require.Len(t, second, 3)
	require.Equal(t, core.NewLedger(now), second[2])
}

func TestRateLimiterCheckDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	mem := &memoryLedgerStore{clock: func() time.Time { return now }}
	limiter := &RateLimiter{Store: mem, Clock: mem.clock}

	limiter.Check(ctx)
	_, _ = limiter.Usage(ctx)
	require.Equal(t, 0, mem.writes)
}

func TestRateLimiterUsageLevels(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	mem := &memoryLedgerStore{clock: func() time.Time { return now }}
	limiter := &RateLimiter{Store: mem, Limit: 100, Window: time.Hour, Clock: mem.clock}

	cases := []struct {
		count     int
		level     UsageLevel
		remaining int
		percent   float64
	}{
		{0, UsageNormal, 100, 0},
		{69, UsageNormal, 31, 69},
		{70, UsageWarning, 30, 70},
		{90, UsageDanger, 10, 90},
		{150, UsageDanger, 0, 100},
	}
	for _, tc := range cases {
		mem.ledger = &core.UsageLedger{Count: tc.count, WindowStart: now}
		usage, err := limiter.Usage(ctx)
		require.NoError(t, err)
		require.Equal(t, tc.level, usage.Level, "count %d", tc.count)
		require.Equal(t, tc.remaining, usage.Remaining)
		require.InDelta(t, tc.percent, usage.Percent, 0.001)
		require.Equal(t, now.Add(time.Hour), usage.ResetAt)
	}
}

func TestNilRateLimiter(t *testing.T) {
	var limiter *RateLimiter
	require.False(t, limiter.Check(context.Background()).Limited)
	_, err := limiter.Record(context.Background())
	require.NoError(t, err)
	limiter.Subscribe(func(core.UsageLedger) {})()
}
