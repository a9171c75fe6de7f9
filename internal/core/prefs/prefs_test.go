package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/core/store"
)

type failingKV struct{}

func (failingKV) GetValue(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (failingKV) SetValue(ctx context.Context, key, value string) error {
	return errors.New("disk on fire")
}

func (failingKV) DeleteValue(ctx context.Context, key string) error {
	return errors.New("disk on fire")
}

func (failingKV) ListValues(ctx context.Context) ([]store.Entry, error) {
	return nil, errors.New("disk on fire")
}

func newTestStore(now *time.Time) *Store {
	s := New(store.NewMemory())
	s.Clock = func() time.Time { return *now }
	return s
}

func TestCredential(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(&now)

	key, err := s.Credential(ctx)
	require.NoError(t, err)
	require.Equal(t, "", key)

	require.NoError(t, s.SetCredential(ctx, "  not validated  "))
	key, err = s.Credential(ctx)
	require.NoError(t, err)
	require.Equal(t, "  not validated  ", key)
}

func TestNutrientPreferences(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(&now)

	list, err := s.NutrientPreferences(ctx)
	require.NoError(t, err)
	require.Equal(t, core.DefaultNutrients, list)

	custom := []string{"Caffeine", "Iron", "Iron"}
	require.NoError(t, s.SetNutrientPreferences(ctx, custom))
	list, err = s.NutrientPreferences(ctx)
	require.NoError(t, err)
	require.Equal(t, custom, list)

	require.NoError(t, s.SetNutrientPreferences(ctx, nil))
	list, err = s.NutrientPreferences(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	require.NoError(t, s.ResetNutrientPreferences(ctx))
	list, err = s.NutrientPreferences(ctx)
	require.NoError(t, err)
	require.Equal(t, core.DefaultNutrients, list)
}

func TestUsageLedgerAbsentReadsFresh(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(&now)

	ledger, err := s.UsageLedger(ctx)
	require.NoError(t, err)
	require.Equal(t, core.UsageLedger{Count: 0, WindowStart: now}, ledger)

	_, ok, err := s.KV.GetValue(ctx, KeyUsageLedger)
	require.NoError(t, err)
	require.False(t, ok, "fresh ledger must not be persisted on read")
}

func TestUsageLedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(&now)

	start := now.Add(-1000 * time.Millisecond)
	require.NoError(t, s.SetUsageLedger(ctx, core.UsageLedger{Count: 999, WindowStart: start}))

	ledger, err := s.UsageLedger(ctx)
	require.NoError(t, err)
	require.Equal(t, 999, ledger.Count)
	require.True(t, start.Equal(ledger.WindowStart))
}

func TestUsageLedgerExpiredSoftReset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)
	s := newTestStore(&now)

	stale := core.UsageLedger{Count: 1000, WindowStart: now.Add(-3700 * time.Second)}
	require.NoError(t, s.SetUsageLedger(ctx, stale))

	for i := 0; i < 2; i++ {
		ledger, err := s.UsageLedger(ctx)
		require.NoError(t, err)
		require.Equal(t, 0, ledger.Count)
		require.True(t, now.Equal(ledger.WindowStart))
	}

	raw, ok, err := s.KV.GetValue(ctx, KeyUsageLedger)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, raw, `"count":1000`, "stale read must leave storage untouched")
}

func TestUsageLedgerExpiresAtBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	s := newTestStore(&now)

	require.NoError(t, s.SetUsageLedger(ctx, core.UsageLedger{Count: 5, WindowStart: now.Add(-time.Hour)}))
	ledger, err := s.UsageLedger(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, ledger.Count)
}

func TestUsageLedgerCorruptReadsFresh(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestStore(&now)

	require.NoError(t, s.KV.SetValue(ctx, KeyUsageLedger, "{not json"))
	ledger, err := s.UsageLedger(ctx)
	require.Error(t, err)
	require.Equal(t, core.NewLedger(now), ledger)
}

func TestReadFailuresReturnDefaults(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Store{KV: failingKV{}, Clock: func() time.Time { return now }}

	ledger, err := s.UsageLedger(ctx)
	require.Error(t, err)
	require.Equal(t, core.NewLedger(now), ledger)

	list, err := s.NutrientPreferences(ctx)
	require.Error(t, err)
	require.Equal(t, core.DefaultNutrients, list)

	_, err = s.Credential(ctx)
	require.Error(t, err)
	require.Error(t, s.SetCredential(ctx, "x"))
}

func TestNilStore(t *testing.T) {
	var s *Store
	_, err := s.Credential(context.Background())
	require.Error(t, err)
}
