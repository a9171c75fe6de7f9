// Package prefs provides typed accessors over the preference key/value store:
// the API credential, nutrient display preferences, and the usage ledger.
//
// Reads and writes are not transactional. Two processes sharing one store can
// interleave a ledger read-increment-write and undercount usage; the ledger is
// advisory and that gap is accepted.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/core/store"
)

// Storage keys.
const (
	KeyCredential          = "credential"
	KeyUsageLedger         = "usage_ledger"
	KeyNutrientPreferences = "nutrient_preferences"
)

// Store exposes typed preference accessors over a KV medium.
type Store struct {
	KV     store.KV
	Window time.Duration
	Clock  func() time.Time
}

// New returns a Store using the default usage window.
func New(kv store.KV) *Store {
	return &Store{KV: kv, Window: core.RateWindow}
}

type ledgerRecord struct {
	Count         int   `json:"count"`
	WindowStartMS int64 `json:"window_start_ms"`
}

// Credential returns the stored API key, or "" when none is set.
func (s *Store) Credential(ctx context.Context) (string, error) {
	kv, err := s.kv()
	if err != nil {
		return "", err
	}
	value, ok, err := kv.GetValue(ctx, KeyCredential)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

// SetCredential overwrites the stored API key. The value is not validated.
func (s *Store) SetCredential(ctx context.Context, key string) error {
	kv, err := s.kv()
	if err != nil {
		return err
	}
	if err := kv.SetValue(ctx, KeyCredential, key); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// NutrientPreferences returns the stored display list, or the default list when unset.
func (s *Store) NutrientPreferences(ctx context.Context) ([]string, error) {
	kv, err := s.kv()
	if err != nil {
		return core.DefaultNutrientList(), err
	}
	value, ok, err := kv.GetValue(ctx, KeyNutrientPreferences)
	if err != nil {
		return core.DefaultNutrientList(), fmt.Errorf("read nutrient preferences: %w", err)
	}
	if !ok {
		return core.DefaultNutrientList(), nil
	}

	var list []string
	if err := json.Unmarshal([]byte(value), &list); err != nil {
		return core.DefaultNutrientList(), fmt.Errorf("decode nutrient preferences: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// SetNutrientPreferences overwrites the display list. Callers enforce the size cap.
func (s *Store) SetNutrientPreferences(ctx context.Context, list []string) error {
	kv, err := s.kv()
	if err != nil {
		return err
	}
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode nutrient preferences: %w", err)
	}
	if err := kv.SetValue(ctx, KeyNutrientPreferences, string(data)); err != nil {
		return fmt.Errorf("write nutrient preferences: %w", err)
	}
	return nil
}

// ResetNutrientPreferences removes the stored list so the default applies again.
func (s *Store) ResetNutrientPreferences(ctx context.Context) error {
	kv, err := s.kv()
	if err != nil {
		return err
	}
	if err := kv.DeleteValue(ctx, KeyNutrientPreferences); err != nil {
		return fmt.Errorf("reset nutrient preferences: %w", err)
	}
	return nil
}

// UsageLedger returns the stored ledger. A missing, undecodable, or expired
// ledger reads as a fresh {0, now} that is not written back; the window only
// restarts in storage on the next SetUsageLedger. On a read error the fresh
// ledger is returned alongside the error.
func (s *Store) UsageLedger(ctx context.Context) (core.UsageLedger, error) {
	now := s.now()
	fresh := core.NewLedger(now)

	kv, err := s.kv()
	if err != nil {
		return fresh, err
	}
	value, ok, err := kv.GetValue(ctx, KeyUsageLedger)
	if err != nil {
		return fresh, fmt.Errorf("read usage ledger: %w", err)
	}
	if !ok {
		return fresh, nil
	}

	var record ledgerRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return fresh, fmt.Errorf("decode usage ledger: %w", err)
	}

	ledger := core.UsageLedger{
		Count:       record.Count,
		WindowStart: time.UnixMilli(record.WindowStartMS).UTC(),
	}
	if ledger.Count < 0 || ledger.Expired(now, s.window()) {
		return fresh, nil
	}
	return ledger, nil
}

// SetUsageLedger overwrites the stored ledger.
func (s *Store) SetUsageLedger(ctx context.Context, ledger core.UsageLedger) error {
	kv, err := s.kv()
	if err != nil {
		return err
	}
	data, err := json.Marshal(ledgerRecord{
		Count:         ledger.Count,
		WindowStartMS: ledger.WindowStart.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode usage ledger: %w", err)
	}
	if err := kv.SetValue(ctx, KeyUsageLedger, string(data)); err != nil {
		return fmt.Errorf("write usage ledger: %w", err)
	}
	return nil
}

func (s *Store) kv() (store.KV, error) {
	if s == nil || s.KV == nil {
		return nil, errors.New("preference store is not initialized")
	}
	return s.KV, nil
}

func (s *Store) window() time.Duration {
	if s != nil && s.Window > 0 {
		return s.Window
	}
	return core.RateWindow
}

func (s *Store) now() time.Time {
	if s != nil && s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}
