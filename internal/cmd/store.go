package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/namelens/nutrilens/internal/appid"
	"github.com/namelens/nutrilens/internal/config"
	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/core/engine"
	"github.com/namelens/nutrilens/internal/core/fdc"
	"github.com/namelens/nutrilens/internal/core/prefs"
	"github.com/namelens/nutrilens/internal/core/store"
	errwrap "github.com/namelens/nutrilens/internal/errors"
	"github.com/namelens/nutrilens/internal/metrics"
	"github.com/namelens/nutrilens/internal/observability"
)

// app bundles the preference store, limiter, and API client for one command run.
type app struct {
	cfg     *config.Config
	db      *store.Store
	prefs   *prefs.Store
	limiter *engine.RateLimiter
	client  *fdc.Client
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			return nil, errwrap.WrapConfigInvalid(ctx, err, "load config")
		}
		cfg = loaded
	}
	return newApp(ctx, cfg, ephemeral)
}

func newApp(ctx context.Context, cfg *config.Config, memory bool) (*app, error) {
	if cfg == nil {
		return nil, errors.New("config not loaded")
	}

	a := &app{cfg: cfg}

	var kv store.KV
	if memory {
		kv = store.NewMemory()
	} else {
		db, err := openStore(ctx, cfg.Store)
		if err != nil {
			return nil, errwrap.WrapDatabaseError(ctx, err, "open preference store")
		}
		a.db = db
		kv = db
	}

	a.prefs = prefs.New(kv)
	a.prefs.Window = cfg.API.RateWindow

	a.limiter = engine.NewRateLimiter(a.prefs)
	a.limiter.Limit = cfg.API.RateLimit
	a.limiter.Window = cfg.API.RateWindow
	a.limiter.Logger = observability.CLILogger
	a.limiter.Subscribe(func(ledger core.UsageLedger) {
		metrics.SetUsageCount(ledger.Count)
	})

	a.client = &fdc.Client{
		HTTP:        &http.Client{},
		Limiter:     a.limiter,
		Credentials: a.prefs,
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		UserAgent:   fmt.Sprintf("%s/%s", appid.Get().BinaryName, versionInfo.Version),
		Logger:      observability.CLILogger,
		OnOutcome:   recordOutcome,
	}

	return a, nil
}

func (a *app) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (*store.Store, error) {
	db, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func recordOutcome(kind fdc.ErrorKind, status int, duration time.Duration) {
	outcome := metrics.OutcomeSuccess
	if kind != "" {
		outcome = string(kind)
	}
	metrics.RecordRequest(outcome, status, duration)
}
