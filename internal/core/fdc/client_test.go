package fdc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/core/engine"
	"github.com/namelens/nutrilens/internal/core/prefs"
	"github.com/namelens/nutrilens/internal/core/store"
)

type fixture struct {
	client  *Client
	prefs   *prefs.Store
	limiter *engine.RateLimiter
	calls   *atomic.Int32
	server  *httptest.Server
	now     time.Time
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()

	f := &fixture{calls: &atomic.Int32{}, now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)

	clock := func() time.Time { return f.now }
	f.prefs = prefs.New(store.NewMemory())
	f.prefs.Clock = clock
	f.limiter = engine.NewRateLimiter(f.prefs)
	f.limiter.Clock = clock

	require.NoError(t, f.prefs.SetCredential(context.Background(), "test-key"))

	f.client = &Client{
		HTTP:        f.server.Client(),
		Limiter:     f.limiter,
		Credentials: f.prefs,
		BaseURL:     f.server.URL,
	}
	return f
}

func (f *fixture) ledger(t *testing.T) core.UsageLedger {
	t.Helper()
	ledger, err := f.prefs.UsageLedger(context.Background())
	require.NoError(t, err)
	return ledger
}

func writeJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestDoRateLimitedSkipsNetwork(t *testing.T) {
	f := newFixture(t, writeJSON(`{}`))
	ctx := context.Background()
	start := f.now.Add(-10 * time.Minute)
	require.NoError(t, f.prefs.SetUsageLedger(ctx, core.UsageLedger{Count: 1000, WindowStart: start}))

	err := f.client.Do(ctx, f.server.URL+"/foods/search?query=x", nil)
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, KindRateLimited, reqErr.Kind)
	assert.Contains(t, reqErr.UserMessage(), "Rate limit reached. Resets at ")
	assert.True(t, reqErr.NeedsSettings())
	assert.Equal(t, int32(0), f.calls.Load())
	assert.Equal(t, 1000, f.ledger(t).Count)
}

func TestDoInvalidCredentialLeavesLedger(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	ctx := context.Background()
	require.NoError(t, f.prefs.SetUsageLedger(ctx, core.UsageLedger{Count: 5, WindowStart: f.now.Add(-time.Minute)}))

	err := f.client.Do(ctx, f.server.URL+"/foods/search", nil)
	require.True(t, IsKind(err, KindInvalidCredential))
	assert.Equal(t, "Invalid API key", err.(*RequestError).UserMessage())
	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, 5, f.ledger(t).Count)
}

func TestDoSuccessRecordsUsage(t *testing.T) {
	f := newFixture(t, writeJSON(`{"foods":[]}`))
	ctx := context.Background()
	require.NoError(t, f.prefs.SetUsageLedger(ctx, core.UsageLedger{Count: 5, WindowStart: f.now.Add(-time.Minute)}))

	var result core.SearchResult
	require.NoError(t, f.client.Do(ctx, f.server.URL+"/foods/search", &result))
	assert.Equal(t, 6, f.ledger(t).Count)
	assert.Empty(t, result.Foods)
}

func TestDoStatusKinds(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		kind    ErrorKind
		message string
	}{
		{name: "upstream rate limit", status: http.StatusTooManyRequests, kind: KindUpstreamRateLimited, message: "Rate limit exceeded"},
		{name: "server error", status: http.StatusInternalServerError, kind: KindUpstream, message: "API error (500): Internal Server Error"},
		{name: "not found", status: http.StatusNotFound, kind: KindUpstream, message: "API error (404): Not Found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			err := f.client.Do(context.Background(), f.server.URL+"/x", nil)

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tc.kind, reqErr.Kind)
			assert.Equal(t, tc.status, reqErr.Status)
			assert.Equal(t, tc.message, reqErr.UserMessage())
			assert.Equal(t, 0, f.ledger(t).Count)
		})
	}
}

func TestDoParseErrorLeavesLedger(t *testing.T) {
	f := newFixture(t, writeJSON(`{not json`))

	var result core.SearchResult
	err := f.client.Do(context.Background(), f.server.URL+"/x", &result)
	require.True(t, IsKind(err, KindParse))
	assert.Equal(t, "Error parsing API response", err.(*RequestError).UserMessage())
	assert.Equal(t, 0, f.ledger(t).Count)
}

func TestDoTimeout(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	f.client.Timeout = 20 * time.Millisecond

	err := f.client.Do(context.Background(), f.server.URL+"/slow", nil)
	require.True(t, IsKind(err, KindTimeout), "got %v", err)
	assert.Equal(t, "Connection timeout", err.(*RequestError).UserMessage())
	assert.Equal(t, 0, f.ledger(t).Count)
}

func TestDoConnectionError(t *testing.T) {
	f := newFixture(t, writeJSON(`{}`))
	url := f.server.URL + "/x"
	f.server.Close()

	err := f.client.Do(context.Background(), url, nil)
	require.True(t, IsKind(err, KindConnection), "got %v", err)
	assert.Equal(t, "Connection error", err.(*RequestError).UserMessage())
	assert.False(t, err.(*RequestError).NeedsSettings())
}

func TestDoCountsOnlySuccesses(t *testing.T) {
	var n atomic.Int32
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1)%3 == 0 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(`{}`)(w, r)
	})

	successes := 0
	for i := 0; i < 9; i++ {
		if err := f.client.Do(context.Background(), f.server.URL+"/x", nil); err == nil {
			successes++
		}
	}
	assert.Equal(t, 6, successes)
	assert.Equal(t, 6, f.ledger(t).Count)
	assert.Equal(t, int32(9), f.calls.Load())
}

func TestDoRecordFailureDoesNotFailCall(t *testing.T) {
	f := newFixture(t, writeJSON(`{}`))
	f.client.Limiter = failingRecorder{}

	require.NoError(t, f.client.Do(context.Background(), f.server.URL+"/x", nil))
}

func TestDoReportsOutcome(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	var got []ErrorKind
	f.client.OnOutcome = func(kind ErrorKind, status int, _ time.Duration) {
		got = append(got, kind)
	}

	_ = f.client.Do(context.Background(), f.server.URL+"/x", nil)
	assert.Equal(t, []ErrorKind{KindInvalidCredential}, got)
}

func TestRequestErrorRedactsKey(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	err := f.client.Do(context.Background(), f.server.URL+"/x?api_key=secret", nil)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.NotContains(t, reqErr.URL, "secret")
	assert.Contains(t, reqErr.URL, "api_key=REDACTED")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("boom")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

type failingRecorder struct{}

func (failingRecorder) Check(ctx context.Context) engine.CheckResult { return engine.CheckResult{} }

func (failingRecorder) Record(ctx context.Context) (core.UsageLedger, error) {
	return core.UsageLedger{}, errors.New("disk full")
}
