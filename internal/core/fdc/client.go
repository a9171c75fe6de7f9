// Package fdc is the FoodData Central API client. Every call is a single
// governed GET: the rate limiter is consulted first, the response is
// classified into an ErrorKind, and quota is recorded only for responses that
// were 200 and decoded cleanly.
package fdc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/namelens/nutrilens/internal/core"
	"github.com/namelens/nutrilens/internal/core/engine"
)

// CredentialSource yields the API key for each call.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// Limiter is the subset of engine.RateLimiter the client needs.
type Limiter interface {
	Check(ctx context.Context) engine.CheckResult
	Record(ctx context.Context) (core.UsageLedger, error)
}

// OutcomeFunc observes the terminal state of each call. kind is "" on success.
type OutcomeFunc func(kind ErrorKind, status int, duration time.Duration)

// Client issues governed requests against the FDC API.
type Client struct {
	HTTP        *http.Client
	Limiter     Limiter
	Credentials CredentialSource
	BaseURL     string
	Timeout     time.Duration
	UserAgent   string
	Logger      *logging.Logger
	OnOutcome   OutcomeFunc
}

// Do issues one GET to rawURL and decodes a 200 body into out.
// It never retries; every failure is returned as a *RequestError.
func (c *Client) Do(ctx context.Context, rawURL string, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	requestID := uuid.New().String()
	started := time.Now()

	if c.Limiter != nil {
		if check := c.Limiter.Check(ctx); check.Limited {
			return c.finish(requestID, started, &RequestError{Kind: KindRateLimited, URL: redact(rawURL), Message: check.Message})
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return c.finish(requestID, started, &RequestError{Kind: KindConnection, URL: redact(rawURL), Err: err})
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	c.debug("fdc request", zap.String("request_id", requestID), zap.String("url", redact(rawURL)))

	resp, err := c.httpClient().Do(req)
	if err != nil {
		kind := KindConnection
		if isTimeout(ctx, err) {
			kind = KindTimeout
		}
		return c.finish(requestID, started, &RequestError{Kind: kind, URL: redact(rawURL), Err: err})
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return c.finish(requestID, started, statusError(KindInvalidCredential, rawURL, resp))
	case http.StatusTooManyRequests:
		return c.finish(requestID, started, statusError(KindUpstreamRateLimited, rawURL, resp))
	default:
		return c.finish(requestID, started, statusError(KindUpstream, rawURL, resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := KindConnection
		if isTimeout(ctx, err) {
			kind = KindTimeout
		}
		return c.finish(requestID, started, &RequestError{Kind: kind, URL: redact(rawURL), Status: resp.StatusCode, Err: err})
	}

	if out == nil {
		var discard any
		out = &discard
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.finish(requestID, started, &RequestError{Kind: KindParse, URL: redact(rawURL), Status: resp.StatusCode, Err: err})
	}

	if c.Limiter != nil {
		if ledger, err := c.Limiter.Record(ctx); err != nil {
			c.warn("failed to record request usage", zap.String("request_id", requestID), zap.Error(err))
		} else {
			c.debug("usage recorded", zap.String("request_id", requestID), zap.Int("count", ledger.Count))
		}
	}

	return c.finish(requestID, started, nil)
}

func (c *Client) finish(requestID string, started time.Time, reqErr *RequestError) error {
	duration := time.Since(started)
	if reqErr == nil {
		c.observe("", http.StatusOK, duration)
		c.debug("fdc request succeeded", zap.String("request_id", requestID), zap.Duration("duration", duration))
		return nil
	}

	c.observe(reqErr.Kind, reqErr.Status, duration)
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("kind", string(reqErr.Kind)),
		zap.Duration("duration", duration),
	}
	if reqErr.Status != 0 {
		fields = append(fields, zap.Int("status", reqErr.Status))
	}
	if reqErr.Err != nil {
		fields = append(fields, zap.Error(reqErr.Err))
	}
	c.debug("fdc request failed", fields...)
	return reqErr
}

func statusError(kind ErrorKind, rawURL string, resp *http.Response) *RequestError {
	return &RequestError{
		Kind:       kind,
		URL:        redact(rawURL),
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
	}
}

// statusText mirrors the reason phrase from the status line, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return core.RequestTimeout
}

func (c *Client) observe(kind ErrorKind, status int, duration time.Duration) {
	if c.OnOutcome != nil {
		c.OnOutcome(kind, status, duration)
	}
}

func (c *Client) debug(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Debug(msg, fields...)
	}
}

func (c *Client) warn(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Warn(msg, fields...)
	}
}
