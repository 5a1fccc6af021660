// Package providerhttp is the GET-and-decode transport shared by the source
// adapters. It owns retries, the circuit breaker and status classification;
// adapters only build paths and map payloads.
package providerhttp

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/football-sync/internal/platform/cache"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/resilience"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

const (
	maxBodyBytes     = 6 << 20
	defaultTimeout   = 30 * time.Second
	defaultRetryStep = time.Second
)

var errTransient = crerr.New("provider transient failure")

type Config struct {
	Source     usecase.Source
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// RetryStep is multiplied by the attempt number between transient
	// retries.
	RetryStep  time.Duration
	UserAgent  string
	Headers    map[string]string
	HTTPClient *http.Client
	Logger     *logging.Logger
	Breaker    resilience.BreakerConfig
	// Pacer is acquired before every retry so retries count against the
	// source's request budget. The first attempt is paced by the caller.
	Pacer usecase.Limiter
	// Secrets are scrubbed from error text and logs.
	Secrets []string
	// CacheTTL keeps successful response bodies for repeated GETs of the same
	// URL. Zero disables the cache; in-flight duplicates are still shared.
	CacheTTL time.Duration
}

type Client struct {
	source     usecase.Source
	httpClient *http.Client
	baseURL    string
	maxRetries int
	retryStep  time.Duration
	userAgent  string
	headers    map[string]string
	secrets    []string
	logger     *logging.Logger
	breaker    *resilience.Breaker
	pacer      usecase.Limiter
	loadBudget time.Duration
	flight     singleflight.Group
	cache      *cache.Store[[]byte]
}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}
	retryStep := cfg.RetryStep
	if retryStep <= 0 {
		retryStep = defaultRetryStep
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		if strings.TrimSpace(v) != "" {
			headers[k] = strings.TrimSpace(v)
		}
	}
	secrets := make([]string, 0, len(cfg.Secrets))
	for _, s := range cfg.Secrets {
		if strings.TrimSpace(s) != "" {
			secrets = append(secrets, strings.TrimSpace(s))
		}
	}

	var responses *cache.Store[[]byte]
	if cfg.CacheTTL > 0 {
		responses = cache.New[[]byte](cfg.CacheTTL)
	}

	logger = logger.Named(string(cfg.Source))
	breaker := resilience.NewBreaker(string(cfg.Source), cfg.Breaker)
	breaker.OnStateChange(func(name string, from, to resilience.State) {
		if to == resilience.StateOpen {
			logger.Warn("provider circuit opened", "source", name, "from", string(from))
			return
		}
		logger.Info("provider circuit state changed", "source", name, "from", string(from), "to", string(to))
	})

	maxRetries := max(cfg.MaxRetries, 0)
	// A shared load may run every attempt to its timeout and sleep every
	// backoff, plus the same again for pacer waits.
	attempts := time.Duration(maxRetries + 1)
	loadBudget := 2 * (attempts*httpClient.Timeout + attempts*(attempts-1)/2*retryStep)

	return &Client{
		source:     cfg.Source,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		maxRetries: maxRetries,
		retryStep:  retryStep,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		headers:    headers,
		secrets:    secrets,
		logger:     logger,
		breaker:    breaker,
		pacer:      cfg.Pacer,
		loadBudget: loadBudget,
		cache:      responses,
	}
}

// PurgeCache drops cached responses and logs how useful they were.
func (c *Client) PurgeCache() {
	if c.cache == nil {
		return
	}
	stats := c.cache.Purge()
	if stats.Hits+stats.Misses == 0 {
		return
	}
	c.logger.Debug("provider response cache purged",
		"entries", stats.Entries,
		"hits", stats.Hits,
		"misses", stats.Misses,
		"loads", stats.Loads,
	)
}

// GetJSON fetches baseURL+path and decodes the body into target.
//
// Errors are classified for the orchestrator: an open breaker and 401/403
// are usecase.ErrSourceUnavailable, 429 is a *usecase.RateLimitedError and
// 404 is usecase.ErrNotFound. Anything else is an item-level failure.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, target any) error {
	if err := c.breaker.Allow(); err != nil {
		return fmt.Errorf("%w: %w", usecase.ErrSourceUnavailable, err)
	}

	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// The load is shared by every caller waiting on fullURL, so it must not
	// die with whichever caller happened to start it.
	load := func(ctx context.Context) ([]byte, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadBudget)
		defer cancel()
		raw, reqErr := c.executeRequest(ctx, fullURL)
		c.recordCircuitResult(reqErr)
		return raw, reqErr
	}
	var (
		raw []byte
		err error
	)
	if c.cache != nil {
		raw, err = c.cache.GetOrLoad(ctx, fullURL, load)
	} else {
		ch := c.flight.DoChan(fullURL, func() (any, error) { return load(ctx) })
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-ch:
			raw, _ = res.Val.([]byte)
			err = res.Err
		}
	}
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%s: decode payload %s: %w", c.source, c.redact(path), err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.do(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !stderrors.Is(err, errTransient) {
			return nil, err
		}

		if attempt == c.maxRetries {
			break
		}
		wait := time.Duration(attempt+1) * c.retryStep
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if c.pacer != nil {
			if err := c.pacer.Acquire(ctx, string(c.source)); err != nil {
				return nil, fmt.Errorf("%s: pace retry: %w", c.source, err)
			}
		}
	}

	c.logger.WarnContext(ctx, "provider request failed", "url", c.redact(fullURL), "error", lastErr)
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: send request: %s", errTransient, c.source, c.redact(err.Error()))
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxBodyBytes)); err != nil {
		return nil, fmt.Errorf("%w: %s: read response body: %v", errTransient, c.source, err)
	}
	body := buf.Bytes()

	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return append([]byte(nil), body...), nil
	case code == http.StatusTooManyRequests:
		return nil, &usecase.RateLimitedError{Source: c.source, RetryAfter: retryAfter(resp.Header, time.Now())}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s rejected credentials (status=%d)", usecase.ErrSourceUnavailable, c.source, code)
	case code == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s status=404 body=%s", usecase.ErrNotFound, c.source, abbreviateBody(body))
	case code == http.StatusRequestTimeout || code >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: %s status=%d body=%s", errTransient, c.source, code, abbreviateBody(body))
	default:
		return nil, fmt.Errorf("%s status=%d body=%s", c.source, code, abbreviateBody(body))
	}
}

// recordCircuitResult counts only transient failures against the breaker; a
// 404 or a rejected key says nothing about upstream health.
func (c *Client) recordCircuitResult(err error) {
	c.breaker.Record(err != nil && stderrors.Is(err, errTransient))
}

func (c *Client) redact(value string) string {
	for _, s := range c.secrets {
		value = strings.ReplaceAll(value, s, "REDACTED")
	}
	return value
}

// retryAfter reads Retry-After (seconds or HTTP date) and falls back to
// Football-Data's X-RequestCounter-Reset seconds.
func retryAfter(h http.Header, now time.Time) time.Duration {
	if raw := strings.TrimSpace(h.Get("Retry-After")); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(raw); err == nil && at.After(now) {
			return at.Sub(now)
		}
	}
	if raw := strings.TrimSpace(h.Get("X-RequestCounter-Reset")); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
