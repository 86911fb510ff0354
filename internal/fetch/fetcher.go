// Package fetch retrieves retailer product pages over HTTP. It owns the
// politeness budget: one shared client, a per-host rate limiter, and a
// bounded retry loop for transient failures. Permanent failures such as a
// 403 are surfaced immediately so a blocked retailer does not burn the
// whole run's time budget.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cigarscout/cigarscout/pkg/errors"
	"github.com/cigarscout/cigarscout/pkg/logging"
)

const (
	// DefaultTimeout bounds a single request, connect through body read.
	DefaultTimeout = 15 * time.Second
	// DefaultInterval is the per-host request spacing.
	DefaultInterval = time.Second
	// DefaultMaxAttempts bounds the retry loop for transient failures.
	DefaultMaxAttempts = 3

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// maxBodyBytes caps how much of a product page we read. Real product
	// pages are well under this; anything larger is not worth parsing.
	maxBodyBytes = 8 << 20
)

// Page is one successfully retrieved retailer page.
type Page struct {
	URL        string
	Body       []byte
	StatusCode int
	Duration   time.Duration
	FetchedAt  time.Time
}

// Fetcher retrieves pages with per-host rate limiting and bounded retries.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxAttempts int
	baseDelay   time.Duration
	logger      zerolog.Logger

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	interval  time.Duration
	intervals map[string]time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the underlying HTTP client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithInterval sets the per-host request spacing.
func WithInterval(d time.Duration) Option {
	return func(f *Fetcher) { f.interval = d }
}

// WithMaxAttempts sets the retry budget for transient failures.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) { f.maxAttempts = n }
}

// WithBaseDelay sets the first retry delay. Each subsequent retry doubles it.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.baseDelay = d }
}

// WithLogger sets the fetch logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// New creates a Fetcher with sensible politeness defaults.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: DefaultTimeout},
		userAgent:   defaultUserAgent,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   2 * time.Second,
		interval:    DefaultInterval,
		limiters:    make(map[string]*rate.Limiter),
		intervals:   make(map[string]time.Duration),
		logger:      *logging.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves one page. Transient failures (timeouts, 429, 5xx) are
// retried with exponential backoff up to the attempt budget; permanent
// failures (403, 404, malformed URL) return immediately.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return nil, &errors.ValidationError{
			Field:   "url",
			Value:   pageURL,
			Message: "not an absolute URL",
		}
	}

	if err := f.limiter(parsed.Host).Wait(ctx); err != nil {
		return nil, errors.NewFetchError(pageURL, 0, true, err)
	}

	var page *Page
	err = retry(ctx, f.maxAttempts, f.baseDelay, func(attempt int) error {
		p, ferr := f.fetchOnce(ctx, pageURL)
		if ferr != nil {
			if errors.IsTransient(ferr) && attempt < f.maxAttempts {
				f.logger.Warn().
					Str("url", pageURL).
					Int("attempt", attempt).
					Err(ferr).
					Msg("fetch failed, retrying")
			}
			return ferr
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.logger.Debug().
		Str("url", pageURL).
		Int("status", page.StatusCode).
		Int("bytes", len(page.Body)).
		Dur("duration", page.Duration).
		Msg("fetched page")
	return page, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.NewFetchError(pageURL, 0, false, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		// Network errors and client timeouts are worth another attempt
		// unless the caller's context is already done.
		return nil, errors.NewFetchError(pageURL, 0, ctx.Err() == nil, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(pageURL, resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewFetchError(pageURL, resp.StatusCode, true, err)
	}

	return &Page{
		URL:        pageURL,
		Body:       body,
		StatusCode: resp.StatusCode,
		Duration:   time.Since(start),
		FetchedAt:  time.Now().UTC(),
	}, nil
}

func classifyStatus(pageURL string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusForbidden:
		// Bot detection. Retrying makes the block worse.
		return errors.NewFetchError(pageURL, status, false,
			fmt.Errorf("access denied: %w", errors.ErrBlocked))
	case status == http.StatusNotFound || status == http.StatusGone:
		return errors.NewFetchError(pageURL, status, false, errors.ErrNotFound)
	case status == http.StatusTooManyRequests:
		return errors.NewFetchError(pageURL, status, true, errors.ErrRateLimited)
	case status >= 500:
		return errors.NewFetchError(pageURL, status, true,
			fmt.Errorf("server error %d", status))
	default:
		return errors.NewFetchError(pageURL, status, false,
			fmt.Errorf("unexpected status %d", status))
	}
}

// SetHostInterval overrides the request spacing for one host, typically
// from a retailer profile's rate limit. Non-positive durations are ignored.
// Safe to call concurrently with in-flight fetches.
func (f *Fetcher) SetHostInterval(host string, d time.Duration) {
	if host == "" || d <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intervals[host] = d
	if l, ok := f.limiters[host]; ok {
		l.SetLimit(rate.Every(d))
	}
}

// limiter returns the host's rate limiter, creating it on first use.
func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		interval := f.interval
		if d, ok := f.intervals[host]; ok {
			interval = d
		}
		l = rate.NewLimiter(rate.Every(interval), 1)
		f.limiters[host] = l
	}
	return l
}
