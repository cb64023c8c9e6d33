package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/estatescout/internal/cache"
	"github.com/ppiankov/estatescout/internal/model"
	"github.com/ppiankov/estatescout/internal/util"
)

// ErrDisallowed is returned when robots.txt or the host allow-list forbids a fetch
var ErrDisallowed = errors.New("fetch disallowed")

// Limiter paces requests per portal host
type Limiter interface {
	WaitWithDelay(ctx context.Context, rawURL string, additionalDelay time.Duration) error
}

// Fetcher fetches portal pages over HTTP
type Fetcher struct {
	httpClient   *http.Client
	userAgent    string
	maxBytes     int64
	robots       *util.RobotsChecker // nil when robots.txt is ignored
	allowedHosts []string
	limiter      Limiter
	cache        *cache.PageCache
	logger       *slog.Logger
	now          func() time.Time
}

// FetcherOption customizes a Fetcher
type FetcherOption func(*Fetcher)

// WithLimiter paces every live request through l
func WithLimiter(l Limiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithPageCache serves repeated fetches from c
func WithPageCache(c *cache.PageCache) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
	}
}

// WithAllowedHosts restricts fetches to the given portal hosts
func WithAllowedHosts(hosts ...string) FetcherOption {
	return func(f *Fetcher) {
		f.allowedHosts = hosts
	}
}

// WithFetchLogger sets the fetcher's logger
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, respectRobots bool, httpProxy, httpsProxy, noProxy string, opts ...FetcherOption) *Fetcher {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	if respectRobots {
		f.robots = util.NewRobotsChecker(userAgent, client, timeout)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFetcherFromConfig builds a Fetcher from the http section of the config
func NewFetcherFromConfig(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	opts = append([]FetcherOption{WithAllowedHosts(cfg.AllowedHosts...)}, opts...)
	return NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, cfg.RespectRobots,
		cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy, opts...)
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML      string
	Meta      model.FetchMeta
	FinalURL  string
	FetchedAt time.Time
}

// Fetch retrieves one page, from the cache when possible
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if !AllowedHost(rawURL, f.allowedHosts) {
		return nil, fmt.Errorf("%w: host of %s is not an allowed portal", ErrDisallowed, rawURL)
	}

	if f.cache != nil {
		if page, ok := f.cache.Get(rawURL); ok {
			f.logger.Debug("page cache hit", "url", rawURL)
			meta := page.Meta
			meta.FromCache = true
			return &FetchResult{HTML: string(page.Body), Meta: meta, FinalURL: page.URL, FetchedAt: page.FetchedAt}, nil
		}
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: robots.txt forbids %s", ErrDisallowed, rawURL)
		}
		crawlDelay = delay
	}

	if f.limiter != nil {
		if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	meta := model.FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		Headers:      make(map[string]string),
	}

	// Store selected headers
	for _, key := range []string{"Content-Length", "Server", "Cache-Control"} {
		if val := resp.Header.Get(key); val != "" {
			meta.Headers[key] = val
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	limitedReader := io.LimitReader(resp.Body, f.maxBytes)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	result := &FetchResult{
		HTML:      string(body),
		Meta:      meta,
		FinalURL:  resp.Request.URL.String(),
		FetchedAt: f.now().UTC(),
	}

	if f.cache != nil {
		page := &cache.Page{URL: rawURL, Body: body, Meta: meta, FetchedAt: result.FetchedAt}
		if err := f.cache.Put(page); err != nil {
			f.logger.Warn("page cache write failed", "url", rawURL, "err", err)
		}
	}

	return result, nil
}

// fetchSleepFunc is swapped out by tests
var fetchSleepFunc = time.Sleep

const fetchAttempts = 3

// FetchWithRetry retries transient failures with linear backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) || attempt == fetchAttempts || ctx.Err() != nil {
			break
		}
		f.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt, "err", err)
		fetchSleepFunc(time.Duration(attempt) * time.Second)
	}
	return nil, lastErr
}

// isRetryableFetchError reports transport failures, 5xx and 429 as transient
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "fetch:") {
		return true
	}
	rest, ok := strings.CutPrefix(msg, "unexpected status: ")
	if !ok {
		return false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return false
	}
	code, convErr := strconv.Atoi(fields[0])
	if convErr != nil {
		return false
	}
	return code == http.StatusTooManyRequests || code >= 500
}

// AllowedHost reports whether rawURL points at one of hosts. Subdomains of
// an allowed host match; an empty list allows any http(s) URL.
func AllowedHost(rawURL string, hosts []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return false
	}
	if len(hosts) == 0 {
		return true
	}
	host := strings.ToLower(parsed.Hostname())
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
