// Package validate checks that the document links of an extracted case can
// still be downloaded.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/estatescout/internal/model"
	"github.com/ppiankov/estatescout/internal/util"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// DocumentCheck is the outcome of probing one document link
type DocumentCheck struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	StatusCode  int    `json:"statusCode,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Accessible  bool   `json:"accessible"`
	Dead        bool   `json:"dead"` // 404/410 or unreachable
	RedirectURL string `json:"redirectUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

// IsPDF reports whether the server labelled the document as a PDF
func (c DocumentCheck) IsPDF() bool {
	return strings.HasPrefix(strings.ToLower(c.ContentType), "application/pdf")
}

// Checker probes document links concurrently
type Checker struct {
	httpClient *http.Client
	userAgent  string
	maxWorkers int
}

// NewChecker creates a checker sharing the fetcher's proxy settings
func NewChecker(cfg model.HTTPConfig, maxWorkers int) *Checker {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	return &Checker{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxWorkers: maxWorkers,
	}
}

// Check probes every document; results keep the input order
func (c *Checker) Check(ctx context.Context, docs []model.DocumentRecord) []DocumentCheck {
	results := make([]DocumentCheck, len(docs))
	var wg sync.WaitGroup

	// Limit concurrent requests against the portal
	semaphore := make(chan struct{}, c.maxWorkers)

	for i, doc := range docs {
		wg.Add(1)
		go func(idx int, d model.DocumentRecord) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = DocumentCheck{URL: d.URL, Name: d.Name, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkWithRetry(ctx, d)
		}(i, doc)
	}

	wg.Wait()
	return results
}

// checkSingle sends a HEAD request, falling back to a one-byte GET when the
// portal does not allow HEAD
func (c *Checker) checkSingle(ctx context.Context, doc model.DocumentRecord) DocumentCheck {
	result := DocumentCheck{URL: doc.URL, Name: doc.Name}

	resp, err := c.probe(ctx, http.MethodHead, doc.URL)
	if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
		_ = resp.Body.Close()
		resp, err = c.probe(ctx, http.MethodGet, doc.URL)
	}
	if err != nil {
		result.Error = err.Error()
		result.Dead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Accessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Dead = true
	}

	if final := resp.Request.URL.String(); final != doc.URL {
		result.RedirectURL = final
	}
	return result
}

func (c *Checker) probe(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// checkWithRetry retries transient failures with exponential backoff
func (c *Checker) checkWithRetry(ctx context.Context, doc model.DocumentRecord) DocumentCheck {
	var result DocumentCheck
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = c.checkSingle(ctx, doc)
		if !isRetryable(result) || ctx.Err() != nil {
			return result
		}
		if attempt < validateMaxRetries-1 {
			validateSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

// isRetryable returns true for results that indicate transient failures
func isRetryable(result DocumentCheck) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	s := strings.ToLower(result.Error)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

// Summary counts accessible and dead links
func Summary(checks []DocumentCheck) (accessible, dead int) {
	for _, c := range checks {
		if c.Accessible {
			accessible++
		}
		if c.Dead {
			dead++
		}
	}
	return accessible, dead
}
