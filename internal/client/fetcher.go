package client

import (
	"context"
	"fmt"
	"time"

	"freelance/notifier/internal/config"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// Fetcher implements the fetch policy shared by both marketplace
// adapters: up to MaxRetries attempts per call, a fixed wait between
// attempts, transport failures retryable, any non-2xx status terminal.
// An optional post-fetch delay throttles the request rate independently
// of retries.
type Fetcher struct {
	httpClient  *resty.Client
	rl          ratelimit.Limiter
	maxAttempts int
	retryWait   time.Duration
	fetchDelay  time.Duration
	proxies     *proxyPool
}

func NewFetcher(cfg config.SitesConfig) *Fetcher {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 6.1; rv:82.0) Gecko/20100101 Firefox/82.0").
		SetHeader("Accept", "*/*")

	pool := newProxyPool(cfg.Proxies)
	if proxyURL := pool.next(); proxyURL != "" {
		client.SetProxy(proxyURL)
		log.Infof("Using initial proxy: %s", proxyURL)
	}

	rps := cfg.MaxRequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	maxAttempts := cfg.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	return &Fetcher{
		httpClient:  client,
		rl:          ratelimit.New(rps),
		maxAttempts: maxAttempts,
		retryWait:   time.Duration(cfg.RetryWait) * time.Second,
		fetchDelay:  time.Duration(cfg.RequestDelay) * time.Second,
		proxies:     pool,
	}
}

// Get fetches url with optional query parameters.
func (f *Fetcher) Get(ctx context.Context, url string, params map[string]string, delay bool) (string, error) {
	return f.fetch(ctx, url, params, nil, delay)
}

// PostForm submits a form-encoded payload to url.
func (f *Fetcher) PostForm(ctx context.Context, url string, form map[string]string, delay bool) (string, error) {
	return f.fetch(ctx, url, nil, form, delay)
}

func (f *Fetcher) fetch(ctx context.Context, url string, params, form map[string]string, delay bool) (string, error) {
	f.rl.Take()

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		req := f.httpClient.R().SetContext(ctx)

		var (
			resp *resty.Response
			err  error
		)
		if form != nil {
			resp, err = req.SetFormData(form).Post(url)
		} else {
			if params != nil {
				req.SetQueryParams(params)
			}
			resp, err = req.Get(url)
		}

		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("request cancelled: %w", ctx.Err())
			}
			lastErr = err
			log.Debugf("Attempt %d/%d for %s failed: %v", attempt, f.maxAttempts, url, err)
			if proxyURL := f.proxies.next(); proxyURL != "" {
				f.httpClient.SetProxy(proxyURL)
				log.Infof("Switching to proxy: %s", proxyURL)
			}
			time.Sleep(f.retryWait)
			continue
		}

		// A reachable server that answers with an error status is a
		// terminal failure for this call, not a retry candidate.
		if resp.IsError() {
			return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
		}

		if delay {
			time.Sleep(f.fetchDelay)
		}
		return resp.String(), nil
	}

	return "", fmt.Errorf("request failed after %d attempts: %w", f.maxAttempts, lastErr)
}
