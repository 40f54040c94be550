// Package page fetches listing pages and parses them into goquery documents.
package page

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mrmechko/ifscraper/pkg/config"
	errs "github.com/mrmechko/ifscraper/pkg/errors"
	"github.com/mrmechko/ifscraper/pkg/logger"
	"github.com/mrmechko/ifscraper/pkg/ratelimit"
	"github.com/mrmechko/ifscraper/pkg/retry"
)

// Fetcher retrieves and parses one listing page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Options configures a Client. Every run builds its own; nothing is shared
// between concurrent walkers.
type Options struct {
	HTTPClient        *http.Client
	UserAgent         string
	Headers           map[string]string
	RequestsPerMinute int
	Retry             config.RetryConfig
	Logger            logger.Logger
}

// OptionsFromConfig builds client options from the application config
func OptionsFromConfig(cfg *config.Config, log logger.Logger) Options {
	return Options{
		HTTPClient:        &http.Client{Timeout: cfg.Fetch.Timeout},
		UserAgent:         cfg.Fetch.UserAgent,
		Headers:           cfg.Fetch.Headers,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Retry:             cfg.Retry,
		Logger:            log,
	}
}

// Client is the HTTP implementation of Fetcher
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	limiter    *ratelimit.TokenBucket
	retry      config.RetryConfig
	logger     logger.Logger
}

// NewClient creates a page client
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	headers := make(map[string]string, len(opts.Headers)+1)
	for k, v := range opts.Headers {
		headers[k] = v
	}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}

	return &Client{
		httpClient: httpClient,
		headers:    headers,
		limiter:    ratelimit.PerMinute(opts.RequestsPerMinute),
		retry:      opts.Retry,
		logger:     log,
	}
}

// Fetch downloads and parses the page at url. Retryable failures (network,
// 429, 5xx) are retried with backoff; the last error is returned once the
// attempts are used up.
func (c *Client) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	cfg := retry.FromConfig(ctx, c.retry, c.logger.WithField("url", url))
	return retry.DoWithResult(func() (*goquery.Document, error) {
		return c.fetchOnce(ctx, url)
	}, cfg)
}

func (c *Client) fetchOnce(ctx context.Context, url string) (*goquery.Document, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "invalid page url")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    url,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "page request failed")
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := c.checkResponseStatus(resp, url); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, fmt.Sprintf("failed to read page %s", url))
	}
	return doc, nil
}

// checkResponseStatus maps non-2xx responses onto classified errors
func (c *Client) checkResponseStatus(resp *http.Response, url string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	e := errs.FromStatus(resp.StatusCode, url)
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    url,
		"type":   string(e.Type),
	}
	if errs.IsRetryable(e.Type) {
		c.logger.WarnWithFields("retryable page error", fields)
	} else {
		c.logger.ErrorWithFields("page request rejected", fields)
	}
	return e
}
