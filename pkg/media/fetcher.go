package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mrmechko/ifscraper/pkg/config"
	errs "github.com/mrmechko/ifscraper/pkg/errors"
	"github.com/mrmechko/ifscraper/pkg/logger"
	"github.com/mrmechko/ifscraper/pkg/retry"
)

// Status is the outcome of a single media fetch
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
	StatusRejected   Status = "rejected"
	StatusFailed     Status = "failed"
)

// Result describes what Fetch did for one URL. Err is only set for
// StatusFailed.
type Result struct {
	URL    string
	Path   string
	Status Status
	Bytes  int64
	Err    error
}

// Options configures a Fetcher. Headers and user agent belong to the
// Fetcher; nothing is installed process-wide.
type Options struct {
	Client            *http.Client
	UserAgent         string
	Headers           map[string]string
	AllowedExtensions []string
	MaxAttempts       int
	Backoff           retry.BackoffStrategy
	Logger            logger.Logger
}

// OptionsFromConfig builds fetcher options from the application config
func OptionsFromConfig(cfg *config.Config, log logger.Logger) Options {
	return Options{
		Client:            &http.Client{Timeout: cfg.Download.DownloadTimeout},
		UserAgent:         cfg.Fetch.UserAgent,
		Headers:           cfg.Fetch.Headers,
		AllowedExtensions: cfg.Download.AllowedExtensions,
		MaxAttempts:       cfg.Download.RetryAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.Retry.BaseDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		Logger: log,
	}
}

// Fetcher downloads media assets to deterministic local paths
type Fetcher struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	allowed     map[string]bool
	maxAttempts int
	backoff     retry.BackoffStrategy
	logger      logger.Logger
}

// NewFetcher creates a media fetcher
func NewFetcher(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	exts := opts.AllowedExtensions
	if len(exts) == 0 {
		exts = []string{"jpg", "png", "gif"}
	}
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[ext] = true
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := opts.Backoff
	if backoff == nil {
		backoff = retry.DefaultExponentialBackoff()
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Fetcher{
		client:      client,
		userAgent:   opts.UserAgent,
		headers:     headers,
		allowed:     allowed,
		maxAttempts: attempts,
		backoff:     backoff,
		logger:      log,
	}
}

// Allowed reports whether the URL's extension is an accepted image type
func (f *Fetcher) Allowed(mediaURL string) bool {
	return f.allowed[Extension(mediaURL)]
}

// Fetch downloads mediaURL to localPath. It never returns an error: a
// disallowed extension is rejected, an existing file is skipped unless
// replace is set, and download failures are logged and reported in the
// Result.
func (f *Fetcher) Fetch(ctx context.Context, mediaURL, localPath string, replace bool) Result {
	res := Result{URL: mediaURL, Path: localPath}

	if !f.Allowed(mediaURL) {
		res.Status = StatusRejected
		logger.LogMediaFetch(f.logger, mediaURL, localPath, string(res.Status), nil)
		return res
	}

	if !replace {
		if _, err := os.Stat(localPath); err == nil {
			res.Status = StatusSkipped
			logger.LogMediaFetch(f.logger, mediaURL, localPath, string(res.Status), nil)
			return res
		}
	}

	n, err := retry.DoWithResult(func() (int64, error) {
		return f.download(ctx, mediaURL, localPath)
	}, &retry.Config{
		MaxAttempts: f.maxAttempts,
		Backoff:     f.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      f.logger.WithField("media_url", mediaURL),
	})
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
	} else {
		res.Status = StatusDownloaded
		res.Bytes = n
	}

	logger.LogMediaFetch(f.logger, mediaURL, localPath, string(res.Status), res.Err)
	return res
}

func (f *Fetcher) download(ctx context.Context, mediaURL, localPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeParsing, err, "invalid media url")
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeNetwork, err, "media request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errs.FromStatus(resp.StatusCode, mediaURL)
	}

	return saveAtomic(resp.Body, localPath)
}

// saveAtomic writes r to a temp file next to path and renames it into place
// so a partially written file is never visible under path.
func saveAtomic(r io.Reader, path string) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create media directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create temporary file")
	}
	tempFile := tmp.Name()

	n, err := io.Copy(tmp, r)
	closeErr := tmp.Close()

	if err != nil {
		os.Remove(tempFile)
		// A broken body is a transport problem, worth another attempt
		return 0, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read media body")
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, closeErr, "failed to close file")
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, fmt.Errorf("rename %s: %w", tempFile, err), "failed to move media into place")
	}

	return n, nil
}
