// Package retry provides bounded retry with exponential backoff for
// transient failures while fetching listing pages and media files.
//
// Basic usage:
//
//	cfg := retry.FromConfig(ctx, appConfig.Retry, log)
//	doc, err := retry.DoWithResult(func() (*goquery.Document, error) {
//		return fetchOnce(ctx, url)
//	}, cfg)
//
// Errors classified by pkg/errors as network, rate_limit or server_error are
// retried; everything else (not found, extraction, filesystem) and context
// cancellation return immediately.
package retry
