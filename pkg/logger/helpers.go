package logger

import (
	"fmt"
	"time"
)

// LogPageFetch logs the outcome of a listing page fetch
func LogPageFetch(l Logger, url string, page int, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"url":         url,
		"page":        page,
		"duration_ms": duration.Milliseconds(),
	}

	if err != nil {
		l.WithError(err).ErrorWithFields("Page fetch failed", fields)
		return
	}
	l.DebugWithFields("Page fetched", fields)
}

// LogMediaFetch logs a media download outcome
func LogMediaFetch(l Logger, url, path, status string, err error) {
	fields := map[string]interface{}{
		"url":    url,
		"path":   path,
		"status": status,
	}

	switch {
	case err != nil:
		l.WithError(err).ErrorWithFields("Media fetch failed", fields)
	case status == "rejected":
		l.WarnWithFields("Not an image, skipping media", fields)
	default:
		l.DebugWithFields("Media fetch finished", fields)
	}
}

// LogScrapeProgress logs accepted items out of the target
func LogScrapeProgress(l Logger, accepted, target int) {
	percentage := 0.0
	if target > 0 {
		percentage = float64(accepted) / float64(target) * 100
	}

	l.WithFields(map[string]interface{}{
		"accepted":   accepted,
		"target":     target,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Debug("Scraping progress")
}

// LogCheckpoint logs a checkpoint write
func LogCheckpoint(l Logger, path string, items int) {
	l.InfoWithFields("Checkpoint saved", map[string]interface{}{
		"path":  path,
		"items": items,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger discards everything
type nopLogger struct{}

func (n *nopLogger) Debug(string)                                   {}
func (n *nopLogger) Info(string)                                    {}
func (n *nopLogger) Warn(string)                                    {}
func (n *nopLogger) Error(string)                                   {}
func (n *nopLogger) WithField(string, interface{}) Logger           { return n }
func (n *nopLogger) WithFields(map[string]interface{}) Logger       { return n }
func (n *nopLogger) WithError(error) Logger                         { return n }
func (n *nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(string, map[string]interface{}) {}
