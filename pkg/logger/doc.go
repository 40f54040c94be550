// Package logger provides the structured logging interface used across the scraper.
//
// It wraps zerolog behind a small Logger interface:
//   - Debug, Info, Warn and Error levels
//   - child loggers carrying fields (WithField, WithFields, WithError)
//   - colored console output on stderr, optionally mirrored to a file
//   - a global logger (Initialize, GetLogger) plus per-run child loggers
//   - NewNopLogger and NewTestLogger for tests
//
// Basic usage:
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Page fetched", map[string]interface{}{"page": 2})
package logger
