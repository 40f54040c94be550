package batch

import (
	"context"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mrmechko/ifscraper/pkg/config"
	errs "github.com/mrmechko/ifscraper/pkg/errors"
	"github.com/mrmechko/ifscraper/pkg/logger"
	"github.com/mrmechko/ifscraper/pkg/scraper"
)

// Report summarises a batch run. Failures is keyed by the entry's index in
// the batch file.
type Report struct {
	Entries  int
	Failures map[int]error
	Results  []Result
	Duration time.Duration
}

// Succeeded reports the number of entries whose walk finished without error
func (r *Report) Succeeded() int {
	return r.Entries - len(r.Failures)
}

// ScrapeRunner walks one entry with a copy of the base config, writing under
// <base output>/<code> with the entry index as shard id
type ScrapeRunner struct {
	Config   *config.Config
	Progress func(job Job) scraper.Progress
	Logger   logger.Logger
}

// ConfigFor returns the per-entry config derived from the base config
func (s *ScrapeRunner) ConfigFor(job Job) *config.Config {
	cfg := *s.Config
	cfg.Output.BaseDirectory = filepath.Join(s.Config.Output.BaseDirectory, job.Entry.Code)
	cfg.Scrape.Shard = strconv.Itoa(job.Index)
	return &cfg
}

// Run implements Runner
func (s *ScrapeRunner) Run(ctx context.Context, job Job) (*scraper.Summary, error) {
	var progress scraper.Progress
	if s.Progress != nil {
		progress = s.Progress(job)
	}
	log := s.Logger.WithFields(map[string]interface{}{
		"code":  job.Entry.Code,
		"shard": job.Index,
	})

	w, err := scraper.NewFromConfig(s.ConfigFor(job), job.Entry.URL, progress, log)
	if err != nil {
		return nil, err
	}
	return w.Run(ctx)
}

// Driver loads a batch file, resolves its entries, runs each through the
// worker pool and writes the augmented list back
type Driver struct {
	Path        string
	URLTemplate string
	Concurrency int
	Runner      Runner
	Logger      logger.Logger
}

// NewDriver builds a driver whose runner scrapes with cfg
func NewDriver(path string, cfg *config.Config, progress func(job Job) scraper.Progress, log logger.Logger) *Driver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Driver{
		Path:        path,
		URLTemplate: cfg.Batch.URLTemplate,
		Concurrency: cfg.Batch.Concurrency,
		Runner:      &ScrapeRunner{Config: cfg, Progress: progress, Logger: log},
		Logger:      log,
	}
}

// Run processes every entry. Failing entries are reported, not fatal. An
// error is returned only when the batch file cannot be read or written, or
// when ctx is cancelled.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	entries, format, err := LoadEntries(d.Path)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Entries:  len(entries),
		Failures: make(map[int]error),
	}

	var jobs []Job
	for i, entry := range entries {
		resolved, err := Resolve(entry, d.URLTemplate)
		if err != nil {
			report.Failures[i] = err
			d.Logger.WithError(err).WarnWithFields("Skipping batch entry", map[string]interface{}{
				"index":     i,
				"generator": entry.Generator,
			})
			continue
		}
		entries[i] = resolved
		jobs = append(jobs, Job{ID: uuid.NewString(), Index: i, Entry: resolved})
	}

	// Write codes and urls back before scraping so an interrupted batch keeps them
	if err := SaveEntries(d.Path, entries, format); err != nil {
		return report, err
	}

	d.Logger.InfoWithFields("Starting batch", map[string]interface{}{
		"file":        d.Path,
		"entries":     len(entries),
		"concurrency": d.Concurrency,
	})

	pool := NewWorkerPool(ctx, d.Concurrency, d.Runner, d.Logger)
	pool.Start()

	go func() {
		defer pool.Stop()
		for _, job := range jobs {
			if err := pool.Submit(job); err != nil {
				return
			}
		}
	}()

	for result := range pool.Results() {
		report.Results = append(report.Results, result)
		if result.Err != nil {
			report.Failures[result.Job.Index] = result.Err
		}
	}
	report.Duration = time.Since(start)

	d.Logger.InfoWithFields("Batch finished", map[string]interface{}{
		"entries":   report.Entries,
		"succeeded": report.Succeeded(),
		"failed":    len(report.Failures),
		"duration":  report.Duration,
	})

	if err := ctx.Err(); err != nil {
		return report, errs.Wrap(errs.ErrorTypeUnknown, err, "batch interrupted")
	}
	return report, nil
}
