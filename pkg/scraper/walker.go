package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/mrmechko/ifscraper/pkg/checkpoint"
	"github.com/mrmechko/ifscraper/pkg/config"
	errs "github.com/mrmechko/ifscraper/pkg/errors"
	"github.com/mrmechko/ifscraper/pkg/extract"
	"github.com/mrmechko/ifscraper/pkg/logger"
	"github.com/mrmechko/ifscraper/pkg/media"
	"github.com/mrmechko/ifscraper/pkg/models"
	"github.com/mrmechko/ifscraper/pkg/page"
	"github.com/mrmechko/ifscraper/pkg/parser"
	"github.com/mrmechko/ifscraper/pkg/ratelimit"
)

// DefaultCheckpointEvery is the number of accepted items between checkpoints
const DefaultCheckpointEvery = 10

// Options configures one walk over a listing
type Options struct {
	StartURL        string
	Target          int
	OutputRoot      string
	Replace         bool
	Resume          bool
	CheckpointEvery int
	Template        extract.Template

	Pages    page.Fetcher
	Media    MediaFetcher
	Store    CheckpointStore
	Pause    Pauser
	Progress Progress
	Logger   logger.Logger
}

// Walker drives fetch, extract, persist and paginate for a single listing.
// It is not safe for concurrent use; run one Walker per listing.
type Walker struct {
	opts   Options
	runID  string
	logger logger.Logger
}

// New validates options and creates a walker
func New(opts Options) (*Walker, error) {
	if opts.StartURL == "" {
		return nil, errors.New("start url is required")
	}
	if _, err := url.Parse(opts.StartURL); err != nil {
		return nil, fmt.Errorf("invalid start url: %w", err)
	}
	if opts.Target <= 0 {
		return nil, fmt.Errorf("target count must be positive, got %d", opts.Target)
	}
	if opts.OutputRoot == "" {
		return nil, errors.New("output root is required")
	}
	if opts.Pages == nil || opts.Media == nil || opts.Store == nil {
		return nil, errors.New("page fetcher, media fetcher and checkpoint store are required")
	}
	if opts.Template.Item == "" || opts.Template.Media == "" {
		return nil, errors.New("template item and media selectors are required")
	}
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = DefaultCheckpointEvery
	}
	if opts.Pause == nil {
		opts.Pause = ratelimit.NewInterval(0)
	}
	if opts.Progress == nil {
		opts.Progress = nopProgress{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	runID := uuid.NewString()
	return &Walker{
		opts:  opts,
		runID: runID,
		logger: opts.Logger.WithFields(map[string]interface{}{
			"run_id": runID,
			"url":    opts.StartURL,
		}),
	}, nil
}

// NewFromConfig wires a walker with HTTP page and media fetchers, the
// checkpoint store under cfg.Output.BaseDirectory, and the configured item
// pause.
func NewFromConfig(cfg *config.Config, startURL string, progress Progress, log logger.Logger) (*Walker, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	root := cfg.Output.BaseDirectory

	return New(Options{
		StartURL:        startURL,
		Target:          cfg.Scrape.TargetCount,
		OutputRoot:      root,
		Replace:         cfg.Output.Replace,
		Resume:          cfg.Scrape.Resume,
		CheckpointEvery: cfg.Scrape.CheckpointEvery,
		Template:        extract.TemplateFromConfig(cfg.Template),
		Pages:           page.NewClient(page.OptionsFromConfig(cfg, log)),
		Media:           media.NewFetcher(media.OptionsFromConfig(cfg, log)),
		Store:           checkpoint.NewStore(root, cfg.Scrape.Shard, log),
		Pause:           ratelimit.NewInterval(cfg.RateLimit.ItemDelay),
		Progress:        progress,
		Logger:          log,
	})
}

// RunID identifies this walk in logs
func (w *Walker) RunID() string {
	return w.runID
}

// run holds the mutable state of one Run call
type run struct {
	items   *Collection
	summary *Summary
	visited map[string]bool
	state   State
	pageURL string
	doc     *goquery.Document
	started time.Time
}

// Run walks the listing until the target count is reached or the listing
// ends. The output file is written once on completion. A fatal page fetch
// failure, a filesystem failure or cancellation persists the collection to
// the checkpoint and returns the error; the summary is returned either way.
func (w *Walker) Run(ctx context.Context) (*Summary, error) {
	r := &run{
		started: time.Now(),
		summary: newSummary(w.runID, w.opts.StartURL, w.opts.Target),
		visited: make(map[string]bool),
		state:   StateFetching,
		pageURL: w.opts.StartURL,
	}

	if err := os.MkdirAll(media.ImageDir(w.opts.OutputRoot), 0755); err != nil {
		r.summary.Duration = time.Since(r.started)
		return r.summary, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create output directory")
	}

	initial, err := w.initialItems()
	if err != nil {
		r.summary.Duration = time.Since(r.started)
		return r.summary, err
	}
	r.items = NewCollection(initial)
	r.summary.Resumed = r.items.Len()
	r.summary.Accepted = r.items.Len()

	w.logger.InfoWithFields("Starting scrape", map[string]interface{}{
		"target":  w.opts.Target,
		"resumed": r.summary.Resumed,
		"output":  w.opts.OutputRoot,
	})

	if r.items.Len() >= w.opts.Target {
		r.state = StateDone
	}

	for r.state != StateDone {
		switch r.state {
		case StateFetching:
			if err := w.fetch(ctx, r); err != nil {
				return r.summary, w.abort(r, err)
			}
		case StateExtracting:
			if err := w.extractPage(ctx, r); err != nil {
				return r.summary, w.abort(r, err)
			}
		}
	}

	return r.summary, w.finish(r)
}

// initialItems loads the checkpoint when resuming. Without resume an
// existing checkpoint is left alone until the next persist overwrites it.
func (w *Walker) initialItems() ([]models.Item, error) {
	store := w.opts.Store
	if !store.Exists() {
		return nil, nil
	}
	if !w.opts.Resume {
		w.logger.WarnWithFields("Checkpoint from a previous run found; use --resume to continue it", map[string]interface{}{
			"path": store.CheckpointPath(),
		})
		return nil, nil
	}

	items, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if len(items) > w.opts.Target {
		items = items[:w.opts.Target]
	}
	return items, nil
}

func (w *Walker) fetch(ctx context.Context, r *run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.visited[r.pageURL] = true
	r.summary.Pages++
	w.opts.Progress.PageStarted(r.summary.Pages, r.pageURL)

	started := time.Now()
	doc, err := w.opts.Pages.Fetch(ctx, r.pageURL)
	logger.LogPageFetch(w.logger, r.pageURL, r.summary.Pages, time.Since(started), err)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to fetch page %s: %w", r.pageURL, err)
	}

	r.doc = doc
	r.state = StateExtracting
	return nil
}

func (w *Walker) extractPage(ctx context.Context, r *run) error {
	base, err := url.Parse(r.pageURL)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeParsing, err, "invalid page url")
	}

	tmpl := w.opts.Template
	next := tmpl.NextPage(r.doc, base)
	lastPage := next == "" || r.visited[next]
	blocks := tmpl.Blocks(r.doc)

	w.logger.DebugWithFields("Extracting page", map[string]interface{}{
		"page":   r.summary.Pages,
		"blocks": len(blocks),
		"next":   next,
	})

	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := w.processBlock(ctx, r, i, block, base); err != nil {
			return err
		}

		if r.items.Len() >= w.opts.Target {
			r.summary.TargetReached = true
			r.state = StateDone
			return nil
		}

		if lastPage && i == len(blocks)-1 {
			break
		}
		if err := w.opts.Pause.Pause(ctx); err != nil {
			return err
		}
	}

	r.doc = nil
	if lastPage {
		if next != "" {
			w.logger.WarnWithFields("Next page was already visited, stopping", map[string]interface{}{
				"next": next,
			})
		}
		r.state = StateDone
		return nil
	}

	r.pageURL = next
	r.state = StateFetching
	return nil
}

// processBlock turns one item block into a record. Extraction failures are
// logged and skipped; only checkpoint write failures are returned.
func (w *Walker) processBlock(ctx context.Context, r *run, index int, block *goquery.Selection, base *url.URL) error {
	raw, err := w.opts.Template.Block(block, base)
	if err != nil {
		r.summary.Skipped++
		w.logger.WithError(err).WarnWithFields("Skipping item block", map[string]interface{}{
			"page":  r.summary.Pages,
			"block": index,
		})
		return nil
	}

	if w.opts.Resume && r.items.Has(raw.MediaURL) {
		r.summary.Duplicates++
		w.logger.DebugWithFields("Item already collected", map[string]interface{}{
			"media_url": raw.MediaURL,
		})
		return nil
	}

	localPath := media.DerivePath(raw.MediaURL, w.opts.OutputRoot)
	res := w.opts.Media.Fetch(ctx, raw.MediaURL, localPath, w.opts.Replace)
	r.summary.Media[res.Status]++

	r.items.Append(models.Item{
		MediaURL:   raw.MediaURL,
		LocalPath:  localPath,
		Caption:    parser.ParseCaption(raw.Alt, raw.HasTitle),
		Engagement: parser.ParseEngagement(raw.EngagementText),
		Author:     raw.Author,
	})
	r.summary.Accepted = r.items.Len()

	w.opts.Progress.Update(r.items.Len(), w.opts.Target)
	logger.LogScrapeProgress(w.logger, r.items.Len(), w.opts.Target)

	if r.items.Len()%w.opts.CheckpointEvery == 0 {
		if err := w.opts.Store.Persist(r.items.Items()); err != nil {
			return fmt.Errorf("failed to write checkpoint: %w", err)
		}
	}
	return nil
}

// abort persists what was collected so far and returns cause, joined with
// any persist failure
func (w *Walker) abort(r *run, cause error) error {
	r.summary.State = r.state
	r.summary.Accepted = r.items.Len()
	r.summary.Duration = time.Since(r.started)

	fields := r.summary.Fields()
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		w.logger.WarnWithFields("Scrape interrupted", fields)
	} else {
		w.logger.WithError(cause).ErrorWithFields("Scrape aborted", fields)
	}

	// An empty collection would only clobber an older checkpoint
	if r.items.Len() == 0 {
		return cause
	}
	if err := w.opts.Store.Persist(r.items.Items()); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to write checkpoint: %w", err))
	}
	return cause
}

func (w *Walker) finish(r *run) error {
	r.summary.State = StateDone
	r.summary.Accepted = r.items.Len()
	r.summary.TargetReached = r.items.Len() >= w.opts.Target

	err := w.opts.Store.Finalize(r.items.Items())
	r.summary.Duration = time.Since(r.started)
	if err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	r.summary.OutputPath = w.opts.Store.OutputPath()

	w.opts.Progress.Finish(r.items.Len(), w.opts.Target, r.summary.TargetReached)
	if !r.summary.TargetReached {
		w.logger.WarnWithFields("Listing ended before target", r.summary.Fields())
	} else {
		w.logger.InfoWithFields("Scrape complete", r.summary.Fields())
	}
	return nil
}
