package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mrmechko/ifscraper/pkg/logger"
	"github.com/mrmechko/ifscraper/pkg/scraper"
)

// Job is one batch entry scheduled for a walk
type Job struct {
	ID    string
	Index int
	Entry Entry
}

// Result is the outcome of a job
type Result struct {
	Job      Job
	Summary  *scraper.Summary
	Err      error
	Duration time.Duration
}

// Runner performs one job
type Runner interface {
	Run(ctx context.Context, job Job) (*scraper.Summary, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, job Job) (*scraper.Summary, error)

func (f RunnerFunc) Run(ctx context.Context, job Job) (*scraper.Summary, error) {
	return f(ctx, job)
}

// WorkerPool runs independent walks concurrently
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	runner      Runner
	logger      logger.Logger
}

// NewWorkerPool creates a new worker pool bound to ctx
func NewWorkerPool(ctx context.Context, numWorkers int, runner Runner, log logger.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		runner:      runner,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for in-flight jobs and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit adds a job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"job_id": job.ID,
			"code":   job.Entry.Code,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel for consuming job results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		result := wp.processJob(job, id)

		// Results are always delivered; the consumer drains until Stop closes the channel
		wp.resultQueue <- result
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	fields := map[string]interface{}{
		"worker_id": workerID,
		"job_id":    job.ID,
		"code":      job.Entry.Code,
	}

	if err := wp.ctx.Err(); err != nil {
		return Result{Job: job, Err: err}
	}

	wp.logger.DebugWithFields("Worker processing job", fields)
	summary, err := wp.runner.Run(wp.ctx, job)
	result := Result{Job: job, Summary: summary, Err: err, Duration: time.Since(start)}

	if err != nil {
		wp.logger.WithError(err).ErrorWithFields("Batch entry failed", fields)
	} else {
		wp.logger.DebugWithFields("Worker completed job", fields)
	}
	return result
}
