package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mrmechko/ifscraper/pkg/logger"
	"github.com/mrmechko/ifscraper/pkg/scraper"
	"github.com/stretchr/testify/assert"
)

// mockRunner records calls and the peak number of concurrent runs
type mockRunner struct {
	delay   time.Duration
	failFor map[string]bool
	calls   int32
	active  int32
	peak    int32
}

func (m *mockRunner) Run(ctx context.Context, job Job) (*scraper.Summary, error) {
	atomic.AddInt32(&m.calls, 1)
	n := atomic.AddInt32(&m.active, 1)
	defer atomic.AddInt32(&m.active, -1)
	for {
		peak := atomic.LoadInt32(&m.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&m.peak, peak, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.failFor[job.Entry.Code] {
		return nil, errors.New("listing unavailable")
	}
	return &scraper.Summary{StartURL: job.Entry.URL, Accepted: 1}, nil
}

func submitAll(pool *WorkerPool, jobs []Job) {
	defer pool.Stop()
	for _, job := range jobs {
		if err := pool.Submit(job); err != nil {
			return
		}
	}
}

func makeJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		code := fmt.Sprintf("code-%d", i)
		jobs[i] = Job{ID: code, Index: i, Entry: Entry{Generator: code, Code: code, URL: "http://x/" + code}}
	}
	return jobs
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	runner := &mockRunner{delay: 5 * time.Millisecond}
	pool := NewWorkerPool(context.Background(), 3, runner, logger.NewNopLogger())
	pool.Start()

	jobs := makeJobs(10)
	go submitAll(pool, jobs)

	seen := make(map[int]bool)
	for result := range pool.Results() {
		assert.NoError(t, result.Err)
		assert.NotNil(t, result.Summary)
		seen[result.Job.Index] = true
	}

	assert.Len(t, seen, 10)
	assert.Equal(t, int32(10), atomic.LoadInt32(&runner.calls))
	assert.LessOrEqual(t, atomic.LoadInt32(&runner.peak), int32(3))
}

func TestWorkerPoolSingleWorkerIsSequential(t *testing.T) {
	runner := &mockRunner{delay: 2 * time.Millisecond}
	pool := NewWorkerPool(context.Background(), 0, runner, logger.NewNopLogger())
	pool.Start()
	go submitAll(pool, makeJobs(5))

	var order []int
	for result := range pool.Results() {
		order = append(order, result.Job.Index)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.peak))
}

func TestWorkerPoolReportsFailures(t *testing.T) {
	runner := &mockRunner{failFor: map[string]bool{"code-1": true, "code-3": true}}
	log := logger.NewTestLogger()
	pool := NewWorkerPool(context.Background(), 2, runner, log)
	pool.Start()
	go submitAll(pool, makeJobs(5))

	var failed []string
	for result := range pool.Results() {
		if result.Err != nil {
			failed = append(failed, result.Job.Entry.Code)
		}
	}

	assert.ElementsMatch(t, []string{"code-1", "code-3"}, failed)
	assert.Equal(t, int32(5), atomic.LoadInt32(&runner.calls), "failures do not stop the pool")
	assert.True(t, log.HasError())
	assert.True(t, log.HasMessage("Batch entry failed"))
}

func TestWorkerPoolCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &mockRunner{delay: time.Second}
	pool := NewWorkerPool(ctx, 2, runner, logger.NewNopLogger())
	pool.Start()
	go submitAll(pool, makeJobs(6))

	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan struct{})
	var errCount int
	go func() {
		defer close(done)
		for result := range pool.Results() {
			if result.Err != nil {
				errCount++
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("pool did not drain after cancellation")
	}
	assert.Greater(t, errCount, 0)
	assert.Less(t, atomic.LoadInt32(&runner.calls), int32(6))
}
