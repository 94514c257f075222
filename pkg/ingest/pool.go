// Package ingest provides an asynchronous worker pool that builds document
// indexes off the request path.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/docqa/pkg/extract"
	"github.com/papercomputeco/docqa/pkg/index"
	"github.com/papercomputeco/docqa/pkg/logger"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Builder builds a document index from raw text. *index.Manager satisfies it.
type Builder interface {
	Build(ctx context.Context, id int64, raw string) (index.BuildResult, error)
}

// ReservingBuilder is a Builder that can drop a queued build once a later
// write to the same document has superseded it. *index.Manager satisfies it.
type ReservingBuilder interface {
	Builder
	Reserve(id int64) uint64
	BuildReserved(ctx context.Context, id int64, raw string, ticket uint64) (index.BuildResult, error)
}

// Job is a unit of work for the pool. When Path is set the text is
// extracted from that file; otherwise Text is indexed as given.
type Job struct {
	DocumentID int64
	Text       string
	Path       string

	ticket uint64
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Builder indexes each job's text.
	Builder Builder

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// OnDone, when set, is called after every job with its outcome.
	OnDone func(Job, index.BuildResult, error)

	Logger *slog.Logger
}

// Pool processes index jobs asynchronously.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Builder == nil {
		return nil, errors.New("ingest pool requires a builder")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: log,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool. With a
// ReservingBuilder the job is reserved at enqueue time, so a later Build or
// Delete of the same document cancels it.
// Returns true if enqueued, false if the queue is full or the pool is closed.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.logger.Warn("job not queued, pool closed", "document_id", job.DocumentID)
		return false
	}

	// Only Enqueue sends, under mu, so the send below cannot block.
	if len(p.queue) == cap(p.queue) {
		p.logger.Error("job not queued, queue full, job dropped", "document_id", job.DocumentID)
		return false
	}

	if rb, ok := p.config.Builder.(ReservingBuilder); ok {
		job.ticket = rb.Reserve(job.DocumentID)
	}
	p.queue <- job
	p.logger.Debug("job queued", "document_id", job.DocumentID, "path", job.Path)
	return true
}

// Close stops accepting jobs and waits for queued ones to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("ingest worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("ingest worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	result, err := p.run(ctx, job)
	switch {
	case errors.Is(err, index.ErrSuperseded):
		p.logger.Debug("async index build superseded", "document_id", job.DocumentID)
	case err != nil:
		p.logger.Error("async index build failed",
			"document_id", job.DocumentID,
			"path", job.Path,
			"error", err,
		)
	default:
		p.logger.Debug("async index build finished",
			"document_id", job.DocumentID,
			"chunks", result.Chunks,
			"mode", result.Mode,
		)
	}

	if p.config.OnDone != nil {
		p.config.OnDone(job, result, err)
	}
}

func (p *Pool) run(ctx context.Context, job Job) (index.BuildResult, error) {
	text := job.Text
	if job.Path != "" {
		var err error
		text, err = extract.Extract(job.Path)
		if err != nil {
			return index.BuildResult{}, fmt.Errorf("extracting %s: %w", job.Path, err)
		}
	}

	if rb, ok := p.config.Builder.(ReservingBuilder); ok && job.ticket != 0 {
		return rb.BuildReserved(ctx, job.DocumentID, text, job.ticket)
	}
	return p.config.Builder.Build(ctx, job.DocumentID, text)
}
