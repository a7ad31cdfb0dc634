package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/queue"
)

// Pool consumes the ingestion queue and dispatches documents to the
// orchestrator on a bounded worker pool. Retryable failures are returned
// to the queue until the attempt budget is spent; terminal failures and
// exhausted jobs are acknowledged, leaving the document marked failed.
type Pool struct {
	queue        *queue.Queue
	orchestrator *Orchestrator
	workers      *ants.Pool
	maxAttempts  int
	logger       *slog.Logger
	wg           sync.WaitGroup
}

// PoolOption configures a Pool.
type PoolOption func(*Pool) error

// WithPoolSize sets the number of concurrent workers.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) PoolOption {
	return func(p *Pool) error {
		if size < 1 {
			size = 1
		}
		if p.workers != nil {
			p.workers.Release()
		}
		workers, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.workers = workers
		return nil
	}
}

// WithPoolLogger sets a custom logger. Default is slog.Default().
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// NewPool creates a worker pool over the queue and orchestrator.
func NewPool(q *queue.Queue, orchestrator *Orchestrator, config core.Config, opts ...PoolOption) (*Pool, error) {
	if q == nil {
		return nil, ErrQueueRequired
	}
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	size := config.Workers
	if size < 1 {
		size = runtime.NumCPU() / 2
		if size < 1 {
			size = 1
		}
	}
	workers, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		queue:        q,
		orchestrator: orchestrator,
		workers:      workers,
		maxAttempts:  config.RetryMaxAttempts,
		logger:       slog.Default().With("component", "ingestion-pool"),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Run consumes the queue until the context is cancelled or the queue is
// closed. It blocks; run it on its own goroutine when the caller needs
// to keep going.
func (p *Pool) Run(ctx context.Context) error {
	for {
		delivery, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.wg.Wait()
			if errors.Is(err, queue.ErrQueueClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		p.wg.Add(1)
		submitErr := p.workers.Submit(func() {
			defer p.wg.Done()
			p.handle(ctx, delivery)
		})
		if submitErr != nil {
			p.wg.Done()
			// Pool released under us; put the job back for the next run.
			if nackErr := delivery.Nack(ctx, submitErr); nackErr != nil {
				p.logger.Error("failed to return job to queue",
					"documentID", delivery.Job.DocumentID, "error", nackErr)
			}
			p.wg.Wait()
			return submitErr
		}
	}
}

// handle processes one delivery and settles it with the queue.
func (p *Pool) handle(ctx context.Context, delivery *queue.Delivery) {
	job := delivery.Job
	err := p.orchestrator.Process(ctx, job.DocumentID)

	if err != nil && core.Retryable(err) && job.Attempt+1 < p.maxAttempts {
		if nackErr := delivery.Nack(ctx, err); nackErr != nil {
			p.logger.Error("failed to return job to queue",
				"documentID", job.DocumentID, "error", nackErr)
		}
		return
	}

	if err != nil {
		p.logger.Warn("job settled after failure",
			"documentID", job.DocumentID, "attempt", job.Attempt, "error", err)
	}
	if ackErr := delivery.Ack(ctx); ackErr != nil {
		p.logger.Error("failed to acknowledge job",
			"documentID", job.DocumentID, "error", ackErr)
	}
}

// Release stops the workers. In-flight jobs finish; the queue itself is
// owned by the caller and stays open.
func (p *Pool) Release() {
	p.wg.Wait()
	if p.workers != nil {
		p.workers.Release()
	}
}
