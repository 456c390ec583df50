package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/ingest"
	"github.com/mestsky-urad/zuvp-pipeline/internal/pipeline"
)

// ProcessorQueue feeds watched submission files into the pipeline from a
// fixed pool of workers. Successfully drafted files are archived so the
// watcher never re-emits them.
type ProcessorQueue struct {
	proc    *pipeline.Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// mu orders producers against close: Enqueue holds the read side (so
	// producers never block one another), Shutdown takes the write side,
	// which also guarantees no send is in flight when the channel closes.
	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc *pipeline.Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					outcome, err := q.proc.ProcessPath(ctx, job.Path)
					cancel()

					switch {
					case err != nil:
						q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "error", err)
					case outcome.Status == constants.OutcomeDraftCreated:
						q.logger.Info("processed file successfully",
							"worker_id", workerID, "path", job.Path, "request_id", outcome.RequestID)
						if err := ingest.ArchiveProcessed(job.Path, q.logger); err != nil {
							q.logger.Warn("archive failed", "path", job.Path, "error", err)
						}
					default:
						// Rejected or incomplete: leave the file in place so a
						// clerk can inspect and resubmit it.
						q.logger.Warn("submission not drafted",
							"worker_id", workerID, "path", job.Path,
							"status", string(outcome.Status), "message", outcome.Validation.Message)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued file for processing", "path", job.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
