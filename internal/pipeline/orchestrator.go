package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/recipegest/internal/config"
	"github.com/dgallion1/recipegest/internal/extract"
	"github.com/dgallion1/recipegest/internal/store"
)

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("pipeline is shutting down")

// Orchestrator manages queued structuring runs for the HTTP service.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	extractor *extract.Extractor
	sink      store.RecipeSink
	log       *slog.Logger
	cfg       config.Config

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu      sync.RWMutex
	stopped bool
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, extractor *extract.Extractor, sink store.RecipeSink, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		extractor: extractor,
		sink:      sink,
		log:       log,
		cfg:       cfg,
	}
}

// Start launches WorkerCount run workers plus a sweeper that drops finished
// jobs once they outlive JobTTL.
func (o *Orchestrator) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := range o.cfg.WorkerCount {
		o.wg.Add(1)
		go o.runWorker(runCtx, i)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(sweepInterval(o.cfg.JobTTL))
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				before := o.jobs.Len()
				o.jobs.Cleanup()
				if dropped := before - o.jobs.Len(); dropped > 0 {
					o.log.Debug("expired jobs removed", "count", dropped)
				}
			}
		}
	}()
}

func (o *Orchestrator) runWorker(ctx context.Context, n int) {
	defer o.wg.Done()
	w := NewWorker(o.extractor, o.sink, o.log.With("worker", n), o.cfg.MaxConcurrentExtract)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			w.Process(ctx, job)
		}
	}
}

// sweepInterval is half the job TTL, kept between one and five minutes.
func sweepInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/2, time.Minute), 5*time.Minute)
}

// Stop cancels in-flight runs and waits for every worker to exit. It is safe
// to call more than once.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}
		o.mu.Lock()
		o.stopped = true
		close(o.queue)
		o.mu.Unlock()
		o.wg.Wait()
	})
}

// Submit registers the job and queues it. When the queue is full the job is
// kept as failed so its status can still be polled.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "shutdown")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		o.log.Info("run queued", "job_id", job.ID, "queue_depth", len(o.queue))
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("run queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Sink returns the record sink for direct reads by API handlers.
func (o *Orchestrator) Sink() store.RecipeSink {
	return o.sink
}

// Extractor returns the shared field extractor.
func (o *Orchestrator) Extractor() *extract.Extractor {
	return o.extractor
}
