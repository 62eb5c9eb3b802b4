package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roster-service/pkg/logger"
	"roster-service/pkg/metrics"

	"github.com/google/uuid"
)

const resultRetention = time.Hour

type job struct {
	handle      Handle
	task        Task
	submittedAt time.Time
}

type entry struct {
	done   chan struct{}
	result Result
}

// WorkerPool executes tasks on a fixed number of goroutines
type WorkerPool struct {
	jobs    chan job
	policy  RetryPolicy
	logger  logger.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries map[string]*entry

	// closeMu keeps Stop from closing jobs while a Submit is sending
	closeMu sync.RWMutex
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkerPool starts workers goroutines reading from a buffer of queueSize tasks.
// policy applies to tasks that do not carry their own.
func NewWorkerPool(workers, queueSize int, policy RetryPolicy, logger logger.Logger, m *metrics.Metrics) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		jobs:    make(chan job, queueSize),
		policy:  policy,
		logger:  logger,
		metrics: m,
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// Submit enqueues task, blocking while the buffer is full
func (p *WorkerPool) Submit(ctx context.Context, task Task) (Handle, error) {
	if task.Run == nil {
		return Handle{}, fmt.Errorf("task %q has no run function", task.Name)
	}

	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return Handle{}, ErrQueueClosed
	}

	p.mu.Lock()
	p.pruneLocked(time.Now())
	h := Handle{ID: uuid.NewString(), Name: task.Name}
	p.entries[h.ID] = &entry{done: make(chan struct{})}
	p.mu.Unlock()

	j := job{handle: h, task: task, submittedAt: time.Now()}
	select {
	case p.jobs <- j:
		p.logger.Debug("Task submitted", "taskID", h.ID, "task", h.Name)
		return h, nil
	case <-ctx.Done():
		p.forget(h.ID)
		return Handle{}, ctx.Err()
	case <-p.ctx.Done():
		p.forget(h.ID)
		return Handle{}, ErrQueueClosed
	}
}

// Await waits for the final result of the task with id
func (p *WorkerPool) Await(ctx context.Context, id string) (Result, error) {
	p.mu.Lock()
	e, ok := p.entries[id]
	p.mu.Unlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}

	select {
	case <-e.done:
		return e.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Stop cancels running tasks and waits for the workers to exit.
// Tasks still buffered finish with the cancellation error.
func (p *WorkerPool) Stop() {
	p.cancel()

	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.closeMu.Unlock()

	p.wg.Wait()
}

func (p *WorkerPool) worker(n int) {
	defer p.wg.Done()
	for j := range p.jobs {
		p.run(j)
	}
	p.logger.Debug("Worker stopped", "worker", n)
}

func (p *WorkerPool) run(j job) {
	policy := p.policy
	if j.task.Policy != nil {
		policy = *j.task.Policy
		if policy.MaxAttempts < 1 {
			policy.MaxAttempts = 1
		}
	}

	log := p.logger.With("taskID", j.handle.ID, "task", j.handle.Name)
	result := Result{ID: j.handle.ID, Name: j.handle.Name, SubmittedAt: j.submittedAt}

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := p.ctx.Err(); err != nil {
			result.Err = err
			break
		}

		result.Attempts = attempt
		result.Err = p.safeRun(j.task, Attempt{
			TaskID: j.handle.ID,
			Number: attempt,
			Last:   attempt == policy.MaxAttempts,
		})
		if result.Err == nil {
			break
		}
		if attempt == policy.MaxAttempts || !policy.retryable(result.Err) {
			log.Warn("Task failed", "attempt", attempt, "error", result.Err)
			break
		}

		log.Info("Task attempt failed, retrying", "attempt", attempt, "backoff", policy.Backoff, "error", result.Err)
		p.metrics.IncRetry()
		if !p.sleep(policy.Backoff) {
			result.Err = p.ctx.Err()
			break
		}
	}

	result.CompletedAt = time.Now()
	p.finish(j, result)
}

func (p *WorkerPool) safeRun(task Task, attempt Attempt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.Run(p.ctx, attempt)
}

func (p *WorkerPool) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *WorkerPool) finish(j job, result Result) {
	if j.task.OnDone != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("Task completion hook panicked", "taskID", j.handle.ID, "panic", r)
				}
			}()
			j.task.OnDone(result)
		}()
	}

	p.mu.Lock()
	e, ok := p.entries[j.handle.ID]
	p.mu.Unlock()
	if !ok {
		return
	}
	e.result = result
	close(e.done)
}

func (p *WorkerPool) forget(id string) {
	p.mu.Lock()
	delete(p.entries, id)
	p.mu.Unlock()
}

// pruneLocked drops results that finished long ago
func (p *WorkerPool) pruneLocked(now time.Time) {
	for id, e := range p.entries {
		select {
		case <-e.done:
			if now.Sub(e.result.CompletedAt) > resultRetention {
				delete(p.entries, id)
			}
		default:
		}
	}
}
