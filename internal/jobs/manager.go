// Package jobs runs query work asynchronously and tracks its status.
//
// Jobs are held in an in-memory registry owned by the Manager; they do
// not survive a restart. Each job moves through exactly one of
// pending -> running -> done or pending -> running -> failed, and is
// immutable once terminal.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vaibhav2543/deep-researcher/config"
	"github.com/Vaibhav2543/deep-researcher/internal/domain"
)

// ErrNotFound indicates an unknown job id.
var ErrNotFound = errors.New("job not found")

// Status is the externally observable state of a job.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Terminal reports whether a job in this status can still change.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Job is a tracked unit of asynchronous work.
type Job struct {
	ID         string
	Status     Status
	Result     *domain.QueryResult
	Err        string
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// Work produces a query result. The context carries the execution
// deadline; implementations must respect it.
type Work func(ctx context.Context) (*domain.QueryResult, error)

type task struct {
	id   string
	work Work
}

// Manager owns the job registry and the worker pool that executes
// submitted work. Create one per process with New and tear it down
// with Close.
type Manager struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	queue  chan task
	logger *zap.Logger

	retention  time.Duration
	gcInterval time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a manager and starts its workers and GC loop.
func New(cfg config.JobsConfig, logger *zap.Logger) *Manager {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		jobs:       make(map[string]*Job),
		queue:      make(chan task, queueSize),
		logger:     logger,
		retention:  time.Duration(cfg.RetentionMin) * time.Minute,
		gcInterval: time.Duration(cfg.GCIntervalSec) * time.Second,
		cancel:     cancel,
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx)
	}
	if m.retention > 0 && m.gcInterval > 0 {
		m.wg.Add(1)
		go m.gcLoop(ctx)
	}

	return m
}

// Submit registers a pending job and schedules work for asynchronous
// execution. It never blocks on the work itself: the job id is
// returned before execution starts. If the queue is full the job is
// failed immediately rather than stalling the caller.
func (m *Manager) Submit(work Work) string {
	id := uuid.NewString()
	job := &Job{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	select {
	case m.queue <- task{id: id, work: work}:
	default:
		m.fail(id, "job queue full")
	}

	return id
}

// Fail registers a job that is already failed. Used when a query
// cannot even be scheduled (for example, nothing is indexed yet).
func (m *Manager) Fail(msg string) string {
	id := uuid.NewString()
	now := time.Now()
	job := &Job{
		ID:         id,
		Status:     StatusFailed,
		Err:        msg,
		CreatedAt:  now,
		FinishedAt: now,
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return id
}

// Get returns a snapshot of the job. It never blocks and never
// triggers work.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *job, nil
}

// Len returns the number of tracked jobs.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}

// Close stops the workers and the GC loop. Queued jobs that have not
// started stay pending.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) worker(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-m.queue:
			m.execute(ctx, t)
		}
	}
}

// execute runs one job, converting any failure, including a panic in
// the work function, into a failed status. Errors never propagate out
// of the worker.
func (m *Manager) execute(ctx context.Context, t task) {
	if !m.transition(t.id, StatusPending, StatusRunning) {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("job panicked", zap.String("job_id", t.id), zap.Any("panic", r))
			m.fail(t.id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	result, err := t.work(ctx)
	if err != nil {
		m.fail(t.id, err.Error())
		return
	}
	m.complete(t.id, result)
}

func (m *Manager) transition(id string, from, to Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok || job.Status != from {
		return false
	}
	job.Status = to
	if to == StatusRunning {
		job.StartedAt = time.Now()
	}
	return true
}

func (m *Manager) complete(id string, result *domain.QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = StatusDone
	job.Result = result
	job.FinishedAt = time.Now()
}

func (m *Manager) fail(id string, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = StatusFailed
	job.Err = msg
	job.FinishedAt = time.Now()
}

func (m *Manager) gcLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := m.evictExpired(time.Now())
			if evicted > 0 {
				m.logger.Debug("evicted expired jobs", zap.Int("count", evicted))
			}
		}
	}
}

// evictExpired removes terminal jobs older than the retention window.
// Pending and running jobs are never evicted.
func (m *Manager) evictExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, job := range m.jobs {
		if job.Status.Terminal() && now.Sub(job.CreatedAt) > m.retention {
			delete(m.jobs, id)
			evicted++
		}
	}
	return evicted
}
