package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vaibhav2543/deep-researcher/config"
	"github.com/Vaibhav2543/deep-researcher/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := New(config.JobsConfig{Workers: 2, QueueSize: 16, RetentionMin: 60, GCIntervalSec: 3600}, zap.NewNop())
	t.Cleanup(m.Close)
	return m
}

func waitTerminal(t *testing.T, m *Manager, id string) Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := m.Get(id)
		require.NoError(t, err)
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return Job{}
}

func TestSubmitCompletes(t *testing.T) {
	m := newTestManager(t)

	id := m.Submit(func(ctx context.Context) (*domain.QueryResult, error) {
		return &domain.QueryResult{Answer: "- done"}, nil
	})
	require.NotEmpty(t, id)

	job := waitTerminal(t, m, id)
	assert.Equal(t, StatusDone, job.Status)
	require.NotNil(t, job.Result)
	assert.Equal(t, "- done", job.Result.Answer)
	assert.Empty(t, job.Err)
}

func TestSubmitNonBlocking(t *testing.T) {
	m := newTestManager(t)

	release := make(chan struct{})
	start := time.Now()
	id := m.Submit(func(ctx context.Context) (*domain.QueryResult, error) {
		<-release
		return &domain.QueryResult{}, nil
	})
	elapsed := time.Since(start)
	close(release)

	assert.Less(t, elapsed, 100*time.Millisecond, "Submit must return before work completes")
	waitTerminal(t, m, id)
}

func TestStatusMonotonic(t *testing.T) {
	m := newTestManager(t)

	release := make(chan struct{})
	id := m.Submit(func(ctx context.Context) (*domain.QueryResult, error) {
		<-release
		return &domain.QueryResult{}, nil
	})

	rank := map[Status]int{StatusPending: 0, StatusRunning: 1, StatusDone: 2, StatusFailed: 2}

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	last := -1
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := m.Get(id)
		require.NoError(t, err)
		r := rank[job.Status]
		require.GreaterOrEqual(t, r, last, "status regressed from rank %d to %d", last, r)
		last = r
		if job.Status.Terminal() {
			return
		}
	}
	t.Fatal("job never finished")
}

func TestExecutionFailureCaptured(t *testing.T) {
	m := newTestManager(t)

	id := m.Submit(func(ctx context.Context) (*domain.QueryResult, error) {
		return nil, errors.New("generation exploded")
	})

	job := waitTerminal(t, m, id)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "generation exploded", job.Err)
	assert.Nil(t, job.Result)
}

func TestPanicRecovered(t *testing.T) {
	m := newTestManager(t)

	id := m.Submit(func(ctx context.Context) (*domain.QueryResult, error) {
		panic("boom")
	})

	job := waitTerminal(t, m, id)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Contains(t, job.Err, "boom")

	// The worker pool survives the panic.
	id2 := m.Submit(func(ctx context.Context) (*domain.QueryResult, error) {
		return &domain.QueryResult{Answer: "- still alive"}, nil
	})
	job2 := waitTerminal(t, m, id2)
	assert.Equal(t, StatusDone, job2.Status)
}

func TestGetUnknownID(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Get("no-such-job")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFailImmediate(t *testing.T) {
	m := newTestManager(t)

	id := m.Fail("no documents indexed.")
	job, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "no documents indexed.", job.Err)
}

func TestTerminalJobsImmutable(t *testing.T) {
	m := newTestManager(t)

	id := m.Fail("first failure")
	m.complete(id, &domain.QueryResult{Answer: "should not land"})
	m.fail(id, "second failure")

	job, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "first failure", job.Err)
	assert.Nil(t, job.Result)
}

func TestEvictionSkipsRunning(t *testing.T) {
	m := newTestManager(t)

	release := make(chan struct{})
	runningID := m.Submit(func(ctx context.Context) (*domain.QueryResult, error) {
		<-release
		return &domain.QueryResult{}, nil
	})
	doneID := m.Fail("old failure")

	// Wait until the worker picks the job up.
	deadline := time.Now().Add(5 * time.Second)
	for {
		job, err := m.Get(runningID)
		require.NoError(t, err)
		if job.Status == StatusRunning {
			break
		}
		require.True(t, time.Now().Before(deadline), "job never started running")
		time.Sleep(time.Millisecond)
	}

	// Sweep from far in the future: everything is past retention.
	evicted := m.evictExpired(time.Now().Add(24 * time.Hour))
	assert.Equal(t, 1, evicted)

	_, err := m.Get(doneID)
	assert.ErrorIs(t, err, ErrNotFound, "terminal job should be evicted")

	_, err = m.Get(runningID)
	assert.NoError(t, err, "running job must never be evicted")

	close(release)
	waitTerminal(t, m, runningID)
}

func TestConcurrentSubmitAndGet(t *testing.T) {
	m := newTestManager(t)

	ids := make(chan string, 100)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				ids <- m.Submit(func(ctx context.Context) (*domain.QueryResult, error) {
					return &domain.QueryResult{}, nil
				})
			}
		}()
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := <-ids
		require.False(t, seen[id], "duplicate job id %s", id)
		seen[id] = true
		_, err := m.Get(id)
		require.NoError(t, err)
	}
}
