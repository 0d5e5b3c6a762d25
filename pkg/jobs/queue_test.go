package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueRequiresStart(t *testing.T) {
	q := NewQueue("mirror", func(context.Context, Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{ID: "job-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}

func TestQueueDefaults(t *testing.T) {
	q := NewQueue("mirror", nil, QueueConfig{})

	assert.Equal(t, 2, q.workers)
	assert.Equal(t, 5, q.maxRetries)
	assert.Equal(t, 2*time.Second, q.retryDelay)
	assert.Equal(t, 30*time.Second, q.maxDelay)
	assert.Equal(t, 16, cap(q.jobs))
}

func TestNextDelayDoublesUpToCap(t *testing.T) {
	q := NewQueue("mirror", nil, QueueConfig{RetryDelay: time.Second, MaxDelay: 4 * time.Second})

	assert.Equal(t, time.Second, q.nextDelay(1))
	assert.Equal(t, 2*time.Second, q.nextDelay(2))
	assert.Equal(t, 4*time.Second, q.nextDelay(3))
	assert.Equal(t, 4*time.Second, q.nextDelay(4))
	assert.Equal(t, time.Second, q.nextDelay(0))
}

func TestQueueDispatchesJob(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("mirror", func(_ context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Kind: "mirror-status"}))

	select {
	case job := <-done:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, "mirror-status", job.Kind)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not dispatched")
	}
}

func TestQueueRetriesThenDrops(t *testing.T) {
	var attempts int32
	dropped := make(chan Job, 1)
	handlerErr := errors.New("sibling write failed")

	q := NewQueue("mirror", func(context.Context, Job) error {
		atomic.AddInt32(&attempts, 1)
		return handlerErr
	}, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		MaxDelay:   time.Millisecond,
		OnDrop: func(job Job, err error) {
			require.ErrorIs(t, err, handlerErr)
			dropped <- job
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Kind: "mirror-status"}))

	select {
	case job := <-dropped:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, 3, job.Attempt)
		assert.EqualValues(t, 3, atomic.LoadInt32(&attempts))
	case <-time.After(2 * time.Second):
		t.Fatal("job was never dropped")
	}
}
