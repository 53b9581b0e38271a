package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestQueue() *Queue {
	return New(zap.NewNop())
}

func TestEnqueue_SameKeyRunsInSubmissionOrder(t *testing.T) {
	q := newTestQueue()
	ctx := context.Background()

	var mu sync.Mutex
	var order []int

	futures := make([]<-chan error, 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		futures = append(futures, q.Enqueue(ctx, "k", false, func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}
	for _, f := range futures {
		require.NoError(t, <-f)
	}
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestEnqueue_HighPriorityOvertakesPending(t *testing.T) {
	q := newTestQueue()
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var order []string

	record := func(name string) Task {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	first := q.Enqueue(ctx, "k", false, func(context.Context) error {
		close(started)
		<-release
		mu.Lock()
		order = append(order, "task1")
		mu.Unlock()
		return nil
	})
	<-started

	// task2 waits behind task1; task3 arrives later but jumps the lane
	second := q.Enqueue(ctx, "k", false, record("task2"))
	third := q.Enqueue(ctx, "k", true, record("task3"))

	close(release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	require.NoError(t, <-third)
	require.Equal(t, []string{"task1", "task3", "task2"}, order)
}

func TestEnqueue_FailureDoesNotBlockSubsequentTasks(t *testing.T) {
	q := newTestQueue()
	ctx := context.Background()

	boom := errors.New("boom")
	first := q.Enqueue(ctx, "k", false, func(context.Context) error { return boom })
	second := q.Enqueue(ctx, "k", false, func(context.Context) error { return nil })

	require.ErrorIs(t, <-first, boom)
	require.NoError(t, <-second)
}

func TestEnqueue_PanicBecomesError(t *testing.T) {
	q := newTestQueue()
	ctx := context.Background()

	first := q.Enqueue(ctx, "k", false, func(context.Context) error { panic("bad") })
	second := q.Enqueue(ctx, "k", false, func(context.Context) error { return nil })

	require.Error(t, <-first)
	require.NoError(t, <-second)
}

func TestEnqueue_DifferentKeysRunConcurrently(t *testing.T) {
	q := newTestQueue()
	ctx := context.Background()

	gateA := make(chan struct{})
	startedA := make(chan struct{})

	futureA := q.Enqueue(ctx, "a", false, func(context.Context) error {
		close(startedA)
		<-gateA
		return nil
	})
	<-startedA

	// key "b" must complete while "a" is still blocked
	require.NoError(t, <-q.Enqueue(ctx, "b", false, func(context.Context) error { return nil }))

	close(gateA)
	require.NoError(t, <-futureA)
}

func TestClear_DiscardsPendingOnly(t *testing.T) {
	q := newTestQueue()
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})

	first := q.Enqueue(ctx, "k", false, func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started
	second := q.Enqueue(ctx, "k", false, func(context.Context) error { return nil })

	q.Clear()
	close(release)

	require.NoError(t, <-first)
	require.ErrorIs(t, <-second, ErrCleared)
	q.Wait()
}
