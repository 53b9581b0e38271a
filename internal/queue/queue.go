package queue

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task is one queued mutation. The queue never retries a task; retries are
// the caller's responsibility.
type Task func(ctx context.Context) error

// ErrCleared resolves futures whose tasks were discarded by Clear before
// they started.
var ErrCleared = fmt.Errorf("operation queue cleared before task ran")

// Queue serializes mutations per subject key. Tasks for the same key run
// strictly one at a time in submission order; a high-priority submission may
// overtake normal-priority tasks that have not started. Tasks for different
// keys run concurrently. Construct one per process and inject it; there is no
// package-level instance.
type Queue struct {
	mu     sync.Mutex
	lanes  map[string]*lane
	logger *zap.Logger
	wg     sync.WaitGroup
}

type lane struct {
	high    []*pending
	normal  []*pending
	running bool
}

type pending struct {
	ctx  context.Context
	task Task
	done chan error
}

// New builds an empty queue.
func New(logger *zap.Logger) *Queue {
	return &Queue{
		lanes:  make(map[string]*lane),
		logger: logger,
	}
}

// Enqueue submits a task for the given key and returns a future resolved
// with the task's own error (nil on success). A failing task never blocks or
// cancels tasks queued behind it.
func (q *Queue) Enqueue(ctx context.Context, key string, highPriority bool, task Task) <-chan error {
	p := &pending{ctx: ctx, task: task, done: make(chan error, 1)}

	q.mu.Lock()
	ln, ok := q.lanes[key]
	if !ok {
		ln = &lane{}
		q.lanes[key] = ln
	}
	if highPriority {
		ln.high = append(ln.high, p)
	} else {
		ln.normal = append(ln.normal, p)
	}
	if !ln.running {
		ln.running = true
		q.wg.Add(1)
		go q.run(key, ln)
	}
	q.mu.Unlock()

	return p.done
}

func (q *Queue) run(key string, ln *lane) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		var next *pending
		switch {
		case len(ln.high) > 0:
			next = ln.high[0]
			ln.high = ln.high[1:]
		case len(ln.normal) > 0:
			next = ln.normal[0]
			ln.normal = ln.normal[1:]
		default:
			ln.running = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		next.done <- q.execute(key, next)
	}
}

func (q *Queue) execute(key string, p *pending) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queued task panicked: %v", r)
			if q.logger != nil {
				q.logger.Error("queued task panicked", zap.String("key", key), zap.Any("panic", r))
			}
		}
	}()
	return p.task(p.ctx)
}

// Clear discards every pending task, resolving its future with ErrCleared.
// In-flight tasks run to completion. Used for test isolation.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, ln := range q.lanes {
		for _, p := range ln.high {
			p.done <- ErrCleared
		}
		for _, p := range ln.normal {
			p.done <- ErrCleared
		}
		ln.high = nil
		ln.normal = nil
	}
}

// Wait blocks until every lane drains. Intended for shutdown and tests.
func (q *Queue) Wait() {
	q.wg.Wait()
}
