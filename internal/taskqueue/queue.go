// Package taskqueue serializes work per key: tasks submitted under the same
// key run one at a time in submission order, while different keys proceed
// independently.
package taskqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Do once the queue has been closed.
var ErrClosed = errors.New("task queue closed")

const (
	taskPending int32 = iota
	taskStarted
	taskAbandoned
)

type task struct {
	ctx   context.Context
	fn    func(context.Context) error
	state atomic.Int32
	done  chan error
}

type lane struct {
	pending []*task
}

// Queue runs tasks with a single slot per key.
type Queue struct {
	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
	wg     sync.WaitGroup
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{lanes: make(map[string]*lane)}
}

// Do runs fn after every earlier task for key has finished and returns its
// error. When ctx ends before fn starts, fn is skipped and ctx.Err() is
// returned. Once started, fn runs to completion with a context detached from
// ctx's cancellation.
func (q *Queue) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &task{ctx: ctx, fn: fn, done: make(chan error, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	l, running := q.lanes[key]
	if !running {
		l = &lane{}
		q.lanes[key] = l
	}
	l.pending = append(l.pending, t)
	if !running {
		q.wg.Add(1)
		go q.drain(key, l)
	}
	q.mu.Unlock()

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		if t.state.CompareAndSwap(taskPending, taskAbandoned) {
			return ctx.Err()
		}
		return <-t.done
	}
}

// Pending reports how many tasks are queued or running for key.
func (q *Queue) Pending(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok := q.lanes[key]; ok {
		return len(l.pending)
	}
	return 0
}

// Close rejects new tasks and waits for queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) drain(key string, l *lane) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if len(l.pending) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		t := l.pending[0]
		q.mu.Unlock()

		if t.state.CompareAndSwap(taskPending, taskStarted) {
			t.done <- t.fn(context.WithoutCancel(t.ctx))
		}

		q.mu.Lock()
		l.pending = l.pending[1:]
		q.mu.Unlock()
	}
}
