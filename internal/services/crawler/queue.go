package crawler

import (
	"context"
	"sync"
	"time"
)

// crawlTask is one URL scheduled for processing at a crawl depth.
type crawlTask struct {
	url   string
	depth int
}

// taskQueue is an unbounded FIFO frontier with drain detection. A task is
// pending from Push until the worker that popped it calls Done, so a Pop on
// an empty queue blocks while in-flight workers may still discover links.
// When no tasks are queued or in flight, Pop returns nil: the crawl frontier
// is exhausted.
type taskQueue struct {
	items   []*crawlTask
	pending int
	mu      sync.Mutex
	cond    *sync.Cond
	closed  bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push schedules a task. Returns false if the queue is closed.
func (q *taskQueue) Push(task *crawlTask) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, task)
	q.pending++
	q.cond.Signal()
	return true
}

// Pop blocks until a task is available, the frontier drains, the queue is
// closed, or the context is cancelled. A nil task with a nil error means the
// crawl is complete. Uses timeout-based waits so cancellation is observed
// without leaking a watcher goroutine.
func (q *taskQueue) Pop(ctx context.Context) (*crawlTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	const maxWaitTimeout = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if q.closed {
			return nil, nil
		}

		if len(q.items) > 0 {
			task := q.items[0]
			q.items = q.items[1:]
			return task, nil
		}

		if q.pending == 0 {
			return nil, nil
		}

		timer := time.AfterFunc(maxWaitTimeout, func() {
			q.cond.Broadcast()
		})
		q.cond.Wait()
		timer.Stop()
	}
}

// Done marks a previously popped task complete. The final Done wakes all
// blocked Pops so they can observe the drained frontier.
func (q *taskQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending--
	if q.pending <= 0 && len(q.items) == 0 {
		q.cond.Broadcast()
	}
}

// Len returns the number of queued (not in-flight) tasks.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close wakes all waiting Pops and rejects further Pushes.
func (q *taskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
