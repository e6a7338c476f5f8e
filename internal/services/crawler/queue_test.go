package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_FIFO(t *testing.T) {
	q := newTaskQueue()
	q.Push(&crawlTask{url: "a", depth: 1})
	q.Push(&crawlTask{url: "b", depth: 1})

	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", task.url)

	task, err = q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", task.url)
}

func TestTaskQueue_DrainsWhenAllTasksDone(t *testing.T) {
	q := newTaskQueue()
	q.Push(&crawlTask{url: "a", depth: 1})

	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	require.NotNil(t, task)

	// A second Pop must wait: the in-flight task may still push children.
	popped := make(chan *crawlTask, 1)
	go func() {
		second, _ := q.Pop(context.Background())
		popped <- second
	}()

	select {
	case <-popped:
		t.Fatal("Pop returned while a task was still in flight")
	case <-time.After(20 * time.Millisecond):
	}

	q.Done()

	select {
	case second := <-popped:
		assert.Nil(t, second, "drained queue should return nil task")
	case <-time.After(time.Second):
		t.Fatal("Pop did not observe the drained frontier")
	}
}

func TestTaskQueue_InFlightTaskCanPushChildren(t *testing.T) {
	q := newTaskQueue()
	q.Push(&crawlTask{url: "parent", depth: 1})

	parent, err := q.Pop(context.Background())
	require.NoError(t, err)
	require.Equal(t, "parent", parent.url)

	assert.True(t, q.Push(&crawlTask{url: "child", depth: 2}))
	q.Done()

	child, err := q.Pop(context.Background())
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.Equal(t, "child", child.url)
	q.Done()

	final, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, final)
}

func TestTaskQueue_ContextCancellation(t *testing.T) {
	q := newTaskQueue()
	q.Push(&crawlTask{url: "a", depth: 1})
	_, err := q.Pop(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := q.Pop(ctx)
		errs <- err
	}()

	cancel()
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Pop did not observe cancellation")
	}
}

func TestTaskQueue_ClosedRejectsPush(t *testing.T) {
	q := newTaskQueue()
	q.Close()
	assert.False(t, q.Push(&crawlTask{url: "a", depth: 1}))

	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, task)
}
