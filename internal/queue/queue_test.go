package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkQueue_FIFO(t *testing.T) {
	q := NewWorkQueue[int]()
	for i := 0; i < 1000; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	assert.Equal(t, 1000, q.Len())

	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.Equal(t, i, got)
	}
	assert.Equal(t, 0, q.Len())
}

func TestWorkQueue_DequeueWaitsForItem(t *testing.T) {
	q := NewWorkQueue[string]()
	got := make(chan string, 1)

	go func() {
		item, err := q.Dequeue(context.Background())
		if err == nil {
			got <- item
		}
	}()

	select {
	case <-got:
		t.Fatal("Dequeue returned before anything was enqueued")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, q.Enqueue("hello"))
	select {
	case item := <-got:
		assert.Equal(t, "hello", item)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake up")
	}
}

func TestWorkQueue_DequeueHonoursCancellation(t *testing.T) {
	q := NewWorkQueue[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkQueue_ConcurrentProducers(t *testing.T) {
	q := NewWorkQueue[int]()
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = q.Enqueue(p*100 + i)
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i := 0; i < 800; i++ {
		v, err := q.Dequeue(context.Background())
		require.NoError(t, err)
		seen[v] = true
	}
	assert.Len(t, seen, 800)
}

func TestWorkQueue_CloseDrains(t *testing.T) {
	q := NewWorkQueue[int]()
	require.NoError(t, q.Enqueue(1))
	q.Close()

	assert.ErrorIs(t, q.Enqueue(2), ErrQueueClosed)

	v, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = q.Dequeue(context.Background())
	assert.True(t, errors.Is(err, ErrQueueClosed))
}
