package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesargomez89/shelfwise/internal/logger"
)

type testItem struct {
	id string
}

func (i testItem) ItemID() string { return i.id }
func (i testItem) Kind() string   { return "test" }

func TestWorker_ProcessesInOrderAndSurvivesFailures(t *testing.T) {
	q := NewWorkQueue[testItem]()
	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})

	handler := func(ctx context.Context, item testItem) error {
		mu.Lock()
		seen = append(seen, item.id)
		n := len(seen)
		mu.Unlock()
		if n == 4 {
			close(done)
		}
		switch item.id {
		case "fails":
			return errors.New("boom")
		case "panics":
			panic("unexpected")
		}
		return nil
	}

	w := NewWorker("test-worker", q, handler, time.Second, logger.Discard())
	w.Start(context.Background())
	defer w.Stop()

	for _, id := range []string{"a", "fails", "panics", "b"} {
		require.NoError(t, q.Enqueue(testItem{id: id}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not process all items")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "fails", "panics", "b"}, seen)
}

func TestWorker_StopLetsInFlightItemFinish(t *testing.T) {
	q := NewWorkQueue[testItem]()
	started := make(chan struct{})
	var finished bool
	var itemErr error

	handler := func(ctx context.Context, item testItem) error {
		close(started)
		select {
		case <-time.After(100 * time.Millisecond):
			finished = true
		case <-ctx.Done():
			itemErr = ctx.Err()
		}
		return nil
	}

	w := NewWorker("test-worker", q, handler, 0, logger.Discard())
	w.Start(context.Background())
	require.NoError(t, q.Enqueue(testItem{id: "slow"}))
	require.NoError(t, q.Enqueue(testItem{id: "never"}))

	<-started
	w.Stop()

	assert.True(t, finished, "in-flight item should complete")
	assert.NoError(t, itemErr)
	assert.Equal(t, 1, q.Len(), "next item must not be taken after stop")
}

func TestWorker_StopWhenIdle(t *testing.T) {
	q := NewWorkQueue[testItem]()
	w := NewWorker("idle", q, func(context.Context, testItem) error { return nil }, 0, logger.Discard())
	w.Start(context.Background())

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("idle worker did not stop")
	}
}

func TestWorker_ItemTimeout(t *testing.T) {
	q := NewWorkQueue[testItem]()
	errs := make(chan error, 1)
	handler := func(ctx context.Context, item testItem) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return ctx.Err()
	}
	w := NewWorker("timeout", q, handler, 20*time.Millisecond, logger.Discard())
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, q.Enqueue(testItem{id: "stuck"}))
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("item timeout not applied")
	}
}
