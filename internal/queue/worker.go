package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cesargomez89/shelfwise/internal/logger"
)

// Item is anything a worker can log about.
type Item interface {
	ItemID() string
	Kind() string
}

// Handler processes one item. It must open its own persistence session.
type Handler[T Item] func(ctx context.Context, item T) error

// Worker is the single active consumer of one WorkQueue.
type Worker[T Item] struct {
	queue       *WorkQueue[T]
	handle      Handler[T]
	logger      *logger.Logger
	itemTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker[T Item](name string, q *WorkQueue[T], handle Handler[T], itemTimeout time.Duration, log *logger.Logger) *Worker[T] {
	if log == nil {
		log = logger.Default()
	}
	return &Worker[T]{
		queue:       q,
		handle:      handle,
		itemTimeout: itemTimeout,
		logger:      log.WithComponent(name),
	}
}

// Start launches Run in the background. Stop waits for it to return.
func (w *Worker[T]) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		w.Run(ctx)
	}()
}

func (w *Worker[T]) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	w.logger.Info("Stopping worker")
	cancel()
	<-done
}

// Run consumes items until ctx is cancelled or the queue is closed and
// drained. An item already taken off the queue always runs to completion.
func (w *Worker[T]) Run(ctx context.Context) {
	w.logger.Info("Starting worker")
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				w.logger.Info("Work queue closed, worker exiting")
			}
			return
		}
		w.process(ctx, item)
	}
}

func (w *Worker[T]) process(ctx context.Context, item T) {
	log := w.logger.WithItem(item.ItemID(), item.Kind())

	// Shutdown must not abort the in-flight item, only stop the next dequeue.
	itemCtx := context.WithoutCancel(ctx)
	if w.itemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(itemCtx, w.itemTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while processing item", "panic", r)
		}
	}()

	start := time.Now()
	err := w.handle(itemCtx, item)
	switch {
	case err == nil:
		log.Debug("Item processed", "duration", time.Since(start))
	case errors.Is(err, context.Canceled):
		log.Info("Item cancelled", "duration", time.Since(start))
	default:
		log.Error("Item failed", "duration", time.Since(start), "error", err)
	}
}
