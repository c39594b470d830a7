package eventbus

import (
	"context"
	"sync"
)

// WorkerPool decouples publishers from the bus: PublishAsync enqueues and
// returns immediately, worker goroutines fan the queue into Bus.Publish.
// When the queue is full the event is dropped, never blocking the caller.
type WorkerPool[T any] struct {
	ctx       context.Context
	cancel    context.CancelFunc
	eventChan chan T
	bus       *Bus[T]
	wg        sync.WaitGroup
}

func NewWorkerPool[T any](bus *Bus[T], workers int, queueSize int) *WorkerPool[T] {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	wp := &WorkerPool[T]{
		ctx:       ctx,
		cancel:    cancel,
		eventChan: make(chan T, queueSize),
		bus:       bus,
	}

	for i := 0; i < workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}

	return wp
}

// PublishAsync queues an event for delivery. Events arriving after Shutdown,
// or while the queue is full, are dropped.
func (wp *WorkerPool[T]) PublishAsync(event T) {
	select {
	case <-wp.ctx.Done():
		return
	default:
	}

	select {
	case wp.eventChan <- event:
	default:
	}
}

func (wp *WorkerPool[T]) worker() {
	defer wp.wg.Done()
	for {
		select {
		case event, ok := <-wp.eventChan:
			if !ok {
				return
			}
			wp.bus.Publish(event)
		case <-wp.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers and waits for them to exit.
func (wp *WorkerPool[T]) Shutdown() {
	wp.cancel()
	close(wp.eventChan)
	wp.wg.Wait()
}
