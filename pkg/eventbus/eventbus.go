package eventbus

// Lock-free pub/sub used to stream scrape lifecycle events (iterations,
// product changes, fetch failures) from the drivers to whoever cares,
// without a driver ever blocking on a slow consumer. Slow subscribers drop
// events rather than stall a tick.

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

type Bus[T any] struct {
	subscribers *xsync.Map[string, *subscriber[T]]
	seq         atomic.Uint64
	isShutdown  atomic.Bool
	bufferSize  int
}

type subscriber[T any] struct {
	id         string
	ch         chan T
	lastActive atomic.Int64
	dropped    atomic.Uint64
	isActive   atomic.Bool
}

const DefaultBufferSize = 100

// New creates a bus whose subscriber channels buffer bufferSize events.
// Zero or negative falls back to DefaultBufferSize.
func New[T any](bufferSize int) *Bus[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus[T]{
		subscribers: xsync.NewMap[string, *subscriber[T]](),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a channel of events and a cleanup function. The
// subscription also ends when ctx is cancelled; either path closes the
// channel exactly once.
func (b *Bus[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	if b.isShutdown.Load() {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}

	id := "sub_" + strconv.FormatUint(b.seq.Add(1), 10)
	sub := &subscriber[T]{
		id: id,
		ch: make(chan T, b.bufferSize),
	}
	sub.lastActive.Store(time.Now().UnixNano())
	sub.isActive.Store(true)

	b.subscribers.Store(id, sub)

	go func() {
		<-ctx.Done()
		b.unsubscribe(id)
	}()

	return sub.ch, func() { b.unsubscribe(id) }
}

// Publish delivers the event to every active subscriber without blocking.
// It returns how many subscribers actually received it.
func (b *Bus[T]) Publish(event T) int {
	if b.isShutdown.Load() {
		return 0
	}

	delivered := 0
	now := time.Now().UnixNano()

	b.subscribers.Range(func(id string, sub *subscriber[T]) bool {
		if !sub.isActive.Load() {
			return true
		}
		select {
		case sub.ch <- event:
			sub.lastActive.Store(now)
			delivered++
		default:
			sub.dropped.Add(1)
		}
		return true
	})

	return delivered
}

// Shutdown closes all subscriber channels. Publishing afterwards is a no-op.
func (b *Bus[T]) Shutdown() {
	if !b.isShutdown.CompareAndSwap(false, true) {
		return
	}

	b.subscribers.Range(func(id string, sub *subscriber[T]) bool {
		if sub.isActive.CompareAndSwap(true, false) {
			close(sub.ch)
		}
		return true
	})
	b.subscribers.Clear()
}

// Stats reports subscriber and drop counts.
func (b *Bus[T]) Stats() Stats {
	stats := Stats{IsShutdown: b.isShutdown.Load()}
	if stats.IsShutdown {
		return stats
	}

	b.subscribers.Range(func(id string, sub *subscriber[T]) bool {
		stats.TotalSubscribers++
		if sub.isActive.Load() {
			stats.ActiveSubscribers++
		}
		stats.TotalDropped += sub.dropped.Load()
		return true
	})

	return stats
}

type Stats struct {
	TotalSubscribers  int
	ActiveSubscribers int
	TotalDropped      uint64
	IsShutdown        bool
}

func (b *Bus[T]) unsubscribe(id string) {
	if sub, exists := b.subscribers.LoadAndDelete(id); exists {
		if sub.isActive.CompareAndSwap(true, false) {
			close(sub.ch)
		}
	}
}
