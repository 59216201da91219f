// Package feed fans values out to subscribers that only care about the latest one.
package feed

import (
	"context"
	"sync"
)

// Feed delivers published values to every subscriber. Each subscriber channel holds at
// most one value; publishing replaces an unread value instead of blocking, so a slow
// reader always sees the newest value and never a backlog.
//
// The zero value is ready to use.
type Feed[T any] struct {
	mu     sync.Mutex
	subs   map[chan T]struct{}
	closed bool
}

// Subscribe registers a subscriber and queues initial on its channel before any value
// published afterwards. The channel is closed when ctx is done or the feed is closed.
func (f *Feed[T]) Subscribe(ctx context.Context, initial T) <-chan T {
	ch := make(chan T, 1)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		close(ch)

		return ch
	}

	if f.subs == nil {
		f.subs = map[chan T]struct{}{}
	}

	f.subs[ch] = struct{}{}
	ch <- initial

	context.AfterFunc(ctx, func() {
		f.remove(ch)
	})

	return ch
}

// Publish offers v to every subscriber.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs {
		replace(ch, v)
	}
}

// Len returns the number of live subscribers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subs)
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs {
		close(ch)
	}

	f.subs = nil
	f.closed = true
}

func (f *Feed[T]) remove(ch chan T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[ch]; !ok {
		return
	}

	delete(f.subs, ch)
	close(ch)
}

// replace sends v on ch, dropping the unread value if the buffer is full.
// Callers hold f.mu, so nothing else sends on ch concurrently.
func replace[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}

		select {
		case <-ch:
		default:
		}
	}
}
