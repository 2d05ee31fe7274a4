// Package history keeps the most recent controller iterations in memory.
package history

import (
	"sync"

	"github.com/GoSim-25-26J-441/fast-controller/pkg/controller"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 1024

// Buffer is a bounded, concurrency-safe ring of iterations. It implements
// controller.Observer.
type Buffer struct {
	mu    sync.RWMutex
	items []controller.Iteration
	// next is the slot the next iteration is written to
	next  int
	full  bool
	total uint64
}

// New creates a buffer holding at most capacity iterations.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{items: make([]controller.Iteration, capacity)}
}

// ObserveIteration records it, evicting the oldest iteration when full.
func (b *Buffer) ObserveIteration(it controller.Iteration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.next] = it
	b.next++
	if b.next == len(b.items) {
		b.next = 0
		b.full = true
	}
	b.total++
}

// Capacity returns the maximum number of retained iterations.
func (b *Buffer) Capacity() int {
	return len(b.items)
}

// Len returns the number of retained iterations.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.len()
}

func (b *Buffer) len() int {
	if b.full {
		return len(b.items)
	}
	return b.next
}

// Total returns the number of iterations observed, including evicted ones.
func (b *Buffer) Total() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

// Last returns the most recent iteration.
func (b *Buffer) Last() (controller.Iteration, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.len() == 0 {
		return controller.Iteration{}, false
	}
	i := b.next - 1
	if i < 0 {
		i = len(b.items) - 1
	}
	return b.items[i], true
}

// Snapshot returns up to limit of the most recent iterations, oldest first.
// A non-positive limit returns all retained iterations.
func (b *Buffer) Snapshot(limit int) []controller.Iteration {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := b.len()
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]controller.Iteration, n)
	start := b.next - n
	if start < 0 {
		start += len(b.items)
	}
	for k := 0; k < n; k++ {
		out[k] = b.items[(start+k)%len(b.items)]
	}
	return out
}

// Reset drops all retained iterations.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.items)
	b.next = 0
	b.full = false
	b.total = 0
}
