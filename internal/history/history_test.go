package history

import (
	"sync"
	"testing"

	"github.com/GoSim-25-26J-441/fast-controller/pkg/controller"
)

func observe(b *Buffer, ids ...uint64) {
	for _, id := range ids {
		b.ObserveIteration(controller.Iteration{ID: id})
	}
}

func ids(its []controller.Iteration) []uint64 {
	out := make([]uint64, len(its))
	for i, it := range its {
		out[i] = it.ID
	}
	return out
}

func equal(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBufferDefaultCapacity(t *testing.T) {
	if got := New(0).Capacity(); got != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, got)
	}
}

func TestBufferEmpty(t *testing.T) {
	b := New(3)
	if b.Len() != 0 || b.Total() != 0 {
		t.Fatalf("expected empty buffer")
	}
	if _, ok := b.Last(); ok {
		t.Fatalf("expected no last iteration")
	}
	if got := b.Snapshot(0); len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %v", got)
	}
}

func TestBufferSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		observed []uint64
		limit    int
		want     []uint64
	}{
		{"partial", []uint64{0, 1}, 0, []uint64{0, 1}},
		{"exactly full", []uint64{0, 1, 2}, 0, []uint64{0, 1, 2}},
		{"wrapped", []uint64{0, 1, 2, 3, 4}, 0, []uint64{2, 3, 4}},
		{"limit", []uint64{0, 1, 2, 3, 4}, 2, []uint64{3, 4}},
		{"limit above len", []uint64{0, 1}, 10, []uint64{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(3)
			observe(b, tt.observed...)
			if got := ids(b.Snapshot(tt.limit)); !equal(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			if b.Total() != uint64(len(tt.observed)) {
				t.Fatalf("expected total %d, got %d", len(tt.observed), b.Total())
			}
		})
	}
}

func TestBufferLast(t *testing.T) {
	b := New(2)
	observe(b, 7, 8, 9)
	last, ok := b.Last()
	if !ok || last.ID != 9 {
		t.Fatalf("expected last 9, got %v (%v)", last.ID, ok)
	}
	if b.Len() != 2 {
		t.Fatalf("expected len 2, got %d", b.Len())
	}
}

func TestBufferReset(t *testing.T) {
	b := New(2)
	observe(b, 1, 2, 3)
	b.Reset()
	if b.Len() != 0 || b.Total() != 0 {
		t.Fatalf("expected empty buffer after reset")
	}
	observe(b, 4)
	if got := ids(b.Snapshot(0)); !equal(got, []uint64{4}) {
		t.Fatalf("expected [4], got %v", got)
	}
}

func TestBufferConcurrent(t *testing.T) {
	b := New(16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.ObserveIteration(controller.Iteration{ID: uint64(i)})
				_ = b.Snapshot(4)
			}
		}()
	}
	wg.Wait()
	if b.Total() != 800 || b.Len() != 16 {
		t.Fatalf("expected total 800 and len 16, got %d and %d", b.Total(), b.Len())
	}
}

func TestBufferAsObserver(t *testing.T) {
	var _ controller.Observer = New(1)
}
