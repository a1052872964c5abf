// Package dedupe tracks which records were already submitted for analysis so
// that a batch run never analyses the same file twice.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 50_000

// Deduper records seen job keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if not. The check and the insert happen under one lock.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so that it may be submitted again. Used when a
	// submission was recorded but could not be enqueued.
	Unrecord(ctx context.Context, key string)

	// Reset forgets every key.
	Reset(ctx context.Context)

	Size() int
}

// inMemoryDeduper keeps keys in a map plus a ring of insertion order. When
// bounded, the oldest key is evicted once the ring is full.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // key -> slot in ring, -1 when unbounded
	ring    []string
	next    int
	maxSize int // <= 0 means unbounded
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[key] = -1
		return false
	}

	// Slot is occupied by the oldest live key when the ring has wrapped.
	if old := d.ring[d.next]; old != "" {
		if slot, ok := d.seen[old]; ok && slot == d.next {
			delete(d.seen, old)
		}
	}
	d.ring[d.next] = key
	d.seen[key] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if slot >= 0 {
		d.ring[slot] = ""
	}
}

func (d *inMemoryDeduper) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seen = make(map[string]int)
	for i := range d.ring {
		d.ring[i] = ""
	}
	d.next = 0
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
