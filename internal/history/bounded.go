package history

import (
	"slices"

	"github.com/hpungsan/objdb/internal/errors"
)

// DefaultMaxItems is the capacity used when none is given.
const DefaultMaxItems = 50

// Bounded is a stack that keeps at most Max() items, evicting the oldest.
// It is not safe for concurrent use.
type Bounded[T any] struct {
	items    []T
	maxItems int
}

// NewBounded creates a stack holding at most maxItems items.
// maxItems <= 0 means DefaultMaxItems.
func NewBounded[T any](maxItems int) *Bounded[T] {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Bounded[T]{maxItems: maxItems}
}

// Push appends item and drops items from the head while over capacity.
func (b *Bounded[T]) Push(item T) {
	b.items = append(b.items, item)
	if over := len(b.items) - b.maxItems; over > 0 {
		b.items = slices.Delete(b.items, 0, over)
	}
}

// Pop removes and returns the newest item.
// Returns false if the stack is empty.
func (b *Bounded[T]) Pop() (T, bool) {
	var zero T
	if len(b.items) == 0 {
		return zero, false
	}
	last := len(b.items) - 1
	item := b.items[last]
	b.items[last] = zero
	b.items = b.items[:last]
	return item, true
}

// RemoveAt removes the item at index i, counted from the oldest (0).
func (b *Bounded[T]) RemoveAt(i int) (T, error) {
	if i < 0 || i >= len(b.items) {
		var zero T
		return zero, errors.NewOutOfRange(i, len(b.items))
	}
	item := b.items[i]
	b.items = slices.Delete(b.items, i, i+1)
	return item, nil
}

// Len returns the number of items.
func (b *Bounded[T]) Len() int {
	return len(b.items)
}

// Max returns the capacity.
func (b *Bounded[T]) Max() int {
	return b.maxItems
}

// Items returns a copy of the items, oldest first.
func (b *Bounded[T]) Items() []T {
	return slices.Clone(b.items)
}
