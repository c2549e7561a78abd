package ledger

// Bucket is a named key/value map living alongside the store's own state.
// Reads go through the bucket directly; mutations go through a Tx so they
// join the enclosing unit of work's journal. A bucket must only be touched
// inside the Update or View callback of the store it belongs to.
type Bucket[K comparable, V any] struct {
	name  string
	items map[K]V
}

// NewBucket creates an empty bucket. The name is informational only.
func NewBucket[K comparable, V any](name string) *Bucket[K, V] {
	return &Bucket[K, V]{name: name, items: make(map[K]V)}
}

// Get returns the value stored at key, if any.
func (b *Bucket[K, V]) Get(key K) (V, bool) {
	v, ok := b.items[key]
	return v, ok
}

// Contains reports whether key is present.
func (b *Bucket[K, V]) Contains(key K) bool {
	_, ok := b.items[key]
	return ok
}

// Len returns the number of entries.
func (b *Bucket[K, V]) Len() int {
	return len(b.items)
}

// SetEntry inserts or replaces the value at key within tx.
func SetEntry[K comparable, V any](tx *Tx, b *Bucket[K, V], key K, value V) {
	prev, existed := b.items[key]
	tx.note(func() {
		if existed {
			b.items[key] = prev
		} else {
			delete(b.items, key)
		}
	})
	b.items[key] = value
}

// RemoveEntry deletes the value at key within tx.
func RemoveEntry[K comparable, V any](tx *Tx, b *Bucket[K, V], key K) {
	prev, existed := b.items[key]
	if !existed {
		return
	}
	tx.note(func() { b.items[key] = prev })
	delete(b.items, key)
}
