package round

// Cache is a memo table keyed by entity identity. It is cleared wholesale at
// the end of a round.
type Cache[K comparable, V any] struct {
	entries map[K]V
}

var _ Clearable = (*Cache[int, int])(nil)

// NewCache creates an empty cache.
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]V)}
}

// Get retrieves a value from the cache.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value.
func (c *Cache[K, V]) Set(key K, value V) {
	c.entries[key] = value
}

// Delete removes a value.
func (c *Cache[K, V]) Delete(key K) {
	delete(c.entries, key)
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	return len(c.entries)
}

// ClearCache removes every entry.
func (c *Cache[K, V]) ClearCache() {
	c.entries = make(map[K]V)
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. Failed computations are not cached.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = v
	return v, nil
}
