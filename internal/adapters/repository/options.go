package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCapacityHint preallocates room for n results.
func WithCapacityHint(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.capacityHint = n
		}
	}
}
