package enrich

// ring is a fixed-capacity history that drops its oldest entry on overflow.
type ring[T any] struct {
	items []T
	head  int
	size  int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{items: make([]T, capacity)}
}

// push appends v, evicting the oldest entry when full.
func (r *ring[T]) push(v T) {
	idx := (r.head + r.size) % len(r.items)
	if r.size == len(r.items) {
		r.items[r.head] = v
		r.head = (r.head + 1) % len(r.items)
		return
	}
	r.items[idx] = v
	r.size++
}

// removeFunc deletes every entry for which match returns true.
func (r *ring[T]) removeFunc(match func(T) bool) {
	kept := r.slice()
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head, r.size = 0, 0
	for _, v := range kept {
		if !match(v) {
			r.push(v)
		}
	}
}

// slice returns the entries oldest first.
func (r *ring[T]) slice() []T {
	out := make([]T, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.items[(r.head+i)%len(r.items)])
	}
	return out
}

func (r *ring[T]) len() int {
	return r.size
}
