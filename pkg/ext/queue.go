package ext

// Queue is a generic ordered queue with removal by value. Pushing an
// element that is already present moves it to the back, which makes the
// queue double as a least-recently-used order.
type Queue[T comparable] []T

func (q *Queue[T]) Push(v T) {
	q.Remove(v)
	*q = append(*q, v)
}

func (q *Queue[T]) Remove(v T) {
	for i, item := range *q {
		if item == v {
			*q = append((*q)[:i], (*q)[i+1:]...)
			return
		}
	}
}

func (q *Queue[T]) Clear() {
	*q = (*q)[:0]
}

// Snapshot copies the current order, safe to iterate while mutating.
func (q Queue[T]) Snapshot() []T {
	out := make([]T, len(q))
	copy(out, q)
	return out
}
