package engine

// pass is one pending subscriber notification, scheduled by a committed
// transition. version is the state version the commit produced.
type pass struct {
	version int64
}

// passQueue is a FIFO of pending notification passes.
//
// The queue is unbounded so that subscribers dispatching during a pass can
// schedule arbitrarily many follow-on passes without blocking.
//
// It is not safe for concurrent use on its own; Store.mu guards it.
type passQueue struct {
	passes []pass
}

// newPassQueue creates an empty queue.
func newPassQueue() *passQueue {
	return &passQueue{passes: make([]pass, 0, 8)}
}

// Enqueue adds a pass to the back of the queue.
func (q *passQueue) Enqueue(p pass) {
	q.passes = append(q.passes, p)
}

// TryDequeue removes and returns the front pass.
// Returns (pass{}, false) if the queue is empty.
func (q *passQueue) TryDequeue() (pass, bool) {
	if len(q.passes) == 0 {
		return pass{}, false
	}

	p := q.passes[0]

	// Reset to the start of the backing array once drained so the slice
	// does not creep forward and reallocate under steady load.
	if len(q.passes) == 1 {
		q.passes = q.passes[:0]
	} else {
		q.passes = q.passes[1:]
	}

	return p, true
}

// Len returns the number of pending passes.
func (q *passQueue) Len() int {
	return len(q.passes)
}
