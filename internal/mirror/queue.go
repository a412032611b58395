package mirror

import "sync"

// PendingQueue is a thread-safe FIFO of PendingEntry. The dispatcher reads
// whole batches from the head and, on recoverable failure, re-prepends the
// unfinished tail so ordering is preserved and no entry is lost.
type PendingQueue struct {
	mu    sync.Mutex
	items []PendingEntry
}

// NewPendingQueue returns an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

// Push appends an entry to the tail.
func (q *PendingQueue) Push(e PendingEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, e)
}

// TakeBatch removes and returns up to n entries from the head. It returns
// fewer than n if the queue holds fewer.
func (q *PendingQueue) TakeBatch(n int) []PendingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.items) {
		n = len(q.items)
	}

	batch := make([]PendingEntry, n)
	copy(batch, q.items[:n])
	q.items = q.items[n:]

	return batch
}

// Prepend re-inserts entries at the head, preserving their relative order.
// Used to requeue a batch (or the unfinished tail of one) after a
// recoverable failure.
func (q *PendingQueue) Prepend(entries []PendingEntry) {
	if len(entries) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(append([]PendingEntry{}, entries...), q.items...)
}

// Len reports the current queue length.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
