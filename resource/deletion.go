package resource

import (
	"sort"
	"sync"
)

// Freer is anything owning a device object released by Free.
// *Handle[T], *Buffer and *Texture implement it.
type Freer interface {
	Free()
}

type pendingFree struct {
	submission uint64
	f          Freer
}

// DeletionQueue defers freeing resources until the GPU has finished the
// submission in which they were last used.
//
// DeletionQueue is safe for concurrent use.
type DeletionQueue struct {
	mu      sync.Mutex
	pending []pendingFree
}

// Defer schedules f to be freed once submission has completed.
// The queue takes ownership; the caller must not free f itself.
func (q *DeletionQueue) Defer(submission uint64, f Freer) {
	if f == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, pendingFree{submission: submission, f: f})
	q.mu.Unlock()
}

// Collect frees every resource whose submission is at or below completed and
// returns how many were freed. Resources are freed in submission order.
func (q *DeletionQueue) Collect(completed uint64) int {
	q.mu.Lock()
	var ready, keep []pendingFree
	for _, p := range q.pending {
		if p.submission <= completed {
			ready = append(ready, p)
		} else {
			keep = append(keep, p)
		}
	}
	q.pending = keep
	q.mu.Unlock()

	sort.SliceStable(ready, func(i, j int) bool { return ready[i].submission < ready[j].submission })
	for _, p := range ready {
		p.f.Free()
	}
	return len(ready)
}

// Flush frees everything regardless of submission. Call after the device is idle.
func (q *DeletionQueue) Flush() int {
	q.mu.Lock()
	all := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, p := range all {
		p.f.Free()
	}
	return len(all)
}

// Len returns the number of pending frees.
func (q *DeletionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
