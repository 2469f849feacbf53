package dispatch

import "meetremind/internal/domain"

// Queue is the ordered, deduplicated set of pending SMS sends. Insertion
// order is send order. It carries no lock of its own: the owning
// Dispatcher is the single mutator.
type Queue struct {
	entries []domain.DispatchEntry
}

// Enqueue appends each entry whose contact id is not already queued.
// Duplicates are dropped silently; the first-enqueued version of a
// contact wins.
func (q *Queue) Enqueue(entries []domain.DispatchEntry) {
	for _, e := range entries {
		if q.Contains(e.ContactID) {
			continue
		}
		q.entries = append(q.entries, e)
	}
}

func (q *Queue) Contains(contactID int64) bool {
	for _, e := range q.entries {
		if e.ContactID == contactID {
			return true
		}
	}
	return false
}

// PopFront removes and returns the oldest entry.
func (q *Queue) PopFront() (domain.DispatchEntry, bool) {
	if len(q.entries) == 0 {
		return domain.DispatchEntry{}, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}

// Remove deletes the first entry with the given contact id; absent ids
// are a no-op.
func (q *Queue) Remove(contactID int64) bool {
	for i, e := range q.entries {
		if e.ContactID == contactID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// PeekIDs lists the queued contact ids in FIFO order.
func (q *Queue) PeekIDs() []int64 {
	ids := make([]int64, 0, len(q.entries))
	for _, e := range q.entries {
		ids = append(ids, e.ContactID)
	}
	return ids
}

func (q *Queue) Size() int { return len(q.entries) }
