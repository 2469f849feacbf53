package dispatch

import (
	"testing"

	"meetremind/internal/domain"
)

func entry(id int64) domain.DispatchEntry {
	return domain.DispatchEntry{ContactID: id, Phone: "+1555000", Body: "hi"}
}

func TestQueueDedupByContact(t *testing.T) {
	var q Queue
	q.Enqueue([]domain.DispatchEntry{entry(1), entry(2), entry(1)})
	if q.Size() != 2 {
		t.Fatalf("size = %d, want 2", q.Size())
	}
	q.Enqueue([]domain.DispatchEntry{entry(2)})
	if q.Size() != 2 {
		t.Fatalf("re-enqueue grew queue to %d", q.Size())
	}
}

func TestQueueFIFO(t *testing.T) {
	var q Queue
	q.Enqueue([]domain.DispatchEntry{entry(3), entry(1), entry(2)})
	want := []int64{3, 1, 2}
	for _, id := range want {
		e, ok := q.PopFront()
		if !ok || e.ContactID != id {
			t.Fatalf("PopFront = (%v, %v), want id %d", e.ContactID, ok, id)
		}
	}
	if _, ok := q.PopFront(); ok {
		t.Fatal("pop from empty queue succeeded")
	}
}

func TestQueueRemoveKeepsOrder(t *testing.T) {
	var q Queue
	q.Enqueue([]domain.DispatchEntry{entry(1), entry(2), entry(3)})
	if !q.Remove(2) {
		t.Fatal("Remove(2) = false")
	}
	if got := q.PeekIDs(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("PeekIDs = %v, want [1 3]", got)
	}
	if q.Remove(2) {
		t.Fatal("second Remove(2) = true")
	}
	// An id already queued stays in place; a removed one can come back.
	q.Enqueue([]domain.DispatchEntry{entry(1), entry(2)})
	if got := q.PeekIDs(); len(got) != 3 || got[2] != 2 {
		t.Fatalf("PeekIDs after re-enqueue = %v, want [1 3 2]", got)
	}
}

func TestQueueContains(t *testing.T) {
	var q Queue
	q.Enqueue([]domain.DispatchEntry{entry(7)})
	if !q.Contains(7) {
		t.Fatal("Contains(7) = false")
	}
	if q.Contains(8) {
		t.Fatal("Contains(8) = true")
	}
}
