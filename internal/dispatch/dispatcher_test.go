package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"meetremind/internal/domain"
)

type fakeTransport struct {
	sends chan Outbound
	err   error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sends: make(chan Outbound, 8)}
}

func (f *fakeTransport) Send(ctx context.Context, msg Outbound) error {
	f.sends <- msg
	return f.err
}

func (f *fakeTransport) waitSend(t *testing.T) Outbound {
	t.Helper()
	select {
	case msg := <-f.sends:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transport send")
		return Outbound{}
	}
}

type fakeEventStore struct {
	mu       sync.Mutex
	events   map[int64]domain.Event
	notified []int64
	records  []domain.SendRecord
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[int64]domain.Event)}
}

func (f *fakeEventStore) UpcomingEventForContact(ctx context.Context, contactID int64, now time.Time) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[contactID]
	if !ok {
		return domain.Event{}, domain.ErrNoUpcomingEvent
	}
	return ev, nil
}

func (f *fakeEventStore) MarkEventNotified(ctx context.Context, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, eventID)
	return nil
}

func (f *fakeEventStore) InsertSendRecord(ctx context.Context, rec domain.SendRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func TestIsSuccess(t *testing.T) {
	for _, code := range []int{StatusOK, 1, 4} {
		if !IsSuccess(code) {
			t.Errorf("IsSuccess(%d) = false", code)
		}
	}
	for _, code := range []int{0, 2, 3, 5, 100} {
		if IsSuccess(code) {
			t.Errorf("IsSuccess(%d) = true", code)
		}
	}
}

func TestSendNextSubmitsFront(t *testing.T) {
	tr := newFakeTransport()
	d := NewDispatcher(tr, newFakeEventStore())
	d.Enqueue([]domain.DispatchEntry{entry(1), entry(2)})

	d.SendNext(context.Background())
	msg := tr.waitSend(t)
	if msg.ContactID != 1 {
		t.Fatalf("sent contact %d, want 1", msg.ContactID)
	}
	if msg.Remaining != 1 {
		t.Fatalf("Remaining = %d, want 1", msg.Remaining)
	}
	if d.Size() != 1 {
		t.Fatalf("queue size after send = %d, want 1", d.Size())
	}
}

func TestSendNextEmptyQueueNoop(t *testing.T) {
	tr := newFakeTransport()
	d := NewDispatcher(tr, newFakeEventStore())
	d.SendNext(context.Background())
	select {
	case msg := <-tr.sends:
		t.Fatalf("unexpected send %+v from empty queue", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubmitErrorAdvancesQueue(t *testing.T) {
	tr := newFakeTransport()
	tr.err = context.DeadlineExceeded
	d := NewDispatcher(tr, newFakeEventStore())
	d.Enqueue([]domain.DispatchEntry{entry(1), entry(2)})

	d.SendNext(context.Background())
	first := tr.waitSend(t)
	second := tr.waitSend(t)
	if first.ContactID != 1 || second.ContactID != 2 {
		t.Fatalf("sends = %d, %d; want 1, 2", first.ContactID, second.ContactID)
	}
}

type slowTransport struct {
	ctxErrs chan error
}

func (s *slowTransport) Send(ctx context.Context, msg Outbound) error {
	time.Sleep(50 * time.Millisecond)
	s.ctxErrs <- ctx.Err()
	return nil
}

func TestSendNextOutlivesCallerContext(t *testing.T) {
	tr := &slowTransport{ctxErrs: make(chan error, 1)}
	d := NewDispatcher(tr, newFakeEventStore())
	d.Enqueue([]domain.DispatchEntry{entry(1)})

	// An HTTP handler's context dies as soon as the handler returns;
	// the in-flight submit must not die with it.
	ctx, cancel := context.WithCancel(context.Background())
	d.SendNext(ctx)
	cancel()

	select {
	case err := <-tr.ctxErrs:
		if err != nil {
			t.Fatalf("send context = %v after caller cancelled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transport send")
	}
}

func TestHandleResultSuccessMarksNotified(t *testing.T) {
	tr := newFakeTransport()
	st := newFakeEventStore()
	st.events[1] = domain.Event{ID: 42, ContactOwnerID: 1}
	d := NewDispatcher(tr, st)
	d.Enqueue([]domain.DispatchEntry{entry(1), entry(2)})
	d.SendNext(context.Background())
	tr.waitSend(t)

	if err := d.HandleResult(context.Background(), Result{ContactID: 1, Remaining: 1, Code: StatusOK}); err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if len(st.notified) != 1 || st.notified[0] != 42 {
		t.Fatalf("notified = %v, want [42]", st.notified)
	}
	if len(st.records) != 0 {
		t.Fatalf("send record written mid-batch: %v", st.records)
	}
	// Remaining > 0 drives the next send.
	msg := tr.waitSend(t)
	if msg.ContactID != 2 {
		t.Fatalf("next send = %d, want 2", msg.ContactID)
	}
}

func TestHandleResultBatchCompletionRecordsSend(t *testing.T) {
	tr := newFakeTransport()
	st := newFakeEventStoreWithEvent(1, 7)
	d := NewDispatcher(tr, st)
	d.now = func() time.Time {
		return time.Date(2026, 3, 5, 14, 30, 0, 0, time.Local)
	}

	if err := d.HandleResult(context.Background(), Result{ContactID: 1, Remaining: 0, Code: 4}); err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if len(st.records) != 1 {
		t.Fatalf("records = %v, want one", st.records)
	}
	rec := st.records[0]
	if rec.Date != "05.03.2026" || rec.Time != "14:30" {
		t.Fatalf("record = %q %q, want 05.03.2026 14:30", rec.Date, rec.Time)
	}
}

func newFakeEventStoreWithEvent(contactID, eventID int64) *fakeEventStore {
	st := newFakeEventStore()
	st.events[contactID] = domain.Event{ID: eventID, ContactOwnerID: contactID}
	return st
}

func TestHandleResultFailureNoRetry(t *testing.T) {
	tr := newFakeTransport()
	st := newFakeEventStoreWithEvent(1, 7)
	d := NewDispatcher(tr, st)
	d.Enqueue([]domain.DispatchEntry{entry(2)})

	if err := d.HandleResult(context.Background(), Result{ContactID: 1, Remaining: 1, Code: 0}); err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if len(st.notified) != 0 || len(st.records) != 0 {
		t.Fatalf("failure touched store: notified=%v records=%v", st.notified, st.records)
	}
	// The queue still advances past the failed entry.
	msg := tr.waitSend(t)
	if msg.ContactID != 2 {
		t.Fatalf("next send = %d, want 2", msg.ContactID)
	}
}

func TestHandleResultNoUpcomingEvent(t *testing.T) {
	tr := newFakeTransport()
	st := newFakeEventStore()
	d := NewDispatcher(tr, st)

	if err := d.HandleResult(context.Background(), Result{ContactID: 9, Remaining: 0, Code: StatusOK}); err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if len(st.notified) != 0 {
		t.Fatalf("notified = %v, want none", st.notified)
	}
}

func TestRemoveAndReEnqueue(t *testing.T) {
	d := NewDispatcher(newFakeTransport(), newFakeEventStore())
	d.Enqueue([]domain.DispatchEntry{entry(1), entry(2), entry(3)})
	if !d.Remove(2) {
		t.Fatal("Remove(2) = false")
	}
	if got := d.QueuedIDs(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("QueuedIDs = %v, want [1 3]", got)
	}
	d.Enqueue([]domain.DispatchEntry{entry(1)})
	if d.Size() != 2 {
		t.Fatalf("duplicate enqueue grew queue to %d", d.Size())
	}
}

func TestSubscribeSignalsOnMutation(t *testing.T) {
	d := NewDispatcher(newFakeTransport(), newFakeEventStore())
	ch := d.Subscribe()
	d.Enqueue([]domain.DispatchEntry{entry(1)})
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no signal after enqueue")
	}
}
