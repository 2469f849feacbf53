package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"meetremind/internal/domain"
	"meetremind/internal/observability"
)

// Delivery status codes reported through the transport's completion
// callback. -1 is the primary OK code; 1 and 4 are alternate codes the
// gateway also reports for successfully handed-off messages. This
// tri-valued success set is a fixed external contract.
const StatusOK = -1

func IsSuccess(code int) bool {
	return code == StatusOK || code == 1 || code == 4
}

// Outbound is one message handed to the transport. Remaining carries the
// queue length at dispatch time so the completion callback can decide
// whether more sends are pending.
type Outbound struct {
	ContactID int64
	Phone     string
	Body      string
	Remaining int
}

// Result is the transport's completion callback payload. ContactID is the
// correlation token attached at dispatch time.
type Result struct {
	ContactID int64
	Remaining int
	Code      int
}

// Transport submits one message. Delivery completion arrives later as a
// Result; a synchronous error means the submit itself failed.
type Transport interface {
	Send(ctx context.Context, msg Outbound) error
}

// EventStore is the slice of the persistence store the dispatcher needs
// to track notified state and batch completions.
type EventStore interface {
	UpcomingEventForContact(ctx context.Context, contactID int64, now time.Time) (domain.Event, error)
	MarkEventNotified(ctx context.Context, eventID int64) error
	InsertSendRecord(ctx context.Context, rec domain.SendRecord) error
}

// Dispatcher owns the queue and serializes all access to it. It is
// constructed once at the process root and passed to its consumers; there
// is no global instance.
type Dispatcher struct {
	transport Transport
	store     EventStore
	now       func() time.Time

	mu    sync.Mutex
	queue Queue

	subsMu sync.Mutex
	subs   []chan struct{}
}

func NewDispatcher(transport Transport, store EventStore) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		store:     store,
		now:       time.Now,
	}
}

func (d *Dispatcher) Enqueue(entries []domain.DispatchEntry) {
	d.mu.Lock()
	d.queue.Enqueue(entries)
	size := d.queue.Size()
	d.mu.Unlock()

	observability.QueueDepth.Set(float64(size))
	d.notify()
}

func (d *Dispatcher) Remove(contactID int64) bool {
	d.mu.Lock()
	removed := d.queue.Remove(contactID)
	size := d.queue.Size()
	d.mu.Unlock()

	if removed {
		observability.QueueDepth.Set(float64(size))
		d.notify()
	}
	return removed
}

func (d *Dispatcher) QueuedIDs() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.PeekIDs()
}

func (d *Dispatcher) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Size()
}

// SendNext pops the front entry and submits it to the transport. An empty
// queue is a no-op. Each entry is attempted exactly once: a failed submit
// is logged, never re-enqueued, and the queue moves on.
//
// The submit outlives the caller: HTTP handlers pass a request context
// that dies when the handler returns, so the goroutine runs detached from
// the caller's cancellation.
func (d *Dispatcher) SendNext(ctx context.Context) {
	d.mu.Lock()
	entry, ok := d.queue.PopFront()
	remaining := d.queue.Size()
	d.mu.Unlock()
	if !ok {
		return
	}

	observability.QueueDepth.Set(float64(remaining))
	d.notify()

	ctx = context.WithoutCancel(ctx)
	go func() {
		err := d.transport.Send(ctx, Outbound{
			ContactID: entry.ContactID,
			Phone:     entry.Phone,
			Body:      entry.Body,
			Remaining: remaining,
		})
		if err != nil {
			slog.Error("sms submit failed",
				"contact_id", entry.ContactID,
				"full_name", entry.FullName,
				"err", err,
			)
			observability.DispatchResults.WithLabelValues("submit_error").Inc()
			if remaining > 0 {
				d.SendNext(ctx)
			}
		}
	}()
}

// HandleResult processes the delivery callback for one entry. On success
// the contact's upcoming event is marked notified, and the completion of
// the whole batch (Remaining == 0) is recorded in send-history. Failures
// are surfaced, not retried. Either way the queue advances while entries
// remain.
func (d *Dispatcher) HandleResult(ctx context.Context, res Result) error {
	if IsSuccess(res.Code) {
		if err := d.markNotified(ctx, res.ContactID); err != nil {
			return err
		}
		observability.DispatchResults.WithLabelValues("success").Inc()

		if res.Remaining == 0 {
			now := d.now()
			rec := domain.SendRecord{
				Time: now.Format(domain.TimeLayout),
				Date: now.Format(domain.DisplayDateLayout),
			}
			if err := d.store.InsertSendRecord(ctx, rec); err != nil {
				slog.Error("recording send batch failed", "err", err)
			}
		}
	} else {
		observability.DispatchResults.WithLabelValues("failure").Inc()
		slog.Error("sms delivery failed", "contact_id", res.ContactID, "code", res.Code)
	}

	d.notify()
	if res.Remaining > 0 {
		d.SendNext(ctx)
	}
	return nil
}

func (d *Dispatcher) markNotified(ctx context.Context, contactID int64) error {
	ev, err := d.store.UpcomingEventForContact(ctx, contactID, d.now())
	if errors.Is(err, domain.ErrNoUpcomingEvent) {
		slog.Warn("delivery confirmed but no upcoming event", "contact_id", contactID)
		return nil
	}
	if err != nil {
		return err
	}
	return d.store.MarkEventNotified(ctx, ev.ID)
}

// Subscribe returns a channel that receives a signal after every queue
// mutation and completed send. The channel has a one-slot buffer; slow
// consumers coalesce signals instead of blocking the dispatcher.
func (d *Dispatcher) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	d.subsMu.Lock()
	d.subs = append(d.subs, ch)
	d.subsMu.Unlock()
	return ch
}

func (d *Dispatcher) notify() {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	for _, ch := range d.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
