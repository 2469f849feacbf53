package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"meetremind/internal/calendar"
	"meetremind/internal/domain"
	"meetremind/internal/matcher"
	"meetremind/internal/observability"
	"meetremind/internal/template"
	"meetremind/internal/util"
)

// Store is the slice of the persistence layer the service uses.
type Store interface {
	InsertContact(ctx context.Context, c domain.Contact) error
	UpdateContact(ctx context.Context, c domain.Contact) error
	DeleteContact(ctx context.Context, id int64) error
	GetContact(ctx context.Context, id int64) (domain.Contact, bool, error)
	ListContacts(ctx context.Context) ([]domain.Contact, error)

	InsertEvents(ctx context.Context, events []domain.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	EventsOnOrAfter(ctx context.Context, date string) ([]domain.Event, error)
	UpcomingEventForContact(ctx context.Context, contactID int64, now time.Time) (domain.Event, error)
	CountUpcomingUnnotified(ctx context.Context, from, to time.Time) (int, error)
	DeleteExpiredEvents(ctx context.Context, before string) (int64, error)

	LastSendRecord(ctx context.Context) (domain.SendRecord, bool, error)
}

// Queue receives the prepared dispatch entries.
type Queue interface {
	Enqueue(entries []domain.DispatchEntry)
}

// ReminderService coordinates calendar sync, contact bookkeeping, and
// batch preparation. Store mutations are announced on the Subscribe
// channel; queue mutations are announced by the dispatcher itself.
type ReminderService struct {
	Store    Store
	Calendar calendar.Provider
	Queue    Queue
	Now      func() time.Time

	subsMu sync.Mutex
	subs   []chan struct{}
}

func NewReminderService(store Store, cal calendar.Provider, queue Queue) *ReminderService {
	return &ReminderService{
		Store:    store,
		Calendar: cal,
		Queue:    queue,
		Now:      time.Now,
	}
}

// SyncCalendar reconciles the calendar feed against the contact list:
// titled entries matching a known contact become events, and stored
// future events whose calendar entry disappeared are pruned.
func (s *ReminderService) SyncCalendar(ctx context.Context) (domain.SyncResult, error) {
	entries, err := s.Calendar.Entries(ctx)
	if err != nil {
		observability.CalendarSync.WithLabelValues("fetch_error").Inc()
		return domain.SyncResult{}, fmt.Errorf("fetching calendar: %w", err)
	}

	contacts, err := s.Store.ListContacts(ctx)
	if err != nil {
		return domain.SyncResult{}, err
	}

	matches := matcher.MatchContacts(contacts, entries)
	events := make([]domain.Event, 0, len(matches))
	for _, m := range matches {
		events = append(events, domain.Event{
			Date:           m.Date,
			Time:           m.Time,
			ContactOwnerID: m.ContactID,
		})
	}
	if err := s.Store.InsertEvents(ctx, events); err != nil {
		observability.CalendarSync.WithLabelValues("insert_error").Inc()
		return domain.SyncResult{}, err
	}

	now := s.Now()
	stored, err := s.Store.EventsOnOrAfter(ctx, now.Format(domain.DateLayout))
	if err != nil {
		return domain.SyncResult{}, err
	}
	stale := matcher.StaleEvents(stored, entries, now)
	for _, ev := range stale {
		if err := s.Store.DeleteEvent(ctx, ev.ID); err != nil {
			return domain.SyncResult{}, err
		}
	}

	observability.CalendarSync.WithLabelValues("ok").Inc()
	slog.Info("calendar synced", "matched", len(events), "pruned", len(stale))
	s.notify()
	return domain.SyncResult{Matched: len(events), Pruned: len(stale)}, nil
}

// Subscribe returns a channel that receives a signal after every store
// mutation the service performs (sync, contact changes, cleanup). The
// channel has a one-slot buffer; slow consumers coalesce signals.
func (s *ReminderService) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subsMu.Lock()
	s.subs = append(s.subs, ch)
	s.subsMu.Unlock()
	return ch
}

func (s *ReminderService) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// PrepareSend renders each contact's message against their next upcoming
// event and enqueues the results as one batch. Contacts without an
// upcoming event, or unknown ids, are skipped rather than failing the
// batch. Returns the batch id and the entries actually enqueued.
func (s *ReminderService) PrepareSend(ctx context.Context, contactIDs []int64) (string, []domain.DispatchEntry, error) {
	batchID := util.NewBatchID()
	now := s.Now()

	entries := make([]domain.DispatchEntry, 0, len(contactIDs))
	for _, id := range contactIDs {
		contact, found, err := s.Store.GetContact(ctx, id)
		if err != nil {
			return "", nil, err
		}
		if !found {
			slog.Warn("skipping unknown contact", "contact_id", id, "batch_id", batchID)
			continue
		}

		ev, err := s.Store.UpcomingEventForContact(ctx, id, now)
		if errors.Is(err, domain.ErrNoUpcomingEvent) {
			slog.Warn("skipping contact without upcoming event",
				"contact_id", id, "batch_id", batchID)
			continue
		}
		if err != nil {
			return "", nil, err
		}

		entries = append(entries, domain.DispatchEntry{
			ContactID: contact.ID,
			Phone:     util.NormalizePhone(contact.Phone),
			Body:      template.Render(contact.Message, ev.Date, ev.Time),
			FullName:  contact.FullName(),
		})
	}

	s.Queue.Enqueue(entries)
	slog.Info("batch prepared", "batch_id", batchID,
		"requested", len(contactIDs), "enqueued", len(entries))
	return batchID, entries, nil
}

// UpcomingCount returns the unnotified events in [now, now+days).
func (s *ReminderService) UpcomingCount(ctx context.Context, days int) (int, error) {
	now := s.Now()
	return s.Store.CountUpcomingUnnotified(ctx, now, now.AddDate(0, 0, days))
}

// CleanupExpired removes events whose instant has passed. Runs monthly;
// past events only matter for the send-history, which lives elsewhere.
func (s *ReminderService) CleanupExpired(ctx context.Context) (int64, error) {
	before := s.Now().Format(domain.InstantLayout)
	n, err := s.Store.DeleteExpiredEvents(ctx, before)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("expired events removed", "count", n)
		s.notify()
	}
	return n, nil
}

func (s *ReminderService) Contacts(ctx context.Context) ([]domain.Contact, error) {
	return s.Store.ListContacts(ctx)
}

// SaveContact inserts a contact. Inserting an id that already exists is
// a no-op; the stored row wins.
func (s *ReminderService) SaveContact(ctx context.Context, req domain.SaveContactRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	c := req.Contact()
	c.Phone = util.NormalizePhone(c.Phone)
	if err := s.Store.InsertContact(ctx, c); err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *ReminderService) DeleteContact(ctx context.Context, id int64) error {
	if err := s.Store.DeleteContact(ctx, id); err != nil {
		return err
	}
	s.notify()
	return nil
}

// UpdateTemplate replaces a contact's message template.
func (s *ReminderService) UpdateTemplate(ctx context.Context, id int64, message string) error {
	contact, found, err := s.Store.GetContact(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrContactMissing
	}
	contact.Message = message
	if err := s.Store.UpdateContact(ctx, contact); err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *ReminderService) LastSend(ctx context.Context) (domain.SendRecord, bool, error) {
	return s.Store.LastSendRecord(ctx)
}
