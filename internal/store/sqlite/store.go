package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"meetremind/internal/domain"
)

// Store is the embedded relational store for contacts, events and
// send-history. Single-row writes are atomic; multi-row batch updates run
// in one transaction per call but callers should not assume atomicity
// across calls.
type Store struct {
	DB *sql.DB
}

func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// modernc's driver is not safe for concurrent writers on one file.
	db.SetMaxOpenConns(1)

	s := &Store{DB: db}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.DB.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

// ---- contacts ----

// InsertContact is a no-op when a contact with the same id already exists
// (first write wins).
func (s *Store) InsertContact(ctx context.Context, c domain.Contact) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT OR IGNORE INTO contacts (id, title, first_name, last_name, sex, phone, message)
		VALUES (?,?,?,?,?,?,?)
	`, c.ID, c.Title, c.FirstName, c.LastName, c.Sex, c.Phone, c.Message)
	return err
}

func (s *Store) UpdateContact(ctx context.Context, c domain.Contact) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE contacts SET title=?, first_name=?, last_name=?, sex=?, phone=?, message=?
		WHERE id=?
	`, c.Title, c.FirstName, c.LastName, c.Sex, c.Phone, c.Message, c.ID)
	return err
}

// DeleteContact removes the contact and, via the foreign key, all of its
// events.
func (s *Store) DeleteContact(ctx context.Context, id int64) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM contacts WHERE id=?`, id)
	return err
}

func (s *Store) GetContact(ctx context.Context, id int64) (domain.Contact, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, title, first_name, last_name, sex, phone, message
		FROM contacts WHERE id=?
	`, id)
	var c domain.Contact
	err := row.Scan(&c.ID, &c.Title, &c.FirstName, &c.LastName, &c.Sex, &c.Phone, &c.Message)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, false, nil
	}
	if err != nil {
		return domain.Contact{}, false, err
	}
	return c, true, nil
}

func (s *Store) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, title, first_name, last_name, sex, phone, message
		FROM contacts ORDER BY last_name, first_name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.Title, &c.FirstName, &c.LastName, &c.Sex, &c.Phone, &c.Message); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---- events ----

// InsertEvents inserts the batch in one transaction. Rows colliding with an
// existing (contact, date, time) are ignored; a row referencing a missing
// contact fails the whole batch with domain.ErrContactMissing.
func (s *Store) InsertEvents(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, ev := range events {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO events (id, event_date, event_time, contact_owner_id, notified)
			VALUES (?,?,?,?,?)
		`, nullIfZero(ev.ID), ev.Date, ev.Time, ev.ContactOwnerID, boolToInt(ev.Notified))
		if err != nil {
			if isForeignKeyErr(err) {
				return fmt.Errorf("%w: contact %d", domain.ErrContactMissing, ev.ContactOwnerID)
			}
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) MarkEventNotified(ctx context.Context, eventID int64) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE events SET notified=1 WHERE id=?`, eventID)
	return err
}

func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM events WHERE id=?`, id)
	return err
}

// EventsOnOrAfter returns events whose date is on or after the given day,
// ascending by (date, time).
func (s *Store) EventsOnOrAfter(ctx context.Context, date string) ([]domain.Event, error) {
	return s.queryEvents(ctx, `
		SELECT id, event_date, event_time, contact_owner_id, notified
		FROM events WHERE event_date >= ?
		ORDER BY event_date, event_time
	`, date)
}

func (s *Store) EventsForContact(ctx context.Context, contactID int64) ([]domain.Event, error) {
	return s.queryEvents(ctx, `
		SELECT id, event_date, event_time, contact_owner_id, notified
		FROM events WHERE contact_owner_id = ?
		ORDER BY event_date, event_time
	`, contactID)
}

// UpcomingEventForContact returns the contact's earliest event strictly
// after now, or domain.ErrNoUpcomingEvent.
func (s *Store) UpcomingEventForContact(ctx context.Context, contactID int64, now time.Time) (domain.Event, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, event_date, event_time, contact_owner_id, notified
		FROM events
		WHERE contact_owner_id = ? AND (event_date || ' ' || event_time) > ?
		ORDER BY event_date, event_time
		LIMIT 1
	`, contactID, now.Format(domain.InstantLayout))

	var ev domain.Event
	var notified int
	err := row.Scan(&ev.ID, &ev.Date, &ev.Time, &ev.ContactOwnerID, &notified)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, domain.ErrNoUpcomingEvent
	}
	if err != nil {
		return domain.Event{}, err
	}
	ev.Notified = notified != 0
	return ev, nil
}

// CountUpcomingUnnotified counts unnotified events whose combined instant
// falls within [from, to).
func (s *Store) CountUpcomingUnnotified(ctx context.Context, from, to time.Time) (int, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events
		WHERE notified = 0
		  AND (event_date || ' ' || event_time) >= ?
		  AND (event_date || ' ' || event_time) < ?
	`, from.Format(domain.InstantLayout), to.Format(domain.InstantLayout))

	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ExpiredEvents lists events strictly before the given instant
// ("yyyy-MM-dd HH:mm"); a bare date works too and spares same-day events.
func (s *Store) ExpiredEvents(ctx context.Context, before string) ([]domain.Event, error) {
	return s.queryEvents(ctx, `
		SELECT id, event_date, event_time, contact_owner_id, notified
		FROM events WHERE (event_date || ' ' || event_time) < ?
		ORDER BY event_date, event_time
	`, before)
}

func (s *Store) DeleteExpiredEvents(ctx context.Context, before string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM events WHERE (event_date || ' ' || event_time) < ?
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var ev domain.Event
		var notified int
		if err := rows.Scan(&ev.ID, &ev.Date, &ev.Time, &ev.ContactOwnerID, &notified); err != nil {
			return nil, err
		}
		ev.Notified = notified != 0
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ---- send records ----

func (s *Store) InsertSendRecord(ctx context.Context, rec domain.SendRecord) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT OR IGNORE INTO send_records (id, sent_time, sent_date) VALUES (?,?,?)
	`, nullIfZero(rec.ID), rec.Time, rec.Date)
	return err
}

// LastSendRecord returns the most recent record by date then time,
// descending. Dates are stored dd.MM.yyyy, so ordering decomposes the
// string rather than comparing it whole.
func (s *Store) LastSendRecord(ctx context.Context) (domain.SendRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, sent_time, sent_date FROM send_records
		ORDER BY substr(sent_date,7,4) DESC, substr(sent_date,4,2) DESC,
		         substr(sent_date,1,2) DESC, sent_time DESC
		LIMIT 1
	`)
	var rec domain.SendRecord
	err := row.Scan(&rec.ID, &rec.Time, &rec.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SendRecord{}, false, nil
	}
	if err != nil {
		return domain.SendRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Store) DeleteSendRecord(ctx context.Context, id int64) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM send_records WHERE id=?`, id)
	return err
}

// ---- settings ----

func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=?`, key)
	var v string
	err := row.Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?,?)
		ON CONFLICT (key) DO UPDATE SET value=excluded.value
	`, key, value)
	return err
}

func nullIfZero(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isForeignKeyErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
