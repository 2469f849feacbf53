package domain

import (
	"errors"
	"strings"
	"time"
)

// Date and time layouts used throughout the store and the template engine.
// Events keep date and time as separate strings so that lexicographic
// comparison matches chronological order.
const (
	DateLayout        = "2006-01-02"
	TimeLayout        = "15:04"
	DisplayDateLayout = "02.01.2006"
	InstantLayout     = DateLayout + " " + TimeLayout
)

var (
	// ErrNoUpcomingEvent signals that a contact has no event strictly in
	// the future. Callers that enqueue sends skip the contact on this.
	ErrNoUpcomingEvent = errors.New("no upcoming event for contact")

	// ErrContactMissing is returned when an event insert references a
	// contact id that does not exist.
	ErrContactMissing = errors.New("event references missing contact")

	ErrMissingFields = errors.New("missing required fields")
)

type Contact struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Sex       string `json:"sex"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type Event struct {
	ID             int64  `json:"id"`
	Date           string `json:"date"` // yyyy-MM-dd
	Time           string `json:"time"` // HH:mm
	ContactOwnerID int64  `json:"contactOwnerId"`
	Notified       bool   `json:"notified"`
}

// Instant combines the event's date and time into a single local instant.
func (e Event) Instant() (time.Time, error) {
	return time.ParseInLocation(InstantLayout, e.Date+" "+e.Time, time.Local)
}

// SendRecord logs the completion of one send batch. Only the most recent
// record (by date, then time, descending) is normally consulted.
type SendRecord struct {
	ID   int64  `json:"id"`
	Time string `json:"lastSentTime"` // HH:mm
	Date string `json:"lastSentDate"` // dd.MM.yyyy
}

// CalendarEntry is one entry of the external calendar feed. The title is
// untrusted free text; the matcher tokenizes it defensively.
type CalendarEntry struct {
	Title string
	Start time.Time
}

// Match pairs a contact with the date and time of its first matching
// calendar entry.
type Match struct {
	ContactID int64
	Date      string // yyyy-MM-dd
	Time      string // HH:mm
}

// DispatchEntry is one pending SMS in the in-memory dispatch queue.
// Uniqueness in the queue is by ContactID.
type DispatchEntry struct {
	ContactID int64  `json:"contactId"`
	Phone     string `json:"phone"`
	Body      string `json:"body"`
	FullName  string `json:"fullName"`
}

type SaveContactRequest struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Sex       string `json:"sex"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

func (r SaveContactRequest) Validate() error {
	if r.ID == 0 || r.FirstName == "" || r.Phone == "" {
		return ErrMissingFields
	}
	return nil
}

func (r SaveContactRequest) Contact() Contact {
	return Contact{
		ID:        r.ID,
		Title:     r.Title,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Sex:       r.Sex,
		Phone:     r.Phone,
		Message:   r.Message,
	}
}

type EnqueueRequest struct {
	ContactIDs []int64 `json:"contactIds"`
}

func (r EnqueueRequest) Validate() error {
	if len(r.ContactIDs) == 0 {
		return ErrMissingFields
	}
	return nil
}

type SyncResult struct {
	Matched int `json:"matched"`
	Pruned  int `json:"pruned"`
}
