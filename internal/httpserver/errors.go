package httpserver

const (
	ErrInvalidJSON      = "invalid json"
	ErrInvalidID        = "invalid id"
	ErrDependency       = "dependency error"
	ErrNotFound         = "not found"
	ErrBadForm          = "bad form"
	ErrInvalidSignature = "invalid signature"

	// Returned when a calendar entry matched a contact that vanished
	// before the event row could be written.
	ErrUnschedulable = "could not schedule this event"
)
