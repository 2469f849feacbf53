package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"meetremind/internal/domain"
)

// Service is the application surface the API exposes over HTTP.
type Service interface {
	SyncCalendar(ctx context.Context) (domain.SyncResult, error)
	PrepareSend(ctx context.Context, contactIDs []int64) (string, []domain.DispatchEntry, error)
	UpcomingCount(ctx context.Context, days int) (int, error)
	Contacts(ctx context.Context) ([]domain.Contact, error)
	SaveContact(ctx context.Context, req domain.SaveContactRequest) error
	DeleteContact(ctx context.Context, id int64) error
	UpdateTemplate(ctx context.Context, id int64, message string) error
	LastSend(ctx context.Context) (domain.SendRecord, bool, error)
}

// Dispatcher is the queue surface the API exposes.
type Dispatcher interface {
	QueuedIDs() []int64
	Remove(contactID int64) bool
	SendNext(ctx context.Context)
	Size() int
}

type API struct {
	Svc        Service
	Dispatcher Dispatcher
}

func (a *API) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/sync", a.handleSync).Methods(http.MethodPost)

	mux.HandleFunc("/v1/contacts", a.handleListContacts).Methods(http.MethodGet)
	mux.HandleFunc("/v1/contacts", a.handleSaveContact).Methods(http.MethodPost)
	mux.HandleFunc("/v1/contacts/{id}", a.handleDeleteContact).Methods(http.MethodDelete)
	mux.HandleFunc("/v1/contacts/{id}/template", a.handleUpdateTemplate).Methods(http.MethodPut)

	mux.HandleFunc("/v1/queue", a.handleGetQueue).Methods(http.MethodGet)
	mux.HandleFunc("/v1/queue", a.handleEnqueue).Methods(http.MethodPost)
	mux.HandleFunc("/v1/queue/dispatch", a.handleDispatch).Methods(http.MethodPost)
	mux.HandleFunc("/v1/queue/{contactId}", a.handleDequeue).Methods(http.MethodDelete)

	mux.HandleFunc("/v1/reminders/upcoming", a.handleUpcoming).Methods(http.MethodGet)
	mux.HandleFunc("/v1/send-records/latest", a.handleLastSend).Methods(http.MethodGet)
}

func (a *API) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := a.Svc.SyncCalendar(r.Context())
	if errors.Is(err, domain.ErrContactMissing) {
		http.Error(w, ErrUnschedulable, http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		slog.Error("calendar sync failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := a.Svc.Contacts(r.Context())
	if err != nil {
		slog.Error("list contacts failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (a *API) handleSaveContact(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.Svc.SaveContact(r.Context(), req); err != nil {
		slog.Error("save contact failed", "err", err, "contact_id", req.ID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (a *API) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.Svc.DeleteContact(r.Context(), id); err != nil {
		slog.Error("delete contact failed", "err", err, "contact_id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	err := a.Svc.UpdateTemplate(r.Context(), id, req.Message)
	if errors.Is(err, domain.ErrContactMissing) {
		http.Error(w, ErrNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("update template failed", "err", err, "contact_id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	ids := a.Dispatcher.QueuedIDs()
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"contactIds": ids})
}

func (a *API) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req domain.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	batchID, entries, err := a.Svc.PrepareSend(r.Context(), req.ContactIDs)
	if err != nil {
		slog.Error("prepare send failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"batchId":  batchID,
		"enqueued": len(entries),
		"queued":   a.Dispatcher.Size(),
	})
}

func (a *API) handleDequeue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "contactId")
	if !ok {
		return
	}
	if !a.Dispatcher.Remove(id) {
		http.Error(w, ErrNotFound, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDispatch(w http.ResponseWriter, r *http.Request) {
	a.Dispatcher.SendNext(r.Context())
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid days", http.StatusBadRequest)
			return
		}
		days = parsed
	}
	count, err := a.Svc.UpcomingCount(r.Context(), days)
	if err != nil {
		slog.Error("upcoming count failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count, "days": days})
}

func (a *API) handleLastSend(w http.ResponseWriter, r *http.Request) {
	rec, found, err := a.Svc.LastSend(r.Context())
	if err != nil {
		slog.Error("last send lookup failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if !found {
		http.Error(w, ErrNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, ErrInvalidID, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
