package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"meetremind/internal/dispatch"
	"meetremind/internal/observability"
)

// ResultHandler consumes delivery callbacks from the SMS gateway.
type ResultHandler interface {
	HandleResult(ctx context.Context, res dispatch.Result) error
}

type Webhook struct {
	Handler         ResultHandler
	VerifySignature func(authToken, fullURL, provided string, form url.Values) bool
	AuthToken       string
	PublicURL       string
}

func (w *Webhook) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/webhooks/sms/status", w.handleStatus).Methods(http.MethodPost)
}

func (w *Webhook) handleStatus(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(rw, ErrBadForm, http.StatusBadRequest)
		return
	}
	if w.VerifySignature == nil || !w.VerifySignature(w.AuthToken, w.PublicURL, r.Header.Get("X-Gateway-Signature"), r.PostForm) {
		observability.WebhookEvents.WithLabelValues("bad_signature").Inc()
		http.Error(rw, ErrInvalidSignature, http.StatusUnauthorized)
		return
	}

	token, err := strconv.ParseInt(r.PostForm.Get("Token"), 10, 64)
	if err != nil {
		http.Error(rw, ErrBadForm, http.StatusBadRequest)
		return
	}
	remaining, err := strconv.Atoi(r.PostForm.Get("Remaining"))
	if err != nil || remaining < 0 {
		http.Error(rw, ErrBadForm, http.StatusBadRequest)
		return
	}
	code, err := strconv.Atoi(r.PostForm.Get("Code"))
	if err != nil {
		http.Error(rw, ErrBadForm, http.StatusBadRequest)
		return
	}

	res := dispatch.Result{ContactID: token, Remaining: remaining, Code: code}
	if dispatch.IsSuccess(code) {
		observability.WebhookEvents.WithLabelValues("delivered").Inc()
	} else {
		observability.WebhookEvents.WithLabelValues("failed").Inc()
	}

	if err := w.Handler.HandleResult(r.Context(), res); err != nil {
		slog.Error("handling delivery result failed", "err", err, "contact_id", token, "code", code)
		http.Error(rw, ErrDependency, http.StatusInternalServerError)
		return
	}
	rw.WriteHeader(http.StatusOK)
}
