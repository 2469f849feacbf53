// mock-gateway emulates the SMS gateway for local development: it accepts
// message submits, then reports a delivery result to the status callback
// the way the real gateway does, signature included.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"

	"meetremind/internal/providers/smsgw"
)

type config struct {
	AccountID string `envconfig:"SMS_GATEWAY_ACCOUNT_ID" default:"mock_account"`
	AuthToken string `envconfig:"SMS_GATEWAY_AUTH_TOKEN" default:"mock_token"`
	Port      string `envconfig:"PORT" default:"8081"`

	// Result code reported on the callback: -1 delivered, anything outside
	// {-1, 1, 4} is treated as a failure by the consumer.
	ResultCode      int `envconfig:"MOCK_RESULT_CODE" default:"-1"`
	CallbackDelayMs int `envconfig:"MOCK_CALLBACK_DELAY_MS" default:"300"`
}

type server struct {
	cfg    config
	seq    uint64
	client *http.Client
}

func main() {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		slog.Error("mock gateway config load failed", "err", err)
		os.Exit(1)
	}

	s := &server{cfg: cfg, client: &http.Client{Timeout: 5 * time.Second}}

	router := mux.NewRouter()
	router.HandleFunc("/v1/messages", s.handleSend).Methods(http.MethodPost)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	slog.Info("mock gateway listening", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		slog.Error("mock gateway server failed", "err", err)
		os.Exit(1)
	}
}

func (s *server) handleSend(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != s.cfg.AccountID || pass != s.cfg.AuthToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "authentication error"})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid form data"})
		return
	}
	if r.Form.Get("To") == "" || r.Form.Get("Body") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing required parameter"})
		return
	}

	id := fmt.Sprintf("MG%06d", atomic.AddUint64(&s.seq, 1))
	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "status": "queued"})

	callback := r.Form.Get("StatusCallback")
	if callback == "" {
		return
	}
	token := r.Form.Get("Token")
	remaining := r.Form.Get("Remaining")
	go s.postResult(callback, token, remaining)
}

func (s *server) postResult(callback, token, remaining string) {
	time.Sleep(time.Duration(s.cfg.CallbackDelayMs) * time.Millisecond)

	form := url.Values{}
	form.Set("Token", token)
	form.Set("Remaining", remaining)
	form.Set("Code", strconv.Itoa(s.cfg.ResultCode))
	sig := smsgw.Sign(s.cfg.AuthToken, callback, form)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, callback, strings.NewReader(form.Encode()))
	if err != nil {
		slog.Error("mock callback request build failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(smsgw.SignatureHeader, sig)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("mock callback post failed", "url", callback, "err", err)
		return
	}
	resp.Body.Close()
	slog.Info("mock callback delivered",
		"token", token,
		"remaining", remaining,
		"code", s.cfg.ResultCode,
		"status", resp.StatusCode,
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
