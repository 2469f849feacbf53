package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"meetremind/internal/calendar"
	"meetremind/internal/config"
	"meetremind/internal/dispatch"
	"meetremind/internal/httpserver"
	"meetremind/internal/logging"
	"meetremind/internal/observability"
	"meetremind/internal/providers/smsgw"
	"meetremind/internal/reminder"
	"meetremind/internal/service"
	"meetremind/internal/store/sqlite"
)

func main() {
	cfg := config.Load()
	logging.Init("meetremind", cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("opening store failed", "err", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer st.Close()

	observability.Register(prometheus.DefaultRegisterer)

	client := &smsgw.Client{
		AccountID:         cfg.GatewayAccountID,
		AuthToken:         cfg.GatewayAuthToken,
		HTTP:              &http.Client{Timeout: 10 * time.Second},
		FromNumber:        cfg.GatewayFrom,
		BaseURL:           cfg.GatewayBaseURL,
		StatusCallbackURL: cfg.PublicWebhookURL,
	}

	probe := dispatch.NewProbe(client, cfg.ProbeAttempts, cfg.ProbeDelay)
	if state := probe.Run(ctx); state != dispatch.ProbeReady {
		slog.Error("sms gateway unreachable", "state", state.String(), "attempts", cfg.ProbeAttempts)
		os.Exit(1)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smsgw",
		MaxRequests: 3,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 10 },
	})
	transport := &smsgw.Transport{
		Sender:  client,
		Limiter: rate.NewLimiter(rate.Limit(cfg.GatewayRPS), cfg.GatewayBurst),
		Breaker: cb,
	}

	dispatcher := dispatch.NewDispatcher(transport, st)
	feed := calendar.NewICSFeed(cfg.CalendarICSURL, cfg.CalendarTimeout)
	svc := service.NewReminderService(st, feed, dispatcher)

	// Keep the window gauge current as store data changes.
	changes := svc.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				n, err := svc.UpcomingCount(ctx, cfg.ReminderWindowDays)
				if err != nil {
					slog.Warn("refreshing upcoming count failed", "err", err)
					continue
				}
				observability.UpcomingUnnotified.Set(float64(n))
			}
		}
	}()

	var notifier reminder.Notifier = reminder.LogNotifier{}
	if cfg.NotifyURL != "" {
		notifier = reminder.NewHTTPNotifier(cfg.NotifyURL)
	}
	sched := &reminder.Scheduler{
		Trigger: &reminder.Trigger{
			Events:     st,
			Notifier:   notifier,
			WindowDays: cfg.ReminderWindowDays,
		},
		Cleanup: func(ctx context.Context) error {
			_, err := svc.CleanupExpired(ctx)
			return err
		},
		Sync: func(ctx context.Context) error {
			_, err := svc.SyncCalendar(ctx)
			return err
		},
		ReminderSpec: cfg.WeeklyCron,
		CleanupSpec:  cfg.CleanupCron,
		SyncSpec:     cfg.SyncCron,
	}
	if err := sched.Start(ctx); err != nil {
		slog.Error("starting scheduler failed", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	s := httpserver.New()
	api := &httpserver.API{Svc: svc, Dispatcher: dispatcher}
	api.Register(s.Mux)

	wh := &httpserver.Webhook{
		Handler:         dispatcher,
		VerifySignature: smsgw.VerifySignature,
		AuthToken:       cfg.GatewayAuthToken,
		PublicURL:       cfg.PublicWebhookURL,
	}
	wh.Register(s.Mux)

	s.Mux.Handle("/metrics", promhttp.Handler())
	s.Mux.HandleFunc("/healthz", httpserver.Healthz())
	s.Mux.HandleFunc("/readyz", httpserver.Readyz(2*time.Second, st.Ping))

	handler := httpserver.Logging(httpserver.Metrics(observability.APIRequests)(s.Mux))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("shutdown", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
