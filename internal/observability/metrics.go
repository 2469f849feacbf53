package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "meetremind_api_requests_total", Help: "API requests"},
		[]string{"endpoint", "status"},
	)
	SMSSubmits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "meetremind_sms_submit_total", Help: "SMS gateway submit outcomes"},
		[]string{"result", "http_status"},
	)
	SubmitLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "meetremind_sms_submit_latency_seconds", Help: "SMS gateway submit latency"},
	)
	DispatchResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "meetremind_dispatch_results_total", Help: "Delivery results by outcome"},
		[]string{"outcome"},
	)
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "meetremind_queue_depth", Help: "Entries waiting in the dispatch queue"},
	)
	CalendarSync = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "meetremind_calendar_sync_total", Help: "Calendar reconciliation actions"},
		[]string{"action"},
	)
	UpcomingUnnotified = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "meetremind_upcoming_unnotified", Help: "Unnotified events inside the reminder window"},
	)
	Reminders = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "meetremind_reminders_total", Help: "Weekly reminders raised"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "meetremind_webhook_events_total", Help: "Delivery callback events"},
		[]string{"status"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, SMSSubmits, SubmitLatency, DispatchResults,
		QueueDepth, CalendarSync, UpcomingUnnotified, Reminders, WebhookEvents)
}
