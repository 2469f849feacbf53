package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DBPath    string `envconfig:"DB_PATH" default:"meetremind.db"`
	Port      string `envconfig:"PORT" default:"8080"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Calendar feed
	CalendarICSURL  string        `envconfig:"CALENDAR_ICS_URL" required:"true"`
	CalendarTimeout time.Duration `envconfig:"CALENDAR_FETCH_TIMEOUT" default:"15s"`

	// Scheduling (standard cron specs; Sunday noon for the weekly
	// reminder, first of the month for the expired-event cleanup)
	WeeklyCron         string `envconfig:"WEEKLY_REMINDER_CRON" default:"0 12 * * 0"`
	CleanupCron        string `envconfig:"CLEANUP_CRON" default:"0 3 1 * *"`
	SyncCron           string `envconfig:"CALENDAR_SYNC_CRON" default:"@every 12h"`
	ReminderWindowDays int    `envconfig:"REMINDER_WINDOW_DAYS" default:"7"`
	NotifyURL          string `envconfig:"REMINDER_NOTIFY_URL"`

	// SMS gateway
	GatewayBaseURL   string  `envconfig:"SMS_GATEWAY_BASE_URL" required:"true"`
	GatewayAccountID string  `envconfig:"SMS_GATEWAY_ACCOUNT_ID" required:"true"`
	GatewayAuthToken string  `envconfig:"SMS_GATEWAY_AUTH_TOKEN" required:"true"`
	GatewayFrom      string  `envconfig:"SMS_GATEWAY_FROM_NUMBER"`
	GatewayRPS       float64 `envconfig:"SMS_GATEWAY_RPS" default:"1"`
	GatewayBurst     int     `envconfig:"SMS_GATEWAY_BURST" default:"2"`

	// Delivery callback endpoint as configured at the gateway; must match
	// the exact public URL or signature verification fails.
	PublicWebhookURL string `envconfig:"PUBLIC_WEBHOOK_URL" required:"true"`

	// Startup gateway probe
	ProbeAttempts int           `envconfig:"GATEWAY_PROBE_ATTEMPTS" default:"5"`
	ProbeDelay    time.Duration `envconfig:"GATEWAY_PROBE_DELAY" default:"2s"`
}

// Load reads an optional .env file, then the environment.
func Load() Config {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}
