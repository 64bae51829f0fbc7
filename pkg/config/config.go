package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type DB struct {
	Url             string        `envconfig:"URL"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
}

// Ledger tunes the core: where state lives and how contention is handled.
type Ledger struct {
	Store         string        `envconfig:"STORE" default:"memory"` // memory | postgres
	Timezone      string        `envconfig:"TIMEZONE" default:"UTC"`
	LockTimeout   time.Duration `envconfig:"LOCK_TIMEOUT" default:"5s"`
	RetryAttempts int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	Migrate       bool          `envconfig:"MIGRATE" default:"true"`
	// Zero keeps the built-in ceilings.
	DailyWithdrawLimit decimal.Decimal `envconfig:"DAILY_WITHDRAW_LIMIT"`
	DailyTransferLimit decimal.Decimal `envconfig:"DAILY_TRANSFER_LIMIT"`
}

// Location resolves Timezone, falling back to UTC for an empty value.
func (l *Ledger) Location() (*time.Location, error) {
	if l == nil || l.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(l.Timezone)
}

type EventBus struct {
	Driver string `envconfig:"DRIVER" default:"memory"` // memory | redis | kafka
}

type Redis struct {
	URL       string `envconfig:"URL" default:"redis://localhost:6379/0"`
	KeyPrefix string `envconfig:"KEY_PREFIX" default:"ledger:"`
}

type Kafka struct {
	Brokers       string `envconfig:"BROKERS" default:"localhost:9092"`
	GroupID       string `envconfig:"GROUP_ID" default:"ledger"`
	TopicPrefix   string `envconfig:"TOPIC_PREFIX" default:"ledger.events"`
	SASLUsername  string `envconfig:"SASL_USERNAME"`
	SASLPassword  string `envconfig:"SASL_PASSWORD"`
	TLSEnabled    bool   `envconfig:"TLS_ENABLED" default:"false"`
	TLSCAFile     string `envconfig:"TLS_CA_FILE"`
	TLSCertFile   string `envconfig:"TLS_CERT_FILE"`
	TLSKeyFile    string `envconfig:"TLS_KEY_FILE"`
	TLSSkipVerify bool   `envconfig:"TLS_SKIP_VERIFY" default:"false"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[ledger]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Ledger    *Ledger    `envconfig:"LEDGER"`
	EventBus  *EventBus  `envconfig:"EVENTBUS"`
	Redis     *Redis     `envconfig:"REDIS"`
	Kafka     *Kafka     `envconfig:"KAFKA"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
}
