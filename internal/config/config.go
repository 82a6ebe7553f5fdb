package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/catatkas/backend/internal/validation"
)

type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Store    StoreConfig
	Redis    RedisConfig
	Database DatabaseConfig
	AMQP     AMQPConfig
	Ledger   LedgerConfig
	Voice    VoiceConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string        `validate:"required"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

type TelegramConfig struct {
	Token         string
	WebhookSecret string
	WebhookURL    string `validate:"omitempty,url"`
	APIEndpoint   string `validate:"required"`
}

type StoreConfig struct {
	Backend string `validate:"oneof=redis postgres memory"`
}

type RedisConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required"`
	Password string
	DB       int `validate:"gte=0"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string `validate:"required"`
	Port            string `validate:"required"`
	User            string
	Password        string
	Name            string `validate:"required"`
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AMQPConfig enables ledger event publishing when URL is set.
type AMQPConfig struct {
	URL      string
	Exchange string `validate:"required"`
}

type LedgerConfig struct {
	HistoryLimit int    `validate:"gt=0"`
	Timezone     string `validate:"required"`
	IDAttempts   int    `validate:"gte=1"`
}

type VoiceConfig struct {
	Enabled      bool
	LanguageCode string `validate:"required"`
}

type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=console json"`
}

var envBindings = map[string]string{
	"server.port":             "PORT",
	"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",

	"telegram.token":          "TELEGRAM_TOKEN",
	"telegram.webhook_secret": "TELEGRAM_WEBHOOK_SECRET",
	"telegram.webhook_url":    "TELEGRAM_WEBHOOK_URL",
	"telegram.api_endpoint":   "TELEGRAM_API_ENDPOINT",

	"store.backend": "STORE_BACKEND",

	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"database.host":     "DATABASE_HOST",
	"database.port":     "DATABASE_PORT",
	"database.user":     "DATABASE_USER",
	"database.password": "DATABASE_PASSWORD",
	"database.name":     "DATABASE_NAME",
	"database.ssl_mode": "DATABASE_SSL_MODE",

	"amqp.url":      "AMQP_URL",
	"amqp.exchange": "AMQP_EXCHANGE",

	"ledger.history_limit": "LEDGER_HISTORY_LIMIT",
	"ledger.timezone":      "LEDGER_TIMEZONE",
	"ledger.id_attempts":   "LEDGER_ID_ATTEMPTS",

	"voice.enabled":       "VOICE_ENABLED",
	"voice.language_code": "VOICE_LANGUAGE_CODE",

	"logging.level":  "LOG_LEVEL",
	"logging.format": "LOG_FORMAT",
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("telegram.api_endpoint", "https://api.telegram.org/bot%s/%s")

	v.SetDefault("store.backend", "redis")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "catatkas")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Minute*5)

	v.SetDefault("amqp.exchange", "ledger.events")

	v.SetDefault("ledger.history_limit", 10)
	v.SetDefault("ledger.timezone", "Asia/Jakarta")
	v.SetDefault("ledger.id_attempts", 3)

	v.SetDefault("voice.enabled", false)
	v.SetDefault("voice.language_code", "id-ID")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Telegram: TelegramConfig{
			Token:         v.GetString("telegram.token"),
			WebhookSecret: v.GetString("telegram.webhook_secret"),
			WebhookURL:    v.GetString("telegram.webhook_url"),
			APIEndpoint:   v.GetString("telegram.api_endpoint"),
		},
		Store: StoreConfig{
			Backend: v.GetString("store.backend"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		AMQP: AMQPConfig{
			URL:      v.GetString("amqp.url"),
			Exchange: v.GetString("amqp.exchange"),
		},
		Ledger: LedgerConfig{
			HistoryLimit: v.GetInt("ledger.history_limit"),
			Timezone:     v.GetString("ledger.timezone"),
			IDAttempts:   v.GetInt("ledger.id_attempts"),
		},
		Voice: VoiceConfig{
			Enabled:      v.GetBool("voice.enabled"),
			LanguageCode: v.GetString("voice.language_code"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validation.NewValidationHelper().ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		return fmt.Errorf("invalid configuration: ledger.timezone: %w", err)
	}
	return nil
}

// Location returns the zone used to render dates. Validate guarantees it loads.
func (c LedgerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
