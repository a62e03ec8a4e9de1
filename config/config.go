package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Booking  BookingConfig  `yaml:"booking"`
	Tickets  TicketsConfig  `yaml:"tickets"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Stripe   StripeConfig   `yaml:"stripe"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type HTTPConfig struct {
	Address string `yaml:"address" envconfig:"HTTP_ADDRESS"`
}

type DatabaseConfig struct {
	Host        string `yaml:"host" envconfig:"DB_HOST"`
	Port        int    `yaml:"port" envconfig:"DB_PORT"`
	User        string `yaml:"user" envconfig:"DB_USER"`
	Password    string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name        string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode     string `yaml:"ssl_mode" envconfig:"DB_SSLMODE"`
	AutoMigrate bool   `yaml:"auto_migrate" envconfig:"DB_AUTO_MIGRATE"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// MigrateURL is the golang-migrate pgx5 driver URL for the same database.
func (d DatabaseConfig) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`
	BookingTopic       string   `yaml:"booking_topic" envconfig:"KAFKA_BOOKING_TOPIC"`
	NotificationsTopic string   `yaml:"notifications_topic" envconfig:"KAFKA_NOTIFICATIONS_TOPIC"`
	GroupID            string   `yaml:"group_id" envconfig:"KAFKA_GROUP_ID"`
}

// AMQPConfig enables the RabbitMQ publisher instead of Kafka when URL is set.
type AMQPConfig struct {
	URL   string `yaml:"url" envconfig:"RABBITMQ_URL"`
	Queue string `yaml:"queue" envconfig:"RABBITMQ_QUEUE"`
}

type BookingConfig struct {
	Timezone         string   `yaml:"timezone" envconfig:"DEFAULT_TIMEZONE"`
	MinAdvanceHours  int      `yaml:"min_advance_hours" envconfig:"MIN_ADVANCE_HOURS"`
	BlackoutDates    []string `yaml:"blackout_dates" envconfig:"BLACKOUT_DATES"`
	SessionTTLHours  int      `yaml:"session_ttl_hours" envconfig:"SESSION_TTL_HOURS"`
	FlightsCacheTTL  int      `yaml:"flights_cache_ttl_seconds" envconfig:"FLIGHTS_CACHE_TTL_SECONDS"`
	IssueLockSeconds int      `yaml:"issue_lock_seconds" envconfig:"ISSUE_LOCK_SECONDS"`
}

func (b BookingConfig) MinAdvance() time.Duration {
	return time.Duration(b.MinAdvanceHours) * time.Hour
}

func (b BookingConfig) SessionTTL() time.Duration {
	return time.Duration(b.SessionTTLHours) * time.Hour
}

func (b BookingConfig) FlightsCacheTTLDuration() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

func (b BookingConfig) IssueLockTTL() time.Duration {
	return time.Duration(b.IssueLockSeconds) * time.Second
}

// Location loads the configured display time zone.
func (b BookingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(b.Timezone)
}

// Blackouts returns the blackout dates as a set keyed by YYYY-MM-DD.
func (b BookingConfig) Blackouts() map[string]struct{} {
	set := make(map[string]struct{}, len(b.BlackoutDates))
	for _, d := range b.BlackoutDates {
		if d = strings.TrimSpace(d); d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

type TicketsConfig struct {
	Dir     string `yaml:"dir" envconfig:"TICKETS_DIR"`
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
	Brand   string `yaml:"brand" envconfig:"FROM_NAME"`
}

type TwilioConfig struct {
	AccountSID        string `yaml:"account_sid" envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken         string `yaml:"auth_token" envconfig:"TWILIO_AUTH_TOKEN"`
	WhatsAppNumber    string `yaml:"whatsapp_number" envconfig:"TWILIO_WHATSAPP_NUMBER"`
	ValidateSignature bool   `yaml:"validate_signature" envconfig:"TWILIO_VALIDATE_SIGNATURE"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key" envconfig:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" envconfig:"STRIPE_WEBHOOK_SECRET"`
}

type SendGridConfig struct {
	APIKey    string `yaml:"api_key" envconfig:"SENDGRID_API_KEY"`
	FromEmail string `yaml:"from_email" envconfig:"FROM_EMAIL"`
	FromName  string `yaml:"from_name" envconfig:"FROM_NAME"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

// LoadConfig reads the YAML file (optional when path is empty or missing),
// then a .env file if one exists, then environment overrides.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults and validates values the conversation depends on.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8000"
	}
	if cfg.Booking.Timezone == "" {
		cfg.Booking.Timezone = "Asia/Kolkata"
	}
	if _, err := cfg.Booking.Location(); err != nil {
		return fmt.Errorf("invalid booking.timezone %q: %w", cfg.Booking.Timezone, err)
	}
	if cfg.Booking.MinAdvanceHours < 0 {
		return fmt.Errorf("booking.min_advance_hours must be >= 0")
	}
	if cfg.Booking.MinAdvanceHours == 0 {
		cfg.Booking.MinAdvanceHours = 12
	}
	if cfg.Booking.SessionTTLHours <= 0 {
		cfg.Booking.SessionTTLHours = 6
	}
	if cfg.Booking.FlightsCacheTTL <= 0 {
		cfg.Booking.FlightsCacheTTL = 300
	}
	if cfg.Booking.IssueLockSeconds <= 0 {
		cfg.Booking.IssueLockSeconds = 30
	}
	for _, d := range cfg.Booking.BlackoutDates {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("invalid booking.blackout_dates value %q; expected YYYY-MM-DD", d)
		}
	}
	if cfg.Tickets.Dir == "" {
		cfg.Tickets.Dir = "tickets"
	}
	if cfg.Tickets.Brand == "" {
		cfg.Tickets.Brand = "Flight Booking"
	}
	if cfg.SendGrid.FromName == "" {
		cfg.SendGrid.FromName = cfg.Tickets.Brand
	}
	if cfg.Kafka.BookingTopic == "" {
		cfg.Kafka.BookingTopic = "booking-events"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "wabooking-worker"
	}
	if cfg.AMQP.Queue == "" {
		cfg.AMQP.Queue = "booking.issued"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	return nil
}
