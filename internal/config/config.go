// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the JSON API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the ops gRPC server (health, reflection).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// JWTPublicKey is the PEM-encoded public key or path to file used to verify access tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTPrivateKey is the PEM-encoded private key or path to file. Only cmd/seed signs tokens.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	JWTIssuer     string `mapstructure:"JWT_ISSUER"`
	JWTAudience   string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the lifetime of tokens minted by cmd/seed (e.g. "12h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`

	// PublicOrigin is the browser-facing origin embedded in check-in URLs (e.g. https://eduflow.example).
	PublicOrigin string `mapstructure:"PUBLIC_ORIGIN"`
	// AttendanceTimezone is the IANA zone whose calendar date keys attendance codes. Defaults to UTC.
	AttendanceTimezone string `mapstructure:"ATTENDANCE_TIMEZONE"`
	// ParticipantAutoApprove when true makes joins approved immediately instead of pending.
	ParticipantAutoApprove bool `mapstructure:"PARTICIPANT_AUTO_APPROVE"`

	// RedisURL enables the check-in attempt limiter when set (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`
	// CheckinMaxAttempts is the number of check-in submissions allowed per user and session per window.
	CheckinMaxAttempts int `mapstructure:"CHECKIN_MAX_ATTEMPTS"`
	// CheckinAttemptWindow is the limiter window (e.g. "10m").
	CheckinAttemptWindow string `mapstructure:"CHECKIN_ATTEMPT_WINDOW"`

	// KafkaBrokers is a comma-separated list of brokers. When set, check-in events are published to Kafka.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AttendanceKafkaTopic is the topic for attendance events.
	AttendanceKafkaTopic string `mapstructure:"ATTENDANCE_KAFKA_TOPIC"`
	// Worker-only: consumer group ID and Loki URL.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	LokiURL      string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName  string `mapstructure:"OTEL_SERVICE_NAME"`

	// HealthInterval is how often the gRPC health status is refreshed (e.g. "15s").
	HealthInterval string `mapstructure:"HEALTH_INTERVAL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_ISSUER", "eduflow-auth")
	v.SetDefault("JWT_AUDIENCE", "eduflow-api")
	v.SetDefault("JWT_ACCESS_TTL", "12h")
	v.SetDefault("PUBLIC_ORIGIN", "http://localhost:3000")
	v.SetDefault("ATTENDANCE_TIMEZONE", "UTC")
	v.SetDefault("PARTICIPANT_AUTO_APPROVE", true)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CHECKIN_MAX_ATTEMPTS", 10)
	v.SetDefault("CHECKIN_ATTEMPT_WINDOW", "10m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ATTENDANCE_KAFKA_TOPIC", "eduflow-attendance")
	v.SetDefault("KAFKA_GROUP_ID", "eduflow-attendance-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "eduflow-attendance")
	v.SetDefault("HEALTH_INTERVAL", "15s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}
	if _, err := time.LoadLocation(cfg.AttendanceTimezone); err != nil {
		return nil, errors.New("config: ATTENDANCE_TIMEZONE must be a valid IANA time zone")
	}
	if cfg.CheckinMaxAttempts < 0 {
		return nil, errors.New("config: CHECKIN_MAX_ATTEMPTS must not be negative")
	}
	if cfg.PublicOrigin == "" {
		return nil, errors.New("config: PUBLIC_ORIGIN must be set")
	}

	return &cfg, nil
}

// Location returns the attendance time zone. Falls back to UTC if the zone cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AttendanceTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 12h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 12*time.Hour)
}

// AttemptWindow parses CheckinAttemptWindow. Returns 10m if unset or invalid.
func (c *Config) AttemptWindow() time.Duration {
	return parseDuration(c.CheckinAttemptWindow, 10*time.Minute)
}

// HealthRefreshInterval parses HealthInterval. Returns 15s if unset or invalid.
func (c *Config) HealthRefreshInterval() time.Duration {
	return parseDuration(c.HealthInterval, 15*time.Second)
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list means attendance events are not published to Kafka.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
