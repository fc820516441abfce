// Package config builds service configuration from environment variables so
// main stays lean. Every section has development defaults; production
// deployments override via env.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all sections.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Kafka    KafkaConfig
	Billing  BillingConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr          string
	AdminToken    string
	JWTSigningKey string
	JWTIssuer     string
}

// PostgresConfig holds the datastore connection. An empty URL selects the
// in-memory stores (development and tests).
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
}

// RedisConfig holds the one-time-code store connection. An empty URL selects
// the in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SMTPConfig configures the transactional email sender. An empty host selects
// the log-only sender.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// KafkaConfig configures the audit event stream. No brokers selects the
// in-memory audit store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// BillingConfig configures the hosted payment provider bridge.
type BillingConfig struct {
	BaseURL string
	APIKey  string
	PlanID  string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: ServerConfig{
			Addr:          getenv("RESIDORA_ADDR", ":8080"),
			AdminToken:    getenv("RESIDORA_ADMIN_TOKEN", ""),
			JWTSigningKey: getenv("RESIDORA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     getenv("RESIDORA_JWT_ISSUER", "residora"),
		},
		Postgres: PostgresConfig{
			URL:          getenv("RESIDORA_POSTGRES_URL", ""),
			MaxOpenConns: getenvInt("RESIDORA_POSTGRES_MAX_OPEN_CONNS", 10),
		},
		Redis: RedisConfig{
			URL:          getenv("RESIDORA_REDIS_URL", ""),
			PoolSize:     getenvInt("RESIDORA_REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("RESIDORA_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDur("RESIDORA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDur("RESIDORA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDur("RESIDORA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		SMTP: SMTPConfig{
			Host: getenv("RESIDORA_SMTP_HOST", ""),
			Port: getenvInt("RESIDORA_SMTP_PORT", 587),
			User: getenv("RESIDORA_SMTP_USER", ""),
			Pass: getenv("RESIDORA_SMTP_PASS", ""),
			From: getenv("RESIDORA_SMTP_FROM", "no-reply@residora.local"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getenv("RESIDORA_KAFKA_BROKERS", "")),
			Topic:   getenv("RESIDORA_KAFKA_AUDIT_TOPIC", "residora.audit"),
		},
		Billing: BillingConfig{
			BaseURL: getenv("RESIDORA_BILLING_BASE_URL", ""),
			APIKey:  getenv("RESIDORA_BILLING_API_KEY", ""),
			PlanID:  getenv("RESIDORA_BILLING_PLAN_ID", "syndic-standard"),
		},
	}
}

// OTPTTL is how long an onboarding one-time code stays redeemable.
var OTPTTL = 15 * time.Minute

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
