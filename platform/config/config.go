// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// JobBackendConfig provides settings for the upstream job backend.
type JobBackendConfig interface {
	GetJobBackendBaseURL() string
	GetJobBackendAPIKey() string
	GetJobBackendTimeout() time.Duration
}

// GeocoderConfig provides settings for the geocoding provider.
type GeocoderConfig interface {
	GetGeocoderBaseURL() string
	GetGeocoderMinInterval() time.Duration
	GetGeocoderCountryCodes() string
}

// DiscoveryConfig provides settings for the order discovery pipeline.
type DiscoveryConfig interface {
	GetDiscoverRadiusKm() float64
	GetPhoneDefaultRegion() string
}

// ReminderConfig provides settings for visit reminders.
type ReminderConfig interface {
	GetVisitReminderLead() time.Duration
}

// RedisConfig provides settings for the local key-value store.
type RedisConfig interface {
	GetRedisURL() string
}

// SchedulerConfig provides settings for the asynq reminder scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible media storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketJobMedia() string
	IsMinIOEnabled() bool
}

// WebhookConfig provides settings for inbound webhook verification.
type WebhookConfig interface {
	GetPaymentWebhookSecret() string
}

// Config holds all application settings loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	JWTAccessSecret string

	CORSAllowAll bool
	CORSOrigins  []string

	JobBackendBaseURL string
	JobBackendAPIKey  string
	JobBackendTimeout time.Duration

	GeocoderBaseURL      string
	GeocoderMinInterval  time.Duration
	GeocoderCountryCodes string

	DiscoverRadiusKm   float64
	PhoneDefaultRegion string
	VisitReminderLead  time.Duration

	RedisURL         string
	AsynqQueueName   string
	AsynqConcurrency int

	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOMaxFileSize   int64
	MinioBucketJobMedia string

	PaymentWebhookSecret string
}

// Load reads configuration from the environment (and .env when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),

		CORSAllowAll: strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),

		JobBackendBaseURL: getEnv("JOB_BACKEND_BASE_URL", ""),
		JobBackendAPIKey:  getEnv("JOB_BACKEND_API_KEY", ""),
		JobBackendTimeout: mustDuration(getEnv("JOB_BACKEND_TIMEOUT", "10s")),

		GeocoderBaseURL:      getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderMinInterval:  mustDuration(getEnv("GEOCODER_MIN_INTERVAL", "1100ms")),
		GeocoderCountryCodes: getEnv("GEOCODER_COUNTRY_CODES", ""),

		DiscoverRadiusKm:   mustFloat(getEnv("DISCOVER_RADIUS_KM", "15")),
		PhoneDefaultRegion: getEnv("PHONE_DEFAULT_REGION", "VN"),
		VisitReminderLead:  mustDuration(getEnv("VISIT_REMINDER_LEAD", "2h")),

		RedisURL:         getEnv("REDIS_URL", ""),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "fieldtech"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		MinIOEndpoint:       getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:      getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:      getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:         strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:    mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketJobMedia: getEnv("MINIO_BUCKET_JOB_MEDIA", "job-media"),

		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
	}

	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.JobBackendBaseURL == "" {
		return nil, fmt.Errorf("JOB_BACKEND_BASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	return cfg, nil
}

// Getter implementations for the module-specific interfaces.

func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

func (c *Config) GetJobBackendBaseURL() string        { return c.JobBackendBaseURL }
func (c *Config) GetJobBackendAPIKey() string         { return c.JobBackendAPIKey }
func (c *Config) GetJobBackendTimeout() time.Duration { return c.JobBackendTimeout }

func (c *Config) GetGeocoderBaseURL() string             { return c.GeocoderBaseURL }
func (c *Config) GetGeocoderMinInterval() time.Duration  { return c.GeocoderMinInterval }
func (c *Config) GetGeocoderCountryCodes() string        { return c.GeocoderCountryCodes }

func (c *Config) GetDiscoverRadiusKm() float64           { return c.DiscoverRadiusKm }
func (c *Config) GetPhoneDefaultRegion() string          { return c.PhoneDefaultRegion }
func (c *Config) GetVisitReminderLead() time.Duration    { return c.VisitReminderLead }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64    { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketJobMedia() string { return c.MinioBucketJobMedia }
func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func (c *Config) GetPaymentWebhookSecret() string { return c.PaymentWebhookSecret }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func mustInt64(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
