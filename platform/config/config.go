// Package config provides environment-driven application configuration.
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

// Narrow interfaces let each consumer depend on only the settings it needs.

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// StorageConfig provides settings for MinIO S3-compatible object storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOPublicBaseURL() string
	GetPetImagesBucket() string
	GetMaxImageSize() int64
	IsMinIOEnabled() bool
}

// MediaConfig provides settings for the image asset pipeline.
type MediaConfig interface {
	GetMaxImageSize() int64
	GetMaxBatchFiles() int
	IsThumbnailingEnabled() bool
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetContactInboxAddress() string
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetOrphanGracePeriod() time.Duration
}

// NotificationConfig provides settings for the notification module.
type NotificationConfig interface {
	GetAppBaseURL() string
}

// Config is the concrete application configuration loaded from the environment.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	AccessTokenTTL      time.Duration
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	AppBaseURL          string
	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinIOPublicBaseURL  string
	PetImagesBucket     string
	MaxImageSize        int64
	MaxBatchFiles       int
	ThumbnailingEnabled bool
	EmailEnabled        bool
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	EmailFromName       string
	EmailFromAddress    string
	ContactInboxAddress string
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	OrphanGracePeriod   time.Duration
}

// Load reads configuration from the environment (and .env, if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:      mustDuration(getEnv("JWT_ACCESS_TTL", "24h")),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:3000"),
		MinIOEndpoint:       getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:      getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:      getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:         strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOPublicBaseURL:  getEnv("MINIO_PUBLIC_BASE_URL", ""),
		PetImagesBucket:     getEnv("MINIO_BUCKET_PET_IMAGES", "furbabies-pet-images"),
		MaxImageSize:        mustInt64(getEnv("MAX_IMAGE_SIZE_BYTES", "10485760")),
		MaxBatchFiles:       mustInt(getEnv("MAX_BATCH_FILES", "5")),
		ThumbnailingEnabled: strings.EqualFold(getEnv("THUMBNAILS_ENABLED", "true"), "true"),
		EmailEnabled:        emailEnabled && smtpHost != "",
		SMTPHost:            smtpHost,
		SMTPPort:            mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "FurBabies"),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", ""),
		ContactInboxAddress: getEnv("CONTACT_INBOX_ADDRESS", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		OrphanGracePeriod:   mustDuration(getEnv("ORPHAN_GRACE_PERIOD", "24h")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.MaxImageSize <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_SIZE_BYTES must be positive")
	}

	return cfg, nil
}

// Interface implementations.

func (c *Config) GetDatabaseURL() string              { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string          { return c.JWTAccessSecret }
func (c *Config) GetAccessTokenTTL() time.Duration    { return c.AccessTokenTTL }
func (c *Config) GetHTTPAddr() string                 { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool               { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string            { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool             { return c.CORSAllowCreds }
func (c *Config) GetAppBaseURL() string               { return c.AppBaseURL }
func (c *Config) GetMinIOEndpoint() string            { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string           { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string           { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool                { return c.MinIOUseSSL }
func (c *Config) GetMinIOPublicBaseURL() string       { return c.MinIOPublicBaseURL }
func (c *Config) GetPetImagesBucket() string          { return c.PetImagesBucket }
func (c *Config) GetMaxImageSize() int64              { return c.MaxImageSize }
func (c *Config) GetMaxBatchFiles() int               { return c.MaxBatchFiles }
func (c *Config) IsThumbnailingEnabled() bool         { return c.ThumbnailingEnabled }
func (c *Config) IsMinIOEnabled() bool                { return c.MinIOEndpoint != "" }
func (c *Config) GetEmailEnabled() bool               { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string                 { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                    { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string             { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string             { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string            { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string         { return c.EmailFromAddress }
func (c *Config) GetContactInboxAddress() string      { return c.ContactInboxAddress }
func (c *Config) GetRedisURL() string                 { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool           { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string           { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int            { return c.AsynqConcurrency }
func (c *Config) GetOrphanGracePeriod() time.Duration { return c.OrphanGracePeriod }

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

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
