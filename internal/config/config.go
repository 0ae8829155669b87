package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Blob backends understood by Load.
const (
	BlobBackendMinIO  = "minio"
	BlobBackendS3     = "s3"
	BlobBackendMemory = "memory"
)

// Config aggregates runtime configuration for the goshare API.
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Blob      BlobConfig
	MinIO     MinIOConfig
	S3        S3Config
	Redis     RedisConfig
	Auth      AuthConfig
	Retention RetentionConfig
	Guest     GuestConfig
	Tracing   TracingConfig
	Metrics   MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// MaxUploadBytes bounds a single direct (non-multipart) upload request body.
	MaxUploadBytes int64
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// MaxConns caps the pgx pool; zero keeps the pgx default.
	MaxConns        int
	MaxConnLifetime time.Duration
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// BlobConfig selects the object storage backend.
type BlobConfig struct {
	Backend string
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string

	// AbortIncompleteDays installs a bucket lifecycle rule that drops multipart
	// parts left behind by abandoned upload sessions. Zero disables the rule.
	AbortIncompleteDays int
}

// S3Config carries settings for any S3-compatible service (AWS, R2, ...).
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// RedisConfig controls the entry metadata cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	SharedSecret   string
	TokenSecret    string
	TokenTTL       time.Duration
	BcryptCost     int
	CookieName     string
	PresignLinkTTL time.Duration
}

// RetentionConfig drives expiration defaults and the garbage collector.
type RetentionConfig struct {
	// DefaultExpirationDays applies when an upload does not choose one. Zero keeps files forever.
	DefaultExpirationDays int
	SweepInterval         time.Duration
	SweepLimit            int
	SweepTimeout          time.Duration
	// SweepOnRequest piggybacks sweeps on inbound requests. Disable when a scheduler runs `goshare sweep`.
	SweepOnRequest bool
}

// GuestConfig groups settings for anonymous guest uploads.
type GuestConfig struct {
	RateLimit string
}

// TracingConfig configures the OTLP trace exporter. An empty Endpoint disables tracing.
type TracingConfig struct {
	ServiceName string
	Endpoint    string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:           getString("GOSHARE_API_HOST", "0.0.0.0"),
			Port:           getInt("GOSHARE_API_PORT", 8080),
			ReadTimeout:    getDuration("GOSHARE_API_READ_TIMEOUT", 60*time.Second),
			WriteTimeout:   getDuration("GOSHARE_API_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:    getDuration("GOSHARE_API_IDLE_TIMEOUT", 120*time.Second),
			MaxUploadBytes: int64(getInt("GOSHARE_MAX_UPLOAD_MB", 100)) * 1024 * 1024,
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "goshare_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "goshare"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),

			MaxConns:        getInt("POSTGRES_MAX_CONNS", 10),
			MaxConnLifetime: getDuration("POSTGRES_MAX_CONN_LIFETIME", time.Hour),
		},
		Blob: BlobConfig{
			Backend: strings.ToLower(getString("GOSHARE_BLOB_BACKEND", BlobBackendMinIO)),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "goshare"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:          getString("MINIO_BUCKET", "goshare"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),

			AbortIncompleteDays: getInt("MINIO_ABORT_INCOMPLETE_DAYS", 0),
		},
		S3: S3Config{
			Endpoint:  getString("S3_ENDPOINT", ""),
			Region:    getString("S3_REGION", "auto"),
			AccessKey: getString("S3_ACCESS_KEY", ""),
			SecretKey: getString("S3_SECRET_KEY", ""),
			Bucket:    getString("S3_BUCKET", "goshare"),
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", ""),
			Password: getString("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
			CacheTTL: getDuration("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Auth: loadAuthConfig(),
		Retention: RetentionConfig{
			DefaultExpirationDays: getInt("GOSHARE_DEFAULT_EXPIRATION_DAYS", 30),
			SweepInterval:         getDuration("GOSHARE_SWEEP_INTERVAL", 60*time.Second),
			SweepLimit:            getInt("GOSHARE_SWEEP_LIMIT", 100),
			SweepTimeout:          getDuration("GOSHARE_SWEEP_TIMEOUT", 20*time.Second),
			SweepOnRequest:        getBool("GOSHARE_SWEEP_ON_REQUEST", true),
		},
		Guest: GuestConfig{
			RateLimit: getString("GOSHARE_GUEST_RATE_LIMIT", "60-M"),
		},
		Tracing: TracingConfig{
			ServiceName: getString("GOSHARE_SERVICE_NAME", "goshare"),
			Endpoint:    getString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("GOSHARE_METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Blob.Backend {
	case BlobBackendMinIO, BlobBackendMemory:
	case BlobBackendS3:
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return fmt.Errorf("s3 backend requires S3_ACCESS_KEY and S3_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unknown blob backend %q", c.Blob.Backend)
	}
	if strings.TrimSpace(c.Auth.SharedSecret) == "" {
		return fmt.Errorf("GOSHARE_SHARED_SECRET is required")
	}
	if c.Retention.DefaultExpirationDays < 0 {
		return fmt.Errorf("GOSHARE_DEFAULT_EXPIRATION_DAYS must not be negative")
	}
	return nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("GOSHARE_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		SharedSecret:   getString("GOSHARE_SHARED_SECRET", ""),
		TokenSecret:    getString("GOSHARE_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		TokenTTL:       getDuration("GOSHARE_AUTH_TOKEN_TTL", 720*time.Hour),
		BcryptCost:     cost,
		CookieName:     getString("GOSHARE_AUTH_COOKIE", "goshare_session"),
		PresignLinkTTL: getDuration("GOSHARE_PRESIGN_TTL", 15*time.Minute),
	}
}
