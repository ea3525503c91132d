package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string `validate:"oneof=dev prod"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	Port        uint16 `validate:"required"`
	DatabaseUrl string
	// TrustedProxies lists the reverse proxies whose X-Forwarded-For is
	// believed when rate limiting. Empty means the peer address is used.
	TrustedProxies []string `validate:"dive,cidr|ip"`
	History        HistoryConfig
	USPS           USPSConfig
	Cache          CacheConfig
	Events         EventsConfig
	Sentry         SentryConfig
}

// HistoryConfig controls how long verification records are kept.
// A zero Retention keeps them forever.
type HistoryConfig struct {
	Retention     time.Duration `validate:"gte=0"`
	SweepInterval time.Duration `validate:"gt=0"`
}

// USPSConfig holds Web Tools credentials.
type USPSConfig struct {
	// UserID is the Web Tools USERID issued at registration.
	UserID  string        `validate:"required"`
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

// CacheConfig controls the Redis standardization cache.
// An empty URL disables caching.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration `validate:"gte=0"`
}

// EventsConfig controls NATS publication of verification events.
// An empty URL disables publishing.
type EventsConfig struct {
	NATSURL string
	Subject string `validate:"required"`
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64 `validate:"gte=0,lte=1"`
	TracesSampleRate float64 `validate:"gte=0,lte=1"`
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:            getEnv("ENV", "dev"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnvInt("PORT", 3000),
		DatabaseUrl:    getEnv("DATABASE_URL", ""),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		History: HistoryConfig{
			Retention:     getEnvDuration("HISTORY_RETENTION", 90*24*time.Hour),
			SweepInterval: getEnvDuration("HISTORY_SWEEP_INTERVAL", time.Hour),
		},
		USPS: USPSConfig{
			UserID:  getEnv("USPS_USER_ID", ""),
			BaseURL: getEnv("USPS_BASE_URL", "https://secure.shippingapis.com/ShippingAPI.dll"),
			Timeout: getEnvDuration("USPS_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),
		},
		Events: EventsConfig{
			NATSURL: getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "usps.address.verified"),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			Enabled:          getEnvBool("SENTRY_ENABLED", false), // Disabled by default for development
			Environment:      getEnv("SENTRY_ENVIRONMENT", "development"),
			Release:          getEnv("SENTRY_RELEASE", ""),
			SampleRate:       getEnvFloat("SENTRY_SAMPLE_RATE", 1.0),
			TracesSampleRate: getEnvFloat("SENTRY_TRACES_SAMPLE_RATE", 0.0),
		},
	}

	if cfg.Env == "production" {
		cfg.Env = "prod"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded values and reports every offending setting.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s (%s)", envName(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
}

var envNames = map[string]string{
	"Config.Env":                     "ENV",
	"Config.LogLevel":                "LOG_LEVEL",
	"Config.Port":                    "PORT",
	"Config.TrustedProxies":          "TRUSTED_PROXIES",
	"Config.History.Retention":       "HISTORY_RETENTION",
	"Config.History.SweepInterval":   "HISTORY_SWEEP_INTERVAL",
	"Config.USPS.UserID":             "USPS_USER_ID",
	"Config.USPS.BaseURL":            "USPS_BASE_URL",
	"Config.USPS.Timeout":            "USPS_TIMEOUT",
	"Config.Cache.TTL":               "CACHE_TTL",
	"Config.Events.Subject":          "NATS_SUBJECT",
	"Config.Sentry.SampleRate":       "SENTRY_SAMPLE_RATE",
	"Config.Sentry.TracesSampleRate": "SENTRY_TRACES_SAMPLE_RATE",
}

func envName(namespace string) string {
	namespace, _, _ = strings.Cut(namespace, "[")
	if name, ok := envNames[namespace]; ok {
		return name
	}
	return namespace
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var floatValue float64
		if _, err := fmt.Sscanf(value, "%f", &floatValue); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Default().Warn("Invalid duration. Using default", slog.String("key", key), slog.String("value", value))
	}
	return defaultValue
}
