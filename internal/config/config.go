package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "Zepno"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultIdemTTL       = 24 * time.Hour
	defaultProviderURL   = "https://api.sms-activate.org/stubs/handler_api.php"
	defaultCountryCode   = "22"
	defaultPollInterval  = 10 * time.Second
	defaultPriceCacheTTL = 5 * time.Minute
	defaultGatewayURL    = "https://api.razorpay.com"
)

// Config captures application runtime configuration loaded from environment
// variables. Credentials and keys are injected here at startup and never read
// ad hoc inside business logic.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// SMS provider settings.
	ProviderAPIKey  string
	ProviderBaseURL string
	CountryCode     string
	PollInterval    time.Duration
	PriceCacheTTL   time.Duration

	// Payment gateway settings.
	GatewayBaseURL       string
	GatewayKeyID         string
	GatewayKeySecret     string
	GatewayWebhookSecret string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:              getEnv("APP_NAME", defaultAppName),
		AppEnv:               getEnv("APP_ENV", defaultAppEnv),
		Port:                 getEnv("PORT", defaultPort),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		ShutdownPeriod:       defaultShutdownDelay,
		IdempotencyTTL:       defaultIdemTTL,
		ProviderAPIKey:       os.Getenv("SMS_ACTIVATE_API_KEY"),
		ProviderBaseURL:      getEnv("SMS_ACTIVATE_BASE_URL", defaultProviderURL),
		CountryCode:          getEnv("SMS_ACTIVATE_COUNTRY", defaultCountryCode),
		PollInterval:         defaultPollInterval,
		PriceCacheTTL:        defaultPriceCacheTTL,
		GatewayBaseURL:       getEnv("RAZORPAY_BASE_URL", defaultGatewayURL),
		GatewayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		GatewayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		GatewayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = durationEnv("OTP_POLL_INTERVAL", cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if cfg.PriceCacheTTL, err = durationEnv("PRICE_CACHE_TTL", cfg.PriceCacheTTL); err != nil {
		return Config{}, err
	}

	for _, required := range []struct {
		name  string
		value string
	}{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"SMS_ACTIVATE_API_KEY", cfg.ProviderAPIKey},
		{"RAZORPAY_WEBHOOK_SECRET", cfg.GatewayWebhookSecret},
	} {
		if required.value == "" {
			return Config{}, fmt.Errorf("%s must be set", required.name)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// durationEnv reads NAME_SECONDS as an integer or NAME as a Go duration
// string, preferring the seconds form when both are present.
func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(name + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", name, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(name); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", name, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
