package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"
	defaultFeeRate   = 0.05
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string
	SiteBaseURL string
	CORSOrigins []string

	BookingFeeRate float64
	Currency       string
	SessionIdleTTL time.Duration

	PaymentProvider   string
	PaymentDelay      time.Duration
	PaymentTimeout    time.Duration
	PaymentMaxRetries int
	StripeSecretKey   string

	RedisURL string
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// a missing .env is normal outside local development
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:            strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		Port:              strings.TrimSpace(v.GetString("PORT")),
		DatabaseURL:       strings.TrimSpace(v.GetString("DATABASE_URL")),
		JWTSecret:         strings.TrimSpace(v.GetString("JWT_SECRET")),
		SiteBaseURL:       strings.TrimRight(strings.TrimSpace(v.GetString("SITE_BASE_URL")), "/"),
		CORSOrigins:       splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		BookingFeeRate:    v.GetFloat64("BOOKING_FEE_RATE"),
		Currency:          strings.ToLower(strings.TrimSpace(v.GetString("CURRENCY"))),
		SessionIdleTTL:    v.GetDuration("SESSION_IDLE_TTL"),
		PaymentProvider:   strings.ToLower(strings.TrimSpace(v.GetString("PAYMENT_PROVIDER"))),
		PaymentDelay:      v.GetDuration("PAYMENT_DELAY"),
		PaymentTimeout:    v.GetDuration("PAYMENT_TIMEOUT"),
		PaymentMaxRetries: v.GetInt("PAYMENT_MAX_RETRIES"),
		StripeSecretKey:   strings.TrimSpace(v.GetString("STRIPE_SECRET_KEY")),
		RedisURL:          strings.TrimSpace(v.GetString("REDIS_URL")),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "culturin.db")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("SITE_BASE_URL", "")
	v.SetDefault("BOOKING_FEE_RATE", defaultFeeRate)
	v.SetDefault("CURRENCY", "usd")
	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("PAYMENT_PROVIDER", "simulated")
	v.SetDefault("PAYMENT_DELAY", "1500ms")
	v.SetDefault("PAYMENT_TIMEOUT", "10s")
	v.SetDefault("PAYMENT_MAX_RETRIES", 2)
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.BookingFeeRate < 0 || cfg.BookingFeeRate >= 1 {
		return fmt.Errorf("BOOKING_FEE_RATE must be in [0, 1)")
	}
	if len(cfg.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter ISO code")
	}
	if cfg.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be > 0")
	}
	if cfg.PaymentTimeout <= 0 {
		return fmt.Errorf("PAYMENT_TIMEOUT must be > 0")
	}
	if cfg.PaymentDelay < 0 {
		return fmt.Errorf("PAYMENT_DELAY must be >= 0")
	}
	if cfg.PaymentMaxRetries < 0 {
		return fmt.Errorf("PAYMENT_MAX_RETRIES must be >= 0")
	}

	switch cfg.PaymentProvider {
	case "simulated":
	case "stripe":
		if cfg.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=stripe")
		}
	default:
		return fmt.Errorf("PAYMENT_PROVIDER must be one of: simulated, stripe")
	}

	if cfg.IsProdLike() {
		if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.PaymentProvider == "simulated" {
			return fmt.Errorf("in prod/release PAYMENT_PROVIDER must not be simulated")
		}
	}
	return nil
}

func (c *Config) IsProdLike() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production" || c.AppEnv == "release"
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
