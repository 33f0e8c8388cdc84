package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/FoxPay/internal/pkg/env"
)

// Config is built once at startup and handed to the components that need
// it. Nothing in FoxPay reads processor credentials from globals.
type Config struct {
	AppEnv       string `validate:"oneof=dev test staging prod"`
	Host         string
	Port         string `validate:"required,numeric"`
	PublicDomain string `validate:"required,url"`
	LogLevel     string

	Stripe   StripeConfig
	Database DatabaseConfig
	Cache    CacheConfig

	StatusCacheTTL   time.Duration
	CheckoutRateMax  int `validate:"gte=0"`
	CheckoutRateSpan time.Duration
}

// StripeConfig carries the processor credentials. WebhookSecret is optional;
// without it webhooks are only accepted when AllowUnsignedWebhooks is set
// outside production.
type StripeConfig struct {
	SecretKey             string `validate:"required"`
	PublicKey             string
	WebhookSecret         string
	WebhookTolerance      time.Duration `validate:"gt=0"`
	AllowUnsignedWebhooks bool
	Timeout               time.Duration `validate:"gt=0"`
	APIBaseURL            string
}

type DatabaseConfig struct {
	User     string
	Password string
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	Name     string `validate:"required"`
}

// DSN returns the go-sql-driver/mysql data source name.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// MigrateURL returns the golang-migrate mysql URL.
func (d DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether a Redis-compatible cache was configured.
func (c CacheConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Load reads the configuration from the environment (see env.SetupEnvFile).
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:       env.GetEnv("APP_ENV", "prod"),
		Host:         env.GetEnv("APP_HOST", "localhost"),
		Port:         env.GetEnv("APP_PORT", "4000"),
		PublicDomain: strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/"),
		LogLevel:     env.GetEnv("LOG_LEVEL", "info"),
		Stripe: StripeConfig{
			SecretKey:             strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
			PublicKey:             strings.TrimSpace(env.GetEnv("STRIPE_PUBLIC_KEY", "")),
			WebhookSecret:         strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
			WebhookTolerance:      env.GetDuration("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
			AllowUnsignedWebhooks: env.GetBool("STRIPE_ALLOW_UNSIGNED_WEBHOOKS", false),
			Timeout:               env.GetDuration("STRIPE_TIMEOUT", 20*time.Second),
			APIBaseURL:            strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", "")),
		},
		Database: databaseFromEnv(),
		Cache: CacheConfig{
			Host:     env.GetEnv("CACHE_HOST", ""),
			Port:     env.GetEnv("CACHE_PORT", "6379"),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
		},
		StatusCacheTTL:   env.GetDuration("STATUS_CACHE_TTL", 10*time.Minute),
		CheckoutRateMax:  env.GetInt("CHECKOUT_RATE_MAX", 20),
		CheckoutRateSpan: env.GetDuration("CHECKOUT_RATE_SPAN", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads and validates only the database settings, for tools
// like the migrator that never talk to the processor.
func LoadDatabase() (DatabaseConfig, error) {
	db := databaseFromEnv()
	if err := validator.New().Struct(db); err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid database configuration: %w", err)
	}
	return db, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		User:     env.GetEnv("DB_USER", "foxpay"),
		Password: env.GetEnv("DB_PASSWORD", ""),
		Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
		Port:     env.GetEnv("DB_PORT", "3306"),
		Name:     env.GetEnv("DB_NAME", "foxpay_db"),
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.IsProd() && c.Stripe.AllowUnsignedWebhooks {
		return fmt.Errorf("invalid configuration: STRIPE_ALLOW_UNSIGNED_WEBHOOKS must not be enabled with APP_ENV=prod")
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.AppEnv == "prod"
}

// ListenAddr is the host:port fiber binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// SuccessURL is handed to the processor; it substitutes the session id.
func (c *Config) SuccessURL() string {
	return c.PublicDomain + "/payment/success?session_id={CHECKOUT_SESSION_ID}"
}

func (c *Config) CancelURL() string {
	return c.PublicDomain + "/"
}
