package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Backend   string // sqlite, redis or memory
	Path      string
	RedisURL  string
	KeyPrefix string
	DeviceID  string
}

type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
	PosInterval time.Duration
}

type BankConfig struct {
	BaseURL     string
	APIKey      string
	BankID      string
	AccountNo   string
	AccountName string
	Template    string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

type EmailConfig struct {
	APIKey   string
	From     string
	FromName string
}

type SandboxConfig struct {
	Port                string
	DatabaseURL         string
	SQLitePath          string
	JWTSecret           string
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string
	PaymentExpiry       time.Duration
	PublicURL           string
	AllowOrigins        string
	RateLimit           int
	AccessLog           bool
}

type Config struct {
	API         APIConfig
	Session     SessionConfig
	Poll        PollConfig
	Bank        BankConfig
	R2          R2Config
	Email       EmailConfig
	Sandbox     SandboxConfig
	LogLevel    string
	Locale      string
	ReceiptsDir string
	ReceiptFont string
}

// LoadConfig reads the process environment, after merging a .env file when one exists.
func LoadConfig() *Config {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	return &Config{
		API: APIConfig{
			BaseURL: getEnv("STOREFRONT_API_URL", "http://localhost:8080"),
			Timeout: getEnvDuration("STOREFRONT_API_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			Backend:   strings.ToLower(getEnv("SESSION_BACKEND", "sqlite")),
			Path:      getEnv("SESSION_PATH", "storefront-session.db"),
			RedisURL:  getEnv("REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix: getEnv("SESSION_KEY_PREFIX", "storefront:device:"),
			DeviceID:  getEnv("SESSION_DEVICE_ID", ""),
		},
		Poll: PollConfig{
			Interval:    getEnvDuration("POLL_INTERVAL", 10*time.Second),
			MaxAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 90),
			Timeout:     getEnvDuration("POLL_TIMEOUT", 0),
			PosInterval: getEnvDuration("POS_POLL_INTERVAL", 15*time.Second),
		},
		Bank: BankConfig{
			BaseURL:     getEnv("BANK_API_URL", "https://oauth.casso.vn"),
			APIKey:      getEnv("BANK_API_KEY", ""),
			BankID:      getEnv("BANK_ID", "970416"),
			AccountNo:   getEnv("BANK_ACCOUNT_NO", ""),
			AccountName: getEnv("BANK_ACCOUNT_NAME", ""),
			Template:    getEnv("BANK_QR_TEMPLATE", "compact"),
		},
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("R2_BUCKET", ""),
			PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		},
		Email: EmailConfig{
			APIKey:   getEnv("RESEND_API_KEY", ""),
			From:     getEnv("EMAIL_FROM_ADDRESS", ""),
			FromName: getEnv("EMAIL_FROM_NAME", "Storefront"),
		},
		Sandbox: SandboxConfig{
			Port:                getEnv("PORT", "8080"),
			DatabaseURL:         getEnv("DATABASE_URL", ""),
			SQLitePath:          getEnv("SANDBOX_SQLITE_PATH", "storefront-sandbox.db"),
			JWTSecret:           getEnv("JWT_SECRET", "sandbox-secret"),
			StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			StripeSuccessURL:    getEnv("STRIPE_SUCCESS_URL", "http://localhost:8080/payment/success?session_id={CHECKOUT_SESSION_ID}"),
			StripeCancelURL:     getEnv("STRIPE_CANCEL_URL", "http://localhost:8080/payment/cancel"),
			PaymentExpiry:       getEnvDuration("PAYMENT_EXPIRY", 15*time.Minute),
			PublicURL:           getEnv("SANDBOX_PUBLIC_URL", "http://localhost:8080"),
			AllowOrigins:        getEnv("CORS_ALLOW_ORIGINS", "*"),
			RateLimit:           getEnvInt("SANDBOX_RATE_LIMIT", 120),
			AccessLog:           getEnvBool("SANDBOX_ACCESS_LOG", true),
		},
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Locale:      getEnv("STOREFRONT_LOCALE", "vi"),
		ReceiptsDir: getEnv("RECEIPTS_DIR", "receipts"),
		ReceiptFont: getEnv("RECEIPT_FONT_PATH", ""),
	}
}

// R2Enabled reports whether every credential needed for uploads is present.
func (c *Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.AccessKeyID != "" && c.R2.SecretAccessKey != "" && c.R2.Bucket != ""
}

func (c *Config) EmailEnabled() bool {
	return c.Email.APIKey != "" && c.Email.From != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("10s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
