package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	JWTSecret     string
	JWTTTL        time.Duration
	EncryptionKey string

	MaxCardsPerUser        int
	DefaultExpirationYears int
	MaxTransferAmount      decimal.Decimal
	LockTimeout            time.Duration

	ExpiredCardsCron string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// NewConfig loads configuration from the environment. A .env file in the
// working directory is applied first, if present.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBConn:           getEnv("DB_CONN", "host=localhost port=5432 user=bank password=bank dbname=bank sslmode=disable"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		EncryptionKey:    getEnv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef"),
		ExpiredCardsCron: getEnv("EXPIRED_CARDS_CRON", "0 6 * * *"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SenderEmail:      getEnv("SENDER_EMAIL", "noreply@bank.local"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	switch len(cfg.EncryptionKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("ENCRYPTION_KEY must be 16, 24, or 32 bytes, got %d", len(cfg.EncryptionKey))
	}

	var err error
	if cfg.JWTTTL, err = getEnvDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MaxCardsPerUser, err = getEnvInt("MAX_CARDS_PER_USER", 5); err != nil {
		return nil, err
	}
	if cfg.MaxCardsPerUser < 1 {
		return nil, fmt.Errorf("MAX_CARDS_PER_USER must be positive")
	}
	if cfg.DefaultExpirationYears, err = getEnvInt("DEFAULT_EXPIRATION_YEARS", 3); err != nil {
		return nil, err
	}
	if cfg.MaxTransferAmount, err = getEnvDecimal("MAX_TRANSFER_AMOUNT", "100000.00"); err != nil {
		return nil, err
	}

	lockTimeoutMS, err := getEnvInt("LOCK_TIMEOUT_MS", 3000)
	if err != nil {
		return nil, err
	}
	if lockTimeoutMS <= 0 {
		return nil, fmt.Errorf("LOCK_TIMEOUT_MS must be positive")
	}
	cfg.LockTimeout = time.Duration(lockTimeoutMS) * time.Millisecond

	return cfg, nil
}

// SMTPConfigured reports whether outbound email can be sent.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getEnvDecimal(key, defaultVal string) (decimal.Decimal, error) {
	value := getEnv(key, defaultVal)
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	return d, nil
}
