package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers
const (
	DriverMock       = "mock"
	DriverClickHouse = "clickhouse"
	DriverMySQL      = "mysql"
)

// Config holds the application configuration
type Config struct {
	Env  string // "dev" switches to the development logger
	Port string

	StoreDriver string

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool

	// MySQL configuration
	MySQLHost     string
	MySQLPort     int
	MySQLDatabase string
	MySQLUser     string
	MySQLPassword string

	// Report cache; empty RedisAddr disables it
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Per-client request rate limit of the HTTP API
	RateLimitRPS   float64
	RateLimitBurst int

	// Telegram bot; empty token disables it
	TelegramToken  string
	AllowedUserIDs []int64
	WebhookMode    bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL     string // URL for webhook (required if WebhookMode is true)
}

// Development reports whether the app runs in the dev environment
func (c *Config) Development() bool {
	return c.Env == "dev"
}

// BotEnabled reports whether a Telegram token is configured
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{
		Env:  getEnv("APP_ENV", "prod"),
		Port: getEnv("PORT", "8080"),
	}

	// Legacy USE_MOCK_DB=true wins over STORE_DRIVER
	config.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", DriverClickHouse))
	if os.Getenv("USE_MOCK_DB") == "true" {
		config.StoreDriver = DriverMock
	}

	var err error
	switch config.StoreDriver {
	case DriverMock:
	case DriverClickHouse:
		config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
		if config.ClickHouseHost == "" {
			return nil, fmt.Errorf("CLICKHOUSE_HOST is required when STORE_DRIVER is clickhouse")
		}
		if config.ClickHousePort, err = getInt("CLICKHOUSE_PORT", 9000); err != nil {
			return nil, err
		}
		config.ClickHouseDatabase = getEnv("CLICKHOUSE_DATABASE", "default")
		config.ClickHouseUser = getEnv("CLICKHOUSE_USER", "default")
		config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
		config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	case DriverMySQL:
		config.MySQLHost = os.Getenv("MYSQL_HOST")
		if config.MySQLHost == "" {
			return nil, fmt.Errorf("MYSQL_HOST is required when STORE_DRIVER is mysql")
		}
		if config.MySQLPort, err = getInt("MYSQL_PORT", 3306); err != nil {
			return nil, err
		}
		config.MySQLDatabase = getEnv("MYSQL_DATABASE", "UniLibPlus")
		config.MySQLUser = getEnv("MYSQL_USER", "root")
		config.MySQLPassword = os.Getenv("MYSQL_PASSWORD")
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want mock, clickhouse or mysql)", config.StoreDriver)
	}

	config.RedisAddr = os.Getenv("REDIS_ADDR")
	config.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if config.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if config.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "5m")); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	if config.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if config.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}

	// Telegram bot (optional)
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if config.TelegramToken != "" {
		allowedIDsStr := os.Getenv("ALLOWED_USER_IDS")
		if allowedIDsStr == "" {
			return nil, fmt.Errorf("ALLOWED_USER_IDS is required when TELEGRAM_BOT_TOKEN is set (comma-separated list of Telegram user IDs)")
		}
		for _, idStr := range strings.Split(allowedIDsStr, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
			}
			config.AllowedUserIDs = append(config.AllowedUserIDs, id)
		}

		config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
		if config.WebhookMode {
			config.WebhookURL = os.Getenv("WEBHOOK_URL")
			if config.WebhookURL == "" {
				return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
			}
		}
	}

	return config, nil
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
