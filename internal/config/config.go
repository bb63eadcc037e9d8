package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DatabaseURL string

	// Redis
	EnableRedis bool
	RedisURL    string

	// JWT
	JWTSecret string

	// Server
	Port        string
	Environment string

	// CORS
	CORSOrigins []string

	// Rate Limiting
	RateLimitRequests int
	RateLimitWindow   int

	// Features
	EnableCache   bool
	EnableMetrics bool
	EnableLoyalty bool

	// Checkout confirmation polling
	ConfirmSettleDelay    time.Duration
	ConfirmPollInterval   time.Duration
	ConfirmMaxAttempts    int
	ConfirmAmountEpsilon  float64
	ConfirmCloseDelay     time.Duration
	AttemptSweepInterval  time.Duration
	PromotionCacheRefresh time.Duration

	// Store Meta
	StoreName     string
	StoreAddress  string
	StoreCurrency string
}

func New() *Config {
	c := &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "posuser"),
		DBPassword: getEnv("DB_PASSWORD", "pospassword"),
		DBName:     getEnv("DB_NAME", "posdb"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		EnableRedis: getEnvAsBool("ENABLE_REDIS", true),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// CORS
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		// Rate Limiting
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvAsInt("RATE_LIMIT_WINDOW", 60),

		// Features
		EnableCache:   getEnvAsBool("ENABLE_CACHE", true),
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		EnableLoyalty: getEnvAsBool("ENABLE_LOYALTY", true),

		// Checkout confirmation polling. The defaults give the customer a few
		// seconds to open their payment app, then check every five seconds for
		// up to thirty attempts before giving up.
		ConfirmSettleDelay:    getEnvAsDuration("CONFIRM_SETTLE_DELAY", 5*time.Second),
		ConfirmPollInterval:   getEnvAsDuration("CONFIRM_POLL_INTERVAL", 5*time.Second),
		ConfirmMaxAttempts:    getEnvAsInt("CONFIRM_MAX_ATTEMPTS", 30),
		ConfirmAmountEpsilon:  getEnvAsFloat("CONFIRM_AMOUNT_EPSILON", 0.01),
		ConfirmCloseDelay:     getEnvAsDuration("CONFIRM_CLOSE_DELAY", 2*time.Second),
		AttemptSweepInterval:  getEnvAsDuration("ATTEMPT_SWEEP_INTERVAL", 5*time.Minute),
		PromotionCacheRefresh: getEnvAsDuration("PROMOTION_CACHE_REFRESH", 5*time.Minute),

		// Store Meta
		StoreName:     getEnv("STORE_NAME", "Retail POS"),
		StoreAddress:  getEnv("STORE_ADDRESS", ""),
		StoreCurrency: getEnv("STORE_CURRENCY", "IDR"),
	}

	// Build DSN
	c.DatabaseURL = fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)

	return c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value float64
	_, err := fmt.Sscanf(valueStr, "%g", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
