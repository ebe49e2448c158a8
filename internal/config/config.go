package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by BACKEND.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config holds application configuration
type Config struct {
	// Server
	Port        string
	Env         string
	CORSOrigins []string

	// Storage backend
	Backend    string
	SQLitePath string

	// Remote database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Optional integrations; empty means in-process fallbacks
	RedisURL     string
	AMQPURL      string
	AMQPExchange string

	// AuthRateLimit is the number of auth requests per minute per client.
	AuthRateLimit int

	// Locale used for money formatting in reports
	Locale string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("APP_ENV", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		Backend:    strings.ToLower(getEnv("BACKEND", BackendLocal)),
		SQLitePath: getEnv("SQLITE_PATH", "moneybook.db"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "moneybook"),
		DBPassword: getEnv("DB_PASSWORD", "moneybook"),
		DBName:     getEnv("DB_NAME", "moneybook"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		RedisURL:     getEnv("REDIS_URL", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moneybook.events"),

		Locale: getEnv("LOCALE", "ru-RU"),
	}

	if config.Backend != BackendLocal && config.Backend != BackendRemote {
		log.Printf("Warning: unknown BACKEND value '%s', falling back to %s\n", config.Backend, BackendLocal)
		config.Backend = BackendLocal
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	rateStr := getEnv("AUTH_RATE_LIMIT", "20")
	rate, err := strconv.Atoi(rateStr)
	if err != nil || rate < 1 {
		log.Printf("Warning: invalid AUTH_RATE_LIMIT value '%s', falling back to 20\n", rateStr)
		rate = 20
	}
	config.AuthRateLimit = rate

	return config, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
