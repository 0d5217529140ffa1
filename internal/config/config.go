package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis (optional; flash messages and hub fan-out fall back to memory)
	RedisURL string

	// Auth service
	AuthServiceURL     string
	AuthServiceTimeout time.Duration
	UserAgent          string

	// CORS
	AllowedOrigins []string

	// Notifications
	NotifyDuration time.Duration

	// Rate limiting of form submissions
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Session cookie
	SessionCookieSecure bool

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Auth service
		AuthServiceURL:     getEnv("AUTH_SERVICE_URL", "http://localhost:5000"),
		AuthServiceTimeout: parseDuration(getEnv("AUTH_SERVICE_TIMEOUT", "10s"), 10*time.Second),
		UserAgent:          getEnv("USER_AGENT", "MWork/1.0 authweb"),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		// Notifications
		NotifyDuration: parseDuration(getEnv("NOTIFY_DURATION", "5s"), 5*time.Second),

		// Rate limiting
		RateLimitRequests: parseInt(getEnv("RATE_LIMIT_REQUESTS", "20"), 20),
		RateLimitWindow:   parseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"), time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
		LogFile:  getEnv("LOG_FILE", ""),
	}

	// Session cookie: Secure by default in production
	cfg.SessionCookieSecure = parseBool(getEnv("SESSION_COOKIE_SECURE", ""), cfg.IsProduction())

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func parseBool(s string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
