package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	JWTSecret string
	JWTIssuer string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	Debug      bool
	RateLimit  int
	RateWindow time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   strings.ToLower(getEnv("DATABASE_TYPE", "sqlite")),
		DatabasePath:   getEnv("DB_PATH", "./gradewatch.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTIssuer:      getEnv("JWT_ISSUER", ""),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:   getEnv("SES_FROM_EMAIL", ""),
		SESFromName:    getEnv("SES_FROM_NAME", "GradeWatch"),
		AppBaseURL:     strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		Debug:          getEnvBool("DEBUG", false),
		RateLimit:      getEnvInt("RATE_LIMIT", 60),
		RateWindow:     getEnvDuration("RATE_WINDOW", time.Minute),
	}
}

// AuthEnabled reports whether API requests must carry an instructor token
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// AlertsEnabled reports whether at-risk digests can be e-mailed
func (c *Config) AlertsEnabled() bool {
	return c.SESFromEmail != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
