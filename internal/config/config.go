package config

import (
	"os"
	"strconv"
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

	// Invitations
	InvitationTTL time.Duration

	// API tokens
	JWTSecret     string
	TokenDuration time.Duration

	// Email (Amazon SES); empty SESFromEmail disables sending
	SESRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// OAuth login
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./kinship.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		InvitationTTL: 24 * time.Hour * time.Duration(getEnvInt("INVITATION_TTL_DAYS", 7)),

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenDuration: 24 * time.Hour,

		SESRegion:    getEnv("SES_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Kinship"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
