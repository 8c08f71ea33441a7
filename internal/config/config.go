package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Shared secret presented by the voice platform on every webhook
	ServerSecret string

	// Enrichment lookup sources
	TextBackURL    string
	TextBackToken  string
	TextBackSecret string
	OmniaURL       string
	OmniaAPIKey    string
	EnrichSources  []string

	// Identity cache
	CacheTTL time.Duration

	// Telephony platform (keypress endpoint)
	TrackDrivePublicKey  string
	TrackDrivePrivateKey string
	TrackDriveAuth       string // pre-encoded Basic token, overrides the key pair
	DefaultSubdomain     string

	// Lead qualification thresholds
	MinDebtAmount    float64
	MinMonthlyIncome float64

	// Outbound HTTP behavior
	MaxRetries     int
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	BackoffBase    time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitAndTrim(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		ServerSecret: os.Getenv("SERVER_SECRET"),

		TextBackURL:    getEnv("TEXTBACK_API_URL", "https://api.textback.ai/api/v2/contact/findPhone"),
		TextBackToken:  os.Getenv("TEXTBACK_API_TOKEN"),
		TextBackSecret: os.Getenv("TEXTBACK_API_SECRET"),
		OmniaURL:       getEnv("OMNIA_API_URL", "https://api.omnia-voice.com/api/incoming"),
		OmniaAPIKey:    os.Getenv("OMNIA_VOICE_API_KEY"),
		EnrichSources:  splitAndTrim(getEnv("ENRICH_SOURCES", "textback,omnia")),

		TrackDrivePublicKey:  os.Getenv("TRACKDRIVE_PUBLIC_KEY"),
		TrackDrivePrivateKey: os.Getenv("TRACKDRIVE_PRIVATE_KEY"),
		TrackDriveAuth:       os.Getenv("TRACKDRIVE_AUTH"),
		DefaultSubdomain:     getEnv("TRACKDRIVE_SUBDOMAIN", "global-telecom-investors"),
	}

	if config.ServerSecret == "" {
		return nil, fmt.Errorf("SERVER_SECRET must be set")
	}

	cacheTTL, err := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "86400"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_SECONDS: %w", err)
	}
	config.CacheTTL = time.Duration(cacheTTL) * time.Second

	config.MinDebtAmount, err = strconv.ParseFloat(getEnv("QUALIFY_MIN_DEBT_AMOUNT", "10000"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid QUALIFY_MIN_DEBT_AMOUNT: %w", err)
	}

	config.MinMonthlyIncome, err = strconv.ParseFloat(getEnv("QUALIFY_MIN_MONTHLY_INCOME", "2000"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid QUALIFY_MIN_MONTHLY_INCOME: %w", err)
	}

	config.MaxRetries, err = strconv.Atoi(getEnv("HTTP_MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_MAX_RETRIES: %w", err)
	}

	connectTimeout, err := strconv.Atoi(getEnv("HTTP_CONNECT_TIMEOUT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_CONNECT_TIMEOUT: %w", err)
	}
	config.ConnectTimeout = time.Duration(connectTimeout) * time.Second

	requestTimeout, err := strconv.Atoi(getEnv("HTTP_REQUEST_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_REQUEST_TIMEOUT: %w", err)
	}
	config.RequestTimeout = time.Duration(requestTimeout) * time.Second

	backoffBase, err := strconv.Atoi(getEnv("HTTP_BACKOFF_BASE_MS", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_BACKOFF_BASE_MS: %w", err)
	}
	config.BackoffBase = time.Duration(backoffBase) * time.Millisecond

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
