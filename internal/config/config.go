package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	RequestsTable     string
	AvailabilityTable string
	UsersTable        string

	MatchEventsQueueURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	MatchGuardTTL time.Duration

	// StrictLocationMatch turns the location heuristic into a hard filter.
	// Off by default: the shipped behavior treats location as advisory and
	// matches on time containment alone.
	StrictLocationMatch bool

	EmailProvider string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// SES Email Configuration
	SESFromEmail string
	SESFromName  string

	ExpoPushURL     string
	PushSendTimeout time.Duration

	AdminJWTSecret string

	CORSAllowedOrigins []string

	// SubmitRateLimit throttles submission endpoints per client IP; zero
	// disables the limiter.
	SubmitRateLimit float64
	SubmitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RequestsTable:     getEnv("ESCORT_REQUESTS_TABLE", "escort_requests"),
		AvailabilityTable: getEnv("ESCORT_AVAILABILITY_TABLE", "escort_availability"),
		UsersTable:        getEnv("USERS_TABLE", "users"),

		MatchEventsQueueURL: getEnv("MATCH_EVENTS_QUEUE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		MatchGuardTTL: getEnvAsDuration("MATCH_GUARD_TTL", 10*time.Minute),

		StrictLocationMatch: getEnvAsBool("STRICT_LOCATION_MATCH", false),

		EmailProvider: strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),

		// SendGrid Email Configuration
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "CareLink Escort"),

		// SES Email Configuration
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "CareLink Escort"),

		ExpoPushURL:     getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		PushSendTimeout: getEnvAsDuration("PUSH_SEND_TIMEOUT", 10*time.Second),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),

		SubmitRateLimit: getEnvAsFloat("SUBMIT_RATE_LIMIT", 0),
		SubmitBurst:     getEnvAsInt("SUBMIT_BURST", 20),
	}
}

func splitAndTrim(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
