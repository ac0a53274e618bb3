package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	CORSAllowedOrigins []string
	MetricsEnabled     bool
	ThrottleRPS        float64
	ThrottleBurst      int

	// Storage backend for leads and rate-limit buckets. The scheme selects
	// the driver: memory://, dynamodb://, postgres://, redis://.
	StorageURL        string
	AutoMigrate       bool
	LeadsTableName    string
	RateTableName     string
	DailyContactLimit int
	RateLimitTimezone string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Email delivery
	EmailMode            string
	EmailProvider        string
	EmailFromName        string
	GraphTenantID        string
	GraphClientID        string
	GraphClientSecret    string
	GraphFromUser        string
	GraphToEmail         string
	SESFromEmail         string
	SendGridAPIKey       string
	SendGridFromEmail    string
	ContactSubjectPrefix string
	AlertSubjectPrefix   string
	EmailTimeout         time.Duration

	GatusWebhookToken string
	// AdminJWTSecret enables GET /admin/leads/{leadID} behind HS256 bearer tokens.
	AdminJWTSecret string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present.
// Default table names. Postgres ignores them and uses its fixed schema.
const (
	DefaultLeadsTableName = "Leads"
	DefaultRateTableName  = "ContactRateLimits"
)

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOW_ORIGIN", []string{"*"}),
		MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),
		ThrottleRPS:        getEnvAsFloat("THROTTLE_RPS", 5),
		ThrottleBurst:      getEnvAsInt("THROTTLE_BURST", 20),

		StorageURL:        getEnv("STORAGE_URL", "memory://"),
		AutoMigrate:       getEnvAsBool("AUTO_MIGRATE", true),
		LeadsTableName:    getEnv("LEADS_TABLE_NAME", DefaultLeadsTableName),
		RateTableName:     getEnv("RATE_TABLE_NAME", DefaultRateTableName),
		DailyContactLimit: getEnvAsInt("DAILY_CONTACT_LIMIT", 5),
		RateLimitTimezone: getEnv("RATE_LIMIT_TIMEZONE", "America/Chicago"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		EmailMode:            strings.ToLower(getEnv("EMAIL_MODE", "")),
		EmailProvider:        strings.ToLower(getEnv("EMAIL_PROVIDER", "graph")),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "BlueFlare Energy"),
		GraphTenantID:        getEnv("GRAPH_TENANT_ID", ""),
		GraphClientID:        getEnv("GRAPH_CLIENT_ID", ""),
		GraphClientSecret:    getEnv("GRAPH_CLIENT_SECRET", ""),
		GraphFromUser:        getEnv("GRAPH_FROM_USER", ""),
		GraphToEmail:         getEnv("GRAPH_TO_EMAIL", ""),
		SESFromEmail:         getEnv("SES_FROM_EMAIL", ""),
		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:    getEnv("SENDGRID_FROM_EMAIL", ""),
		ContactSubjectPrefix: getEnv("CONTACT_SUBJECT_PREFIX", "[BlueFlare Contact]"),
		AlertSubjectPrefix:   getEnv("ALERT_SUBJECT_PREFIX", "[BlueFlare Monitor]"),
		EmailTimeout:         getEnvAsDuration("EMAIL_TIMEOUT", 10*time.Second),

		GatusWebhookToken: getEnv("GATUS_WEBHOOK_TOKEN", ""),
		AdminJWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
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

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
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

// getEnvAsSlice splits a comma separated variable, dropping blank entries.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
