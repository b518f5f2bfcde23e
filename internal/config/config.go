package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageDynamo   = "dynamo"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort     string
	AppEnv      string
	LogLevel    string
	PingMessage string

	StorageDriver string
	DatabaseURL   string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string
	SNSRegion      string

	ContractorAlertPhone string
	ContractorAlertEmail string
	SMTPHost             string
	SMTPPort             int
	SMTPFrom             string
	SMTPUsername         string
	SMTPPassword         string

	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	RedditCacheTTL     time.Duration

	SlackWebhookURL string

	SupabaseURL          string
	SupabaseAnonKey      string
	SupabaseJWTSecret    string
	MagicLinkRedirectURL string

	RedisURL string

	AMQPURL      string
	AMQPExchange string

	GeoIPURL         string
	ExchangeRateURL  string
	CurrencyCacheTTL time.Duration

	HTTPClientTimeout time.Duration
	AllowedOrigins    []string // CORS allowed origins

	APIBaseURL string // used by the qualify CLI
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Applicants string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		AppEnv:      getEnv("NODE_ENV", getEnv("APP_ENV", "production")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		PingMessage: getEnv("PING_MESSAGE", "ping"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", defaultStorage())),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Applicants: getEnv("DYNAMO_TABLE_APPLICANTS", "applicants"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", ""),
		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),

		ContractorAlertPhone: getEnv("CONTRACTOR_ALERT_PHONE", ""),
		ContractorAlertEmail: getEnv("CONTRACTOR_ALERT_EMAIL", ""),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnvInt("SMTP_PORT", 1025),
		SMTPFrom:             getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),

		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "qualify-api/1.0"),
		RedditCacheTTL:     getEnvDuration("REDDIT_CACHE_TTL", time.Hour),

		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),

		SupabaseURL:          getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:      getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret:    getEnv("SUPABASE_JWT_SECRET", ""),
		MagicLinkRedirectURL: getEnv("MAGIC_LINK_REDIRECT_URL", "http://localhost:8080/"),

		RedisURL: getEnv("REDIS_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "qualify.events"),

		GeoIPURL:         getEnv("GEOIP_URL", "https://ipapi.co"),
		ExchangeRateURL:  getEnv("EXCHANGE_RATE_URL", "https://open.er-api.com/v6/latest"),
		CurrencyCacheTTL: getEnvDuration("CURRENCY_CACHE_TTL", 24*time.Hour),

		HTTPClientTimeout: getEnvDuration("HTTP_CLIENT_TIMEOUT", 5*time.Second),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
	}
}

// IsDevelopment reports whether error responses may carry stack traces.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// defaultStorage picks postgres when a database URL is present so that a bare
// DATABASE_URL is enough to get persistent storage.
func defaultStorage() string {
	if os.Getenv("DATABASE_URL") != "" {
		return StoragePostgres
	}
	return StorageMemory
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
