package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration for both the operator client and
// the reference record store.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	OTLPEndpoint string

	// Operator client.
	RecordStoreURL string
	RequestTimeout time.Duration
	SessionFile    string
	DeliveryTarget string
	AWSRegion      string

	// Record store.
	HTTPAddr              string
	AuthJWTSecret         string
	AccessTokenTTL        time.Duration
	RefreshTokenTTL       time.Duration
	InvoiceNumberTemplate string
	BootstrapUsername     string
	BootstrapPassword     string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	ArtifactCacheTTL      time.Duration
	LoginRate             float64
	LoginBurst            int
	NodeID                int64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBSQLitePath      string
	DBMetrics         bool
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:      getenv("APP_SERVICE", "invoicedesk"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		RecordStoreURL: strings.TrimRight(getenv("RECORDSTORE_URL", "http://localhost:8080/api"), "/"),
		RequestTimeout: getenvDuration("REQUEST_TIMEOUT", 15*time.Second),
		SessionFile:    getenv("SESSION_FILE", defaultSessionFile()),
		DeliveryTarget: getenv("DELIVERY_TARGET", "dir:./exports"),
		AWSRegion:      getenv("AWS_REGION", "us-east-1"),

		HTTPAddr:              getenv("HTTP_ADDR", ":8080"),
		AuthJWTSecret:         strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AccessTokenTTL:        getenvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:       getenvDuration("REFRESH_TOKEN_TTL", 24*time.Hour),
		InvoiceNumberTemplate: getenv("INVOICE_NUMBER_TEMPLATE", "INV-{YYYY}{MM}{DD}-{SEQ6}"),
		BootstrapUsername:     strings.TrimSpace(getenv("BOOTSTRAP_SUPERUSER", "")),
		BootstrapPassword:     getenv("BOOTSTRAP_PASSWORD", ""),
		RedisAddr:             strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:         getenv("REDIS_PASSWORD", ""),
		RedisDB:               int(getenvInt64("REDIS_DB", 0)),
		ArtifactCacheTTL:      getenvDuration("ARTIFACT_CACHE_TTL", time.Hour),
		LoginRate:             getenvFloat("LOGIN_RATE", 0.2),
		LoginBurst:            int(getenvInt64("LOGIN_BURST", 5)),
		NodeID:                getenvInt64("NODE_ID", 1),

		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "recordstore"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBSQLitePath:      getenv("DATABASE_SQLITE_PATH", "recordstore.db"),
		DBMetrics:         strings.EqualFold(getenv("DATABASE_METRICS", "true"), "true"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".invoicedesk-session.json"
	}
	return filepath.Join(dir, "invoicedesk", "session.json")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
