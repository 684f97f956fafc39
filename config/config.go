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
	Port           string
	Environment    string
	AllowedOrigins []string
	GatewayToken   string

	// Database
	DatabaseURL  string
	MaxOpenConns int

	// Redis
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Purchases
	PurchaseRateLimit  int
	PurchaseRateWindow time.Duration

	// Opening balance drawn for accounts created without one
	DefaultAccountMin int
	DefaultAccountMax int

	// Workers
	InventorySnapshotInterval time.Duration

	// Crest storage (Cloudflare R2)
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2Bucket          string
	CDNBaseURL        string

	// Monitoring
	EnableMetrics bool
}

// LoadConfig reads .env when present, then the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return fromEnv()
}

func fromEnv() *Config {
	return &Config{
		Port:           getEnv("PORT", "5200"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		GatewayToken:   getEnv("GATEWAY_SERVICE_TOKEN", ""),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		PurchaseRateLimit:  getEnvAsInt("PURCHASE_RATE_LIMIT", 10),
		PurchaseRateWindow: getEnvAsDuration("PURCHASE_RATE_WINDOW", "1m"),

		DefaultAccountMin: getEnvAsInt("DEFAULT_ACCOUNT_MIN", 100),
		DefaultAccountMax: getEnvAsInt("DEFAULT_ACCOUNT_MAX", 1000),

		InventorySnapshotInterval: getEnvAsDuration("INVENTORY_SNAPSHOT_INTERVAL", "1m"),

		R2AccountID:       getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2Bucket:          getEnv("R2_BUCKET_NAME", ""),
		CDNBaseURL:        getEnv("CDN_BASE_URL", ""),

		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

// R2Enabled reports whether crest uploads can be served.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2Bucket != ""
}

// UseMemoryStore selects the in-process store instead of postgres.
func (c *Config) UseMemoryStore() bool {
	return c.Environment == "memory"
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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if duration, err := time.ParseDuration(getEnv(key, defaultValue)); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
