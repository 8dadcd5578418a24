package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage for webhook screenshots (optional, S3-compatible: MinIO, AWS S3, R2, ...)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration

	// Webhooks
	WebhookSecret    string // Optional: standard-webhooks signature secret
	RuneLiteAPIKey   string // Optional: required X-API-Key for the RuneLite webhook
	WebhookRateLimit int    // Requests per minute per IP

	// Hiscores
	ProxyAllowedDomains []string
	ProxyTimeout        time.Duration
	HiscoresProxies     []string
	HiscoresTimeout     time.Duration
	CollectionLogURL    string
	UserAgent           string

	// Journal sync
	RemoteBackend      string // "sql", "firestore" or empty for local only
	FirestoreProject   string
	RemoteTimeout      time.Duration
	RemotePollInterval time.Duration
	LocalStorePath     string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "OSRS Journal"),
		AppEnv:  envString("APP_ENV", "development"),
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/journal.sqlite?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret: envString("JWT_SECRET", ""),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 168*time.Hour),

		// Webhooks
		WebhookSecret:    envString("WEBHOOK_SECRET", ""),
		RuneLiteAPIKey:   envString("RUNELITE_API_KEY", ""),
		WebhookRateLimit: envInt("WEBHOOK_RATE_LIMIT", 60),

		// Hiscores
		ProxyAllowedDomains: envList("PROXY_ALLOWED_DOMAINS", []string{"secure.runescape.com", "oldschool.runescape.com"}),
		ProxyTimeout:        envDuration("PROXY_TIMEOUT", 10*time.Second),
		HiscoresProxies:     envList("HISCORES_PROXIES", nil),
		HiscoresTimeout:     envDuration("HISCORES_TIMEOUT", 10*time.Second),
		CollectionLogURL:    envString("COLLECTION_LOG_URL", "https://templeosrs.com/api/collection-log"),
		UserAgent:           envString("USER_AGENT", "osrs-journal/1.0"),

		// Journal sync
		RemoteBackend:      envString("REMOTE_BACKEND", ""),
		FirestoreProject:   envString("FIRESTORE_PROJECT", ""),
		RemoteTimeout:      envDuration("REMOTE_TIMEOUT", 5*time.Second),
		RemotePollInterval: envDuration("REMOTE_POLL_INTERVAL", 5*time.Second),
		LocalStorePath:     envString("LOCAL_STORE_PATH", "./data/journal.db"),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures secrets that have development fallbacks are
// set for production deployments.
func validateProduction(cfg *Config) {
	if cfg.JWTSecret == "" {
		slog.Error("production deployment requires JWT_SECRET",
			"hint", "set APP_ENV=development for local testing")
		os.Exit(1)
	}
}

// Secret returns the JWT secret, with a fixed fallback in development.
func (c *Config) Secret() string {
	if c.JWTSecret == "" && !c.IsProduction() {
		return "development-secret"
	}
	return c.JWTSecret
}

// StorageEnabled reports whether screenshot storage is configured.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList reads a comma separated list, dropping empty items.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Verbose reports whether debug logging was requested.
func (c *Config) Verbose() bool {
	return envBool("VERBOSE", false)
}
