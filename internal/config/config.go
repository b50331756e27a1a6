package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port      string
	PublicURL string

	// WhatsApp instance service
	InstanceURL     string
	QRDelay         time.Duration
	QRAttempts      int
	HTTPTimeout     time.Duration
	MonitorSchedule string

	// Security
	APIKey            string
	AllowedDomains    []string
	JWTSecret         string
	AdminPasswordHash string

	// Storage
	FirebaseProjectID string
	GoogleCredentials string
	SQLitePath        string

	// Logging
	LogMode string
	LogFile string
}

// Load reads configuration from environment variables
func Load() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	port := getEnv("PORT", "3001")

	cfg := &Config{
		// Server
		Port:      port,
		PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),

		// WhatsApp instance service
		InstanceURL:     strings.TrimRight(getEnv("WA_INSTANCE_URL", os.Getenv("VITE_URL_INSTANCE_WHATSAPP")), "/"),
		QRDelay:         getEnvDuration("WA_QR_DELAY", 2*time.Second),
		QRAttempts:      getEnvInt("WA_QR_ATTEMPTS", 1),
		HTTPTimeout:     getEnvDuration("WA_HTTP_TIMEOUT", 15*time.Second),
		MonitorSchedule: getEnv("WA_MONITOR_SCHEDULE", "*/5 * * * *"),

		// Security
		APIKey:            getEnv("API_KEY", ""),
		AllowedDomains:    parseAllowedDomains(getEnv("ALLOWED_DOMAINS", "http://localhost:5173,http://localhost:8080")),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		// Storage
		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		GoogleCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		SQLitePath:        getEnv("SQLITE_PATH", "dashboard.db"),

		// Logging
		LogMode: getEnv("LOG_MODE", "development"),
		LogFile: getEnv("LOG_FILE", ""),
	}

	if cfg.QRAttempts < 1 {
		cfg.QRAttempts = 1
	}

	return cfg
}

// UseFirestore reports whether webhook data should live in Firestore
// instead of the local SQLite file.
func (c *Config) UseFirestore() bool {
	return c.FirebaseProjectID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := cast.ToIntE(value)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go duration strings ("2s", "1500ms") or a bare
// number of milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if ms, err := cast.ToInt64E(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := cast.ToDurationE(value)
	if err != nil || d < 0 {
		log.Printf("⚠️ Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func parseAllowedDomains(domainsStr string) []string {
	domains := strings.Split(domainsStr, ",")
	result := make([]string, 0, len(domains))
	for _, d := range domains {
		trimmed := strings.TrimSpace(d)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
