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
	ServerPort  string
	DBPath      string
	Environment string
	// Remote libSQL (Turso). When set it takes precedence over DBPath.
	TursoDatabaseURL string
	TursoAuthToken   string
	// Redis carries live notification inserts between processes.
	// Empty RedisAddr falls back to the in-process broker.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Logging
	LogLevel  string
	LogFormat string
	// Terminal palette log file
	PaletteLogPath string
	// Search palette
	SearchDebounce    time.Duration
	SearchResultLimit int
	// Notification feed
	NotificationHistory int
	RequestTimeout      time.Duration
	// Other
	AllowedOrigins []string
	AppURL         string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	environment := getEnv("ENVIRONMENT", "development")

	defaultFormat := "console"
	if environment == "production" {
		defaultFormat = "json"
	}

	return &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		DBPath:              getEnv("DB_PATH", "db/clinic.db"),
		Environment:         environment,
		TursoDatabaseURL:    getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:      getEnv("TURSO_AUTH_TOKEN", ""),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", defaultFormat),
		PaletteLogPath:      getEnv("PALETTE_LOG", "palette.log"),
		SearchDebounce:      time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,
		SearchResultLimit:   getEnvInt("SEARCH_RESULT_LIMIT", 5),
		NotificationHistory: getEnvInt("NOTIFICATION_HISTORY", 20),
		RequestTimeout:      time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 5000)) * time.Millisecond,
		AllowedOrigins:      strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		AppURL:              getEnv("APP_URL", "http://localhost:8080"),
	}
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		log.Printf("[WARNING] Invalid value for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
