package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Annotation AnnotationConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type AnnotationConfig struct {
	// MaxBatchSize caps one atomic batch write/delete against the store.
	MaxBatchSize int
	// SettleDelay is how long section navigation waits for layout
	// transitions before materializing canvases.
	SettleDelay time.Duration
	// SessionTTL controls eviction of idle per-user annotation stores.
	SessionTTL time.Duration
	// EventTopic is the in-process bus topic for annotation events.
	EventTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "annotation_audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Annotation: AnnotationConfig{
			MaxBatchSize: getEnvAsInt("ANNOTATION_MAX_BATCH_SIZE", 500),
			SettleDelay:  getEnvAsDuration("SECTION_SETTLE_DELAY", 300*time.Millisecond),
			SessionTTL:   getEnvAsDuration("ANNOTATION_SESSION_TTL", time.Hour),
			EventTopic:   getEnv("ANNOTATION_EVENT_TOPIC", "ANNOTATION_EVENTS"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
