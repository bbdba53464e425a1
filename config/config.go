package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Chat     ChatConfig
	S3       S3Config
}

type ServerConfig struct {
	Port        string
	Environment string
	// InternalToken guards the /internal endpoints (deadline-scan trigger).
	InternalToken string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// FanOut enables the redis pub/sub backbone so multiple API instances
	// share room membership. Off means in-process delivery only.
	FanOut bool
}

type AuthConfig struct {
	JWTSecret string
}

type ChatConfig struct {
	PageSize          int
	PreviewRunes      int
	DueSoonWindow     time.Duration
	MessagesPerMinute int
}

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicBase string
	PresignTTL time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			Environment:   getEnv("APP_ENV", "development"),
			InternalToken: getEnv("INTERNAL_TOKEN", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "taskboard"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			FanOut:   getEnvAsBool("REDIS_FANOUT", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Chat: ChatConfig{
			PageSize:          getEnvAsInt("CHAT_PAGE_SIZE", 50),
			PreviewRunes:      getEnvAsInt("CHAT_PREVIEW_RUNES", 100),
			DueSoonWindow:     getEnvAsDuration("DUE_SOON_WINDOW", 24*time.Hour),
			MessagesPerMinute: getEnvAsInt("MESSAGES_PER_MINUTE", 60),
		},
		S3: S3Config{
			Region:     getEnv("S3_REGION", ""),
			Bucket:     getEnv("S3_BUCKET", ""),
			AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("S3_SECRET_KEY", ""),
			Endpoint:   getEnv("S3_ENDPOINT", ""),
			PublicBase: getEnv("S3_PUBLIC_BASE", ""),
			PresignTTL: getEnvAsDuration("S3_PRESIGN_TTL", 15*time.Minute),
		},
	}, nil
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
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
