package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	LogLevel    string

	// BaseURL prefixes public share links ("<BaseURL>/shared/<token>").
	BaseURL string
	// APIBaseURL is the backend endpoint clients and the CLI talk to.
	APIBaseURL string
	// APIToken is the bearer JWT the CLI sends to APIBaseURL.
	APIToken  string
	JWTSecret string

	StorageDriver  string
	StorageRoot    string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	BcryptCost         int
	RateLimitPerSecond float64
	RateLimitBurst     int
	PurgeOrphanedFiles bool
	MaxUploadBytes     int64
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:      getEnv("APP_ENV", "local"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8080"),
		APIToken:    getEnv("API_TOKEN", ""),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),

		StorageDriver:  getEnv("STORAGE_DRIVER", "local"),
		StorageRoot:    getEnv("STORAGE_ROOT", "uploads"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "shared-files"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		BcryptCost:         getEnvInt("BCRYPT_COST", 10),
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 1),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 5),
		PurgeOrphanedFiles: getEnvBool("PURGE_ORPHANED_FILES", true),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 512<<20)),
	}
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}
