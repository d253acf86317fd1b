package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr               string
	Environment        string
	DatabaseURL        string
	DataEncryptionKey  string
	RunMigrations      bool
	MigrationsDir      string
	RunSeed            bool
	LogLevel           string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool

	RedisAddr    string
	ListCacheTTL time.Duration

	KafkaBrokers       []string
	KafkaEmployeeTopic string

	FilesDir      string
	MaxPhotoBytes int64

	BackupDir      string
	BackupKeep     int
	BackupInterval time.Duration

	SFTPHost      string
	SFTPPort      int
	SFTPUser      string
	SFTPPass      string
	SFTPRemoteDir string
	SFTPHostKey   string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set take precedence.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DataEncryptionKey:  getEnv("DATA_ENCRYPTION_KEY", ""),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", ""),
		RunSeed:            getEnvBool("RUN_SEED", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		ListCacheTTL:       getEnvDuration("LIST_CACHE_TTL", 2*time.Minute),
		KafkaBrokers:       getEnvList("KAFKA_BROKERS"),
		KafkaEmployeeTopic: getEnv("KAFKA_EMPLOYEE_TOPIC", "employee-records.events"),
		FilesDir:           getEnv("FILES_DIR", "files"),
		MaxPhotoBytes:      int64(getEnvInt("MAX_PHOTO_BYTES", 5*1024*1024)),
		BackupDir:          getEnv("BACKUP_DIR", "backups"),
		BackupKeep:         getEnvInt("BACKUP_KEEP", 10),
		BackupInterval:     getEnvDuration("BACKUP_INTERVAL", 24*time.Hour),
		SFTPHost:           getEnv("SFTP_HOST", ""),
		SFTPPort:           getEnvInt("SFTP_PORT", 22),
		SFTPUser:           getEnv("SFTP_USER", ""),
		SFTPPass:           getEnv("SFTP_PASS", ""),
		SFTPRemoteDir:      getEnv("SFTP_REMOTE_DIR", "/backups"),
		SFTPHostKey:        getEnv("SFTP_HOST_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) SFTPEnabled() bool {
	return strings.TrimSpace(c.SFTPHost) != ""
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && strings.TrimSpace(c.DataEncryptionKey) == "" {
		return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxPhotoBytes < 1024 {
		return fmt.Errorf("MAX_PHOTO_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.BackupKeep <= 0 {
		return fmt.Errorf("BACKUP_KEEP must be positive")
	}
	if c.BackupInterval < 0 {
		return fmt.Errorf("BACKUP_INTERVAL must not be negative")
	}
	if len(c.KafkaBrokers) > 0 && strings.TrimSpace(c.KafkaEmployeeTopic) == "" {
		return fmt.Errorf("KAFKA_EMPLOYEE_TOPIC must be set when KAFKA_BROKERS is configured")
	}
	if c.SFTPEnabled() && strings.TrimSpace(c.SFTPUser) == "" {
		return fmt.Errorf("SFTP_USER must be set when SFTP_HOST is configured")
	}
	return nil
}
