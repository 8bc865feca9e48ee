package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string // sqlite, postgres, mysql
	DatabasePath string // SQLite file path
	DatabaseURL  string // PostgreSQL/MySQL connection string
	LogMode      string
	Location     *time.Location

	JWTSecret string
	JWTTTL    time.Duration

	// Answer endpoint rate limit per user
	AnswerRateLimit  int
	AnswerRateWindow time.Duration

	SchedulerEnabled    bool
	HardWordBatchSize   int
	HardWordFaultCount  int
	DailyCorrectMinimum int
	GrandAwardName      string

	TelegramBotToken string
	TelegramChatID   int64

	SESRegion     string
	SESFromEmail  string
	SESFromName   string
	NotifyEmailTo string
}

// Load reads configuration from an optional .env file and environment variables with sensible defaults
func Load() *Config {
	// A missing .env file is fine, the environment still applies
	_ = godotenv.Load()

	return &Config{
		ServerPort:   getEnv("PORT", "8080"),
		DatabaseType: strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DatabasePath: getEnv("DB_PATH", "./wordslayer.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		LogMode:      getEnv("LOG_MODE", "dev"),
		Location:     getEnvLocation("APP_TIMEZONE", time.Local),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 7*24*time.Hour),

		AnswerRateLimit:  getEnvInt("ANSWER_RATE_LIMIT", 60),
		AnswerRateWindow: getEnvDuration("ANSWER_RATE_WINDOW", time.Minute),

		SchedulerEnabled:    getEnvBool("SCHEDULER_ENABLED", true),
		HardWordBatchSize:   getEnvInt("HARD_WORD_BATCH_SIZE", 15),
		HardWordFaultCount:  getEnvInt("HARD_WORD_FAULT_COUNT", 2),
		DailyCorrectMinimum: getEnvInt("PROBABILITY_DAILY_CORRECT_MIN", 15),
		GrandAwardName:      getEnv("GRAND_AWARD_NAME", "Imperial Jade Seal"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   int64(getEnvInt("TELEGRAM_CHAT_ID", 0)),

		SESRegion:     getEnv("SES_REGION", "us-east-1"),
		SESFromEmail:  getEnv("SES_FROM_EMAIL", ""),
		SESFromName:   getEnv("SES_FROM_NAME", "WordSlayer"),
		NotifyEmailTo: getEnv("NOTIFY_EMAIL_TO", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvLocation(key string, defaultValue *time.Location) *time.Location {
	if value := os.Getenv(key); value != "" {
		if loc, err := time.LoadLocation(value); err == nil {
			return loc
		}
	}
	return defaultValue
}
