package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken          string
	BotName           string
	DBUser            string
	DBPassword        string
	DBName            string
	DBHost            string
	DBPort            string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	AdminPassword     string
	AdminPort         string
	PointsPerReferral int
	CodeLength        int
	PollTimeout       int
	PollBackoff       int
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		BotToken:          getEnv("BOT_TOKEN", ""),
		BotName:           getEnv("BOT_NAME", ""),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "referral_bot"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		RedisHost:         getEnv("REDIS_HOST", "localhost"),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", "admin123"),
		AdminPort:         getEnv("ADMIN_PORT", "8000"),
		PointsPerReferral: getEnvInt("POINTS_PER_REFERRAL", 10),
		CodeLength:        getEnvInt("CODE_LENGTH", 8),
		PollTimeout:       getEnvInt("POLL_TIMEOUT", 30),
		PollBackoff:       getEnvInt("POLL_BACKOFF", 5),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, value, fallback)
		return fallback
	}
	return n
}
