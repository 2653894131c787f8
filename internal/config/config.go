// Package config reads process settings from the environment, after an
// optional .env file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBLogLevel  string
	AutoMigrate bool

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr       string
	RedisPassword   string
	SessionCacheTTL time.Duration

	KafkaBrokers     []string
	KafkaTopicPrefix string

	CORSAllowOrigins string
}

// Load reads .env when present and then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() Config {
	return Config{
		Port: getEnv("PORT", "3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnv("DB_NAME", "utang"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBLogLevel:  strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
		AutoMigrate: getBool("AUTO_MIGRATE", true),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    time.Duration(getInt("JWT_TTL_HOURS", 24)) * time.Hour,

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		SessionCacheTTL: time.Duration(getInt("SESSION_CACHE_TTL_SECONDS", 300)) * time.Second,

		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "utang"),

		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
	}
}

// DSN returns DATABASE_URL or a key/value DSN built from the DB_* settings.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return b
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
