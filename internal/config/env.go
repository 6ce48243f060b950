package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr   string
	GinMode   string
	JWTSecret string

	DBUser string
	DBPass string
	DBHost string
	DBName string

	RedisAddr     string
	RedisPassword string

	AMQPURL string
}

// LoadEnv reads runtime configuration. A local .env file is honored when
// present; real environment variables win over it.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		AppAddr:       getEnv("APP_ADDR", ":8080"),
		GinMode:       strings.TrimSpace(os.Getenv("GIN_MODE")),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		DBUser:        getEnv("DB_USER", "root"),
		DBPass:        strings.TrimSpace(os.Getenv("DB_PASS")),
		DBHost:        getEnv("DB_HOST", "127.0.0.1:3306"),
		DBName:        getEnv("DB_NAME", "greentrain"),
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		AMQPURL:       strings.TrimSpace(os.Getenv("AMQP_URL")),
	}
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}
