package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is read once at startup and injected into constructors. The Stripe
// key in particular is never process-global state.
type Config struct {
	Port string

	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	RedisAddr string

	KafkaTopic string

	StripeSecretKey string
	StripeBaseURL   string
	GatewayTimeout  time.Duration

	JWTSecret string
}

// LoadFromEnv reads configuration from the environment with local defaults.
func LoadFromEnv() Config {
	timeoutMS, _ := strconv.Atoi(getenv("GATEWAY_TIMEOUT_MS", "5000"))

	return Config{
		Port:            getenv("PORT", "8080"),
		DBHost:          getenv("DB_HOST", "127.0.0.1"),
		DBPort:          getenv("DB_PORT", "3306"),
		DBUser:          getenv("DB_USER", "root"),
		DBPass:          os.Getenv("DB_PASS"),
		DBName:          getenv("DB_NAME", "marketplace"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		KafkaTopic:      getenv("KAFKA_TOPIC", "order-events"),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		StripeBaseURL:   getenv("STRIPE_BASE_URL", "https://api.stripe.com"),
		GatewayTimeout:  time.Duration(timeoutMS) * time.Millisecond,
		JWTSecret:       getenv("JWT_SECRET", "secret"),
	}
}

// DSN builds the MySQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
