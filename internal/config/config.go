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
	App      AppConfig
	Server   ServerConfig
	DB       PostgresConfig
	Identity IdentityConfig
	Session  SessionConfig
	Kafka    KafkaConfig
	RabbitMQ RabbitMQConfig
}

type AppConfig struct {
	Name     string
	Env      string
	LogLevel string
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins string
}

type PostgresConfig struct {
	URL      string // takes precedence over the discrete fields
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	Migrate  bool
}

// IdentityConfig describes how assertions from the identity provider are verified.
type IdentityConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	MaxAge       time.Duration
}

// KafkaConfig is optional; events are not streamed when Brokers is empty.
type KafkaConfig struct {
	Brokers    []string
	EventTopic string
}

// RabbitMQConfig is optional; notifications are not published when URL is empty.
type RabbitMQConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "garment-tracker"),
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", ""),
		},
		Server: ServerConfig{
			Host:        getEnv("HTTP_HOST", "0.0.0.0"),
			Port:        getEnvAsInt("PORT", 3000),
			CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),
		},
		DB: PostgresConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "garment_tracker"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 50),
			Migrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Identity: IdentityConfig{
			Secret:   getEnv("IDENTITY_JWT_SECRET", ""),
			Issuer:   getEnv("IDENTITY_ISSUER", ""),
			Audience: getEnv("IDENTITY_AUDIENCE", ""),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE", "sid"),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
			MaxAge:       getEnvAsDuration("SESSION_MAX_AGE", 7*24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:    splitAndTrim(getEnv("KAFKA_BOOTSTRAP_SERVERS", "")),
			EventTopic: getEnv("KAFKA_EVENT_TOPIC", "garment.order-events"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:        getEnv("RABBITMQ_URL", ""),
			Exchange:   getEnv("RABBITMQ_EXCHANGE", "notifications"),
			RoutingKey: getEnv("RABBITMQ_ROUTING_KEY", "order_status_updates"),
		},
	}

	return cfg, cfg.validate()
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		p.Host, p.User, p.Password, p.DBName, p.Port, p.SSLMode,
	)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("PORT is invalid")
	}
	if c.DB.URL == "" && (c.DB.Host == "" || c.DB.User == "" || c.DB.DBName == "") {
		return fmt.Errorf("database config is incomplete")
	}
	if c.Identity.Secret == "" {
		return fmt.Errorf("IDENTITY_JWT_SECRET is required")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE is empty")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.EventTopic == "" {
		return fmt.Errorf("KAFKA_EVENT_TOPIC is empty")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if val := strings.TrimSpace(p); val != "" {
			out = append(out, val)
		}
	}
	return out
}
