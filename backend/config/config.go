package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env        string `envconfig:"ENV" default:"dev"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"` // postgres or sqlite
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"octofit"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"octofit.db"`

	JWTSecret    string `envconfig:"JWT_SECRET"`
	AuthRequired bool   `envconfig:"AUTH_REQUIRED" default:"false"`

	CORSOrigins  string `envconfig:"CORS_ORIGINS" default:"*"`
	RateLimitRPM int    `envconfig:"RATE_LIMIT_RPM" default:"0"`

	RedisURL           string        `envconfig:"REDIS_URL"`
	LeaderboardLockTTL time.Duration `envconfig:"LEADERBOARD_LOCK_TTL" default:"30s"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"octofit.events"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (must be postgres or sqlite)", c.DBDriver)
	}
	if c.AuthRequired && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_REQUIRED is set")
	}
	if c.RateLimitRPM < 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must not be negative")
	}
	if c.LeaderboardLockTTL <= 0 {
		return fmt.Errorf("LEADERBOARD_LOCK_TTL must be positive")
	}
	return nil
}

// PostgresDSN builds the connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
