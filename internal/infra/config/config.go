package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env              string
	HTTPAddr         string
	Store            string // "mongo" or "memory"
	MongoURI         string
	MongoDB          string
	KafkaBrokers     []string
	KafkaTopicPrefix string
	CronSecret       string
	SweepInterval    time.Duration
	CORSOrigins      []string
}

// Load parses configuration from the current environment. A .env file in the
// working directory is read first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		Store:            strings.ToLower(getEnv("STORE", "mongo")),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "casadbendang"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		CronSecret:       os.Getenv("CRON_SECRET"),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		cfg.CORSOrigins = strings.Split(origins, ",")
	}

	interval, err := parseDurationEnv("SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.SweepInterval = interval

	switch cfg.Store {
	case "mongo":
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORE=mongo")
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("unknown STORE %q (want mongo or memory)", cfg.Store)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}
