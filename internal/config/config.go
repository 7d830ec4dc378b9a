package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	EventChannel     string
	ResultsCacheTTL  time.Duration
	StreamKeepAlive  time.Duration
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EVALIA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Evalia API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("event.channel", "evalia:events")
	v.SetDefault("results.cache_ttl", "30s")
	v.SetDefault("stream.keepalive", "30s")
	v.SetDefault("submit.rate_limit", 10)
	v.SetDefault("submit.rate_window", "1m")

	cacheTTL, err := time.ParseDuration(v.GetString("results.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid results cache ttl: %w", err)
	}

	keepAlive, err := time.ParseDuration(v.GetString("stream.keepalive"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid stream keepalive: %w", err)
	}

	rateWindow, err := time.ParseDuration(v.GetString("submit.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid submit rate window: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		EventChannel:     v.GetString("event.channel"),
		ResultsCacheTTL:  cacheTTL,
		StreamKeepAlive:  keepAlive,
		SubmitRateLimit:  v.GetInt("submit.rate_limit"),
		SubmitRateWindow: rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}
