package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Engine   EngineConfig   `yaml:"engine"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host                string  `yaml:"host"`
	Port                int     `yaml:"port"`
	ReadTimeoutSeconds  int     `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int     `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int     `yaml:"idle_timeout_seconds"`
	RateLimit           float64 `yaml:"rate_limit"` // requests per second per instance
	RateBurst           int     `yaml:"rate_burst"`
}

// ReadTimeout returns the read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return secondsOr(s.ReadTimeoutSeconds, 10*time.Second)
}

// WriteTimeout returns the write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return secondsOr(s.WriteTimeoutSeconds, 10*time.Second)
}

// IdleTimeout returns the idle timeout as a duration.
func (s ServerConfig) IdleTimeout() time.Duration {
	return secondsOr(s.IdleTimeoutSeconds, 60*time.Second)
}

func secondsOr(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// EngineConfig holds evaluation loop settings
type EngineConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	HorizonDays     int    `yaml:"horizon_days"`
	RetentionCap    int    `yaml:"retention_cap"`
	ThresholdsPath  string `yaml:"thresholds_path"`
}

// DatabaseConfig holds the hosted database connection settings
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds the shared snapshot cache settings
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8090,
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 10,
			IdleTimeoutSeconds:  60,
			RateLimit:           20,
			RateBurst:           40,
		},
		Engine: EngineConfig{
			IntervalSeconds: 30,
			HorizonDays:     7,
			RetentionCap:    20,
		},
		Redis: RedisConfig{
			TTLSeconds: 25,
		},
	}
}

// Load reads a YAML config file, expanding ${ENV_VAR} references before
// parsing. Missing fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	content := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Interval returns the evaluation cadence as a duration, clamped to a
// sane floor so a zero config cannot spin the loop.
func (e EngineConfig) Interval() time.Duration {
	if e.IntervalSeconds < 5 {
		return 30 * time.Second
	}
	return time.Duration(e.IntervalSeconds) * time.Second
}
