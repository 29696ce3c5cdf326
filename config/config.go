package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	FDC       FDCConfig
	Cache     CacheConfig
	Arbiter   ArbiterConfig
	Matching  MatchingConfig
	RateLimit RateLimitConfig
	LogLevel  string `mapstructure:"log_level"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FDCConfig holds food-composition database API configuration
type FDCConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	PageSize        int    `mapstructure:"page_size"`
	RequestsPerHour int    `mapstructure:"requests_per_hour"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ArbiterConfig holds the external tie-break arbiter configuration
type ArbiterConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MatchingConfig holds candidate-selection tuning
type MatchingConfig struct {
	AcceptThreshold float64 `mapstructure:"accept_threshold"`
	LooseThreshold  float64 `mapstructure:"loose_threshold"`
	NearTieRatio    float64 `mapstructure:"near_tie_ratio"`
	Parallelism     int     `mapstructure:"parallelism"`
}

// RateLimitConfig holds inbound rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	// .env is optional; env vars win either way
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nutriground/")

	v.SetEnvPrefix("NUTRIGROUND")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("fdc.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("fdc.page_size", 25)
	v.SetDefault("fdc.requests_per_hour", 1000)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "720h") // 30 days

	v.SetDefault("arbiter.enabled", false)
	v.SetDefault("arbiter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("arbiter.model", "openai/gpt-4o-mini")
	v.SetDefault("arbiter.timeout", "10s")

	v.SetDefault("matching.accept_threshold", 0.35)
	v.SetDefault("matching.loose_threshold", 0.20)
	v.SetDefault("matching.near_tie_ratio", 0.90)
	v.SetDefault("matching.parallelism", 4)

	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("log_level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.FDC.APIKey == "" {
		return fmt.Errorf("food database API key is required (set NUTRIGROUND_FDC_API_KEY)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis'")
	}

	if config.Arbiter.Enabled && config.Arbiter.APIKey == "" {
		return fmt.Errorf("arbiter API key is required when arbiter is enabled")
	}

	if config.Matching.NearTieRatio <= 0 || config.Matching.NearTieRatio > 1 {
		return fmt.Errorf("matching near_tie_ratio must be in (0, 1], got: %v", config.Matching.NearTieRatio)
	}

	if config.Matching.Parallelism < 1 {
		return fmt.Errorf("matching parallelism must be at least 1, got: %d", config.Matching.Parallelism)
	}

	return nil
}
