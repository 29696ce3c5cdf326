package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cleanupEnv := func() {
		os.Unsetenv("NUTRIGROUND_SERVER_PORT")
		os.Unsetenv("NUTRIGROUND_SERVER_ENVIRONMENT")
		os.Unsetenv("NUTRIGROUND_FDC_API_KEY")
		os.Unsetenv("NUTRIGROUND_FDC_BASE_URL")
		os.Unsetenv("NUTRIGROUND_FDC_PAGE_SIZE")
		os.Unsetenv("NUTRIGROUND_CACHE_TYPE")
		os.Unsetenv("NUTRIGROUND_CACHE_REDIS_URL")
		os.Unsetenv("NUTRIGROUND_CACHE_TTL")
		os.Unsetenv("NUTRIGROUND_ARBITER_ENABLED")
		os.Unsetenv("NUTRIGROUND_ARBITER_API_KEY")
		os.Unsetenv("NUTRIGROUND_MATCHING_ACCEPT_THRESHOLD")
		os.Unsetenv("NUTRIGROUND_MATCHING_PARALLELISM")
		os.Unsetenv("NUTRIGROUND_RATELIMIT_PER_IP")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("NUTRIGROUND_FDC_API_KEY", "test-key")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.FDC.BaseURL != "https://api.nal.usda.gov/fdc" {
			t.Errorf("FDC.BaseURL = %s, want https://api.nal.usda.gov/fdc", cfg.FDC.BaseURL)
		}
		if cfg.FDC.PageSize != 25 {
			t.Errorf("FDC.PageSize = %d, want 25", cfg.FDC.PageSize)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 720*time.Hour {
			t.Errorf("Cache.TTL = %v, want 720h", cfg.Cache.TTL)
		}
		if cfg.Arbiter.Enabled {
			t.Error("Arbiter.Enabled = true, want false by default")
		}
		if cfg.Matching.AcceptThreshold != 0.35 {
			t.Errorf("Matching.AcceptThreshold = %v, want 0.35", cfg.Matching.AcceptThreshold)
		}
		if cfg.Matching.LooseThreshold != 0.20 {
			t.Errorf("Matching.LooseThreshold = %v, want 0.20", cfg.Matching.LooseThreshold)
		}
		if cfg.Matching.NearTieRatio != 0.90 {
			t.Errorf("Matching.NearTieRatio = %v, want 0.90", cfg.Matching.NearTieRatio)
		}
		if cfg.Matching.Parallelism != 4 {
			t.Errorf("Matching.Parallelism = %d, want 4", cfg.Matching.Parallelism)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("NUTRIGROUND_SERVER_PORT", "9090")
		os.Setenv("NUTRIGROUND_SERVER_ENVIRONMENT", "production")
		os.Setenv("NUTRIGROUND_FDC_API_KEY", "custom-api-key")
		os.Setenv("NUTRIGROUND_FDC_BASE_URL", "https://custom.api.com")
		os.Setenv("NUTRIGROUND_CACHE_TYPE", "redis")
		os.Setenv("NUTRIGROUND_CACHE_REDIS_URL", "redis://localhost:6379")
		os.Setenv("NUTRIGROUND_CACHE_TTL", "24h")
		os.Setenv("NUTRIGROUND_MATCHING_PARALLELISM", "8")
		os.Setenv("NUTRIGROUND_RATELIMIT_PER_IP", "200")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.FDC.APIKey != "custom-api-key" {
			t.Errorf("FDC.APIKey = %s, want custom-api-key", cfg.FDC.APIKey)
		}
		if cfg.FDC.BaseURL != "https://custom.api.com" {
			t.Errorf("FDC.BaseURL = %s, want https://custom.api.com", cfg.FDC.BaseURL)
		}
		if cfg.Cache.Type != "redis" {
			t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.Matching.Parallelism != 8 {
			t.Errorf("Matching.Parallelism = %d, want 8", cfg.Matching.Parallelism)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
	})

	t.Run("fails validation when API key is missing", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing API key")
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("NUTRIGROUND_FDC_API_KEY", "test-key")
		os.Setenv("NUTRIGROUND_CACHE_TYPE", "invalid")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("NUTRIGROUND_FDC_API_KEY", "test-key")
		os.Setenv("NUTRIGROUND_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})

	t.Run("fails validation when arbiter enabled without key", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("NUTRIGROUND_FDC_API_KEY", "test-key")
		os.Setenv("NUTRIGROUND_ARBITER_ENABLED", "true")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for arbiter without API key")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			FDC: FDCConfig{
				APIKey:  "test-key",
				BaseURL: "https://api.nal.usda.gov/fdc",
			},
			Cache: CacheConfig{
				Type: "memory",
			},
			Matching: MatchingConfig{
				AcceptThreshold: 0.35,
				LooseThreshold:  0.20,
				NearTieRatio:    0.90,
				Parallelism:     4,
			},
		}
	}

	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails when API key is empty", func(t *testing.T) {
		cfg := valid()
		cfg.FDC.APIKey = ""
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for empty API key")
		}
	})

	t.Run("fails for invalid cache type", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.Type = "invalid-type"
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for invalid cache type")
		}
	})

	t.Run("validates redis cache type with URL", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.Type = "redis"
		cfg.Cache.RedisURL = "redis://localhost:6379"
		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for valid redis config", err)
		}
	})

	t.Run("fails for redis cache without URL", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.Type = "redis"
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for redis without URL")
		}
	})

	t.Run("fails for near-tie ratio outside (0, 1]", func(t *testing.T) {
		for _, ratio := range []float64{0, -0.5, 1.5} {
			cfg := valid()
			cfg.Matching.NearTieRatio = ratio
			if err := validate(cfg); err == nil {
				t.Errorf("validate() with near_tie_ratio=%v error = nil, want error", ratio)
			}
		}
	})

	t.Run("fails for non-positive parallelism", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.Parallelism = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero parallelism")
		}
	})
}
