package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and optionally a
// config.yaml in the working directory. Environment variables (prefix
// APPLYD_, nested keys joined with underscores, e.g. APPLYD_SERVER_PORT)
// take precedence over file values. Returns a validated Config or an error
// describing what is missing or malformed.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment can carry everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("APPLYD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper already knows about, so keys without
	// defaults (secrets, connection strings) need explicit bindings for
	// env-only configuration to work.
	for _, key := range []string{
		"database.url",
		"auth.jwt_secret",
		"auth.admin_key_hash",
		"llm.gemini_api_key",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sane one. Secrets
// and connection strings deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("gateway.url", "http://localhost:4444")

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("pool.max_global_sessions", 10)
	v.SetDefault("pool.default_per_user_sessions", 1)
	v.SetDefault("pool.idle_timeout_seconds", 1800)
	v.SetDefault("pool.reap_interval_seconds", 60)

	v.SetDefault("worker.count", 4)
	v.SetDefault("worker.queue_size", 256)
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.base_delay_ms", 2000)
	v.SetDefault("worker.max_delay_ms", 120000)
	v.SetDefault("worker.acquire_base_delay_ms", 15000)
}
