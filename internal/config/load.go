package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables consumed by the
// services, e.g. TASKTRACK_AUTH_JWT_SECRET maps to auth.jwt_secret.
const envPrefix = "TASKTRACK"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over file values. Returns a populated Config or an error if
// loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file; absence is not an error.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not bind keys that have no default or file value,
	// so bind every known key explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"auth.jwt_secret",
		"auth.token_lifetime_minutes",
		"broker.url",
		"broker.exchange",
		"broker.queue",
		"broker.dead_letter_queue",
		"broker.publish_timeout_seconds",
		"consumer.max_redeliveries",
		"consumer.redelivery_delay_seconds",
		"consumer.backoff_multiplier",
		"consumer.processing_timeout_seconds",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values for settings that have sensible
// defaults. Secrets and connection targets have none and must be provided.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.token_lifetime_minutes", 30)
	v.SetDefault("broker.exchange", "task_exchange")
	v.SetDefault("broker.queue", "task_events")
	v.SetDefault("broker.dead_letter_queue", "task_events_dlq")
	v.SetDefault("broker.publish_timeout_seconds", 10)
	v.SetDefault("consumer.max_redeliveries", 3)
	v.SetDefault("consumer.redelivery_delay_seconds", 5)
	v.SetDefault("consumer.backoff_multiplier", 1.0)
	v.SetDefault("consumer.processing_timeout_seconds", 30)
}
