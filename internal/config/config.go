package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
// Each service binary loads the same Config and uses the sections it needs.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Broker   BrokerConfig   `mapstructure:"broker"   validate:"required"`
	Consumer ConsumerConfig `mapstructure:"consumer" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains the shared signing key and token lifetime settings.
// The same secret must be configured for the issuing service and every
// verifying service; verification is purely local and fails closed when
// the keys do not match.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// BrokerConfig contains the message broker connection settings shared by
// the publishing and consuming services.
type BrokerConfig struct {
	URL             string `mapstructure:"url"               validate:"required"`
	Exchange        string `mapstructure:"exchange"          validate:"required"`
	Queue           string `mapstructure:"queue"             validate:"required"`
	DeadLetterQueue string `mapstructure:"dead_letter_queue" validate:"required"`
	// PublishTimeoutSeconds bounds the wait for broker confirmation of a
	// published message. Exceeding it surfaces as a broker-unavailable error
	// rather than blocking the caller indefinitely.
	PublishTimeoutSeconds int `mapstructure:"publish_timeout_seconds" validate:"required,gt=0"`
}

// ConsumerConfig contains the event-consumer retry and dead-letter settings.
type ConsumerConfig struct {
	MaxRedeliveries int `mapstructure:"max_redeliveries" validate:"gte=0"`
	// RedeliveryDelaySeconds is the base delay before a failed event is
	// retried. With a BackoffMultiplier of 1.0 the delay is fixed.
	RedeliveryDelaySeconds int `mapstructure:"redelivery_delay_seconds" validate:"required,gt=0"`
	// BackoffMultiplier scales the delay on each successive redelivery.
	// Must be at least 1.0 so the delay never shrinks between retries.
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier" validate:"required,gte=1"`
	// ProcessingTimeoutSeconds bounds how long a single event may be
	// processed before it is treated as failed and redelivered.
	ProcessingTimeoutSeconds int `mapstructure:"processing_timeout_seconds" validate:"required,gt=0"`
}

// TokenLifetime returns the configured access token lifetime as a Duration.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// PublishTimeout returns the configured publish confirmation timeout.
func (c BrokerConfig) PublishTimeout() time.Duration {
	return time.Duration(c.PublishTimeoutSeconds) * time.Second
}

// RedeliveryDelay returns the configured base redelivery delay.
func (c ConsumerConfig) RedeliveryDelay() time.Duration {
	return time.Duration(c.RedeliveryDelaySeconds) * time.Second
}

// ProcessingTimeout returns the configured per-event processing timeout.
func (c ConsumerConfig) ProcessingTimeout() time.Duration {
	return time.Duration(c.ProcessingTimeoutSeconds) * time.Second
}
