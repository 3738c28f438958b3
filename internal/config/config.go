// Package config provides configuration management for the podium engine.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Rating     RatingConfig     `mapstructure:"rating" validate:"required"`
	Odds       OddsConfig       `mapstructure:"odds" validate:"required"`
	Datasource DatasourceConfig `mapstructure:"datasource" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Feed       FeedConfig       `mapstructure:"feed" validate:"required"`
	Health     HealthConfig     `mapstructure:"health" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// RatingConfig represents rating system tuning
type RatingConfig struct {
	Tau float64 `mapstructure:"tau" validate:"required,gt=0,lte=1.2"`
}

// OddsConfig represents odds computation configuration
type OddsConfig struct {
	Trials  int   `mapstructure:"trials" validate:"required,gte=1000"`
	Workers int   `mapstructure:"workers" validate:"gte=0"`
	Seed    int64 `mapstructure:"seed"`
}

// DatasourceConfig represents the results provider configuration
type DatasourceConfig struct {
	BaseURL                string  `mapstructure:"base_url" validate:"required,url"`
	APIKey                 string  `mapstructure:"api_key"`
	PollIntervalSeconds    int     `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`
	LookbackMinutes        int     `mapstructure:"lookback_minutes" validate:"required,gt=0"`
	TimeoutSeconds         int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries             int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimitPerSecond     float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	CircuitBreakerFailures int     `mapstructure:"circuit_breaker_failures" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// FeedConfig represents the websocket event feed configuration
type FeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// HealthConfig represents the health endpoint configuration
type HealthConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// PollInterval returns the results polling interval as a duration
func (c *DatasourceConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Lookback returns the results polling lookback window as a duration
func (c *DatasourceConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackMinutes) * time.Minute
}

// HTTPTimeout returns the provider HTTP timeout as a duration
func (c *DatasourceConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
