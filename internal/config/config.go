// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Detection DetectionConfig `koanf:"detection"`
	Sequence  SequenceConfig  `koanf:"sequence"`
	Redis     RedisConfig     `koanf:"redis"`
	Cache     CacheConfig     `koanf:"cache"`
	NATS      NATSConfig      `koanf:"nats"`
	RabbitMQ  RabbitMQConfig  `koanf:"rabbitmq"`
	MQTT      MQTTConfig      `koanf:"mqtt"`
	Webhook   WebhookConfig   `koanf:"webhook"`
	Audit     AuditConfig     `koanf:"audit"`
	Backup    BackupConfig    `koanf:"backup"`
	Security  SecurityConfig  `koanf:"security"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// Environment is "development" or "production".
	Environment string `koanf:"environment"`
}

// DatabaseConfig points at the DuckDB file. An empty Path or ":memory:"
// keeps everything in memory.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DetectionConfig feeds detection.EngineConfig.
type DetectionConfig struct {
	InactivityThreshold time.Duration `koanf:"inactivity_threshold"`
	// InactivityOrder is "pre_update" or "post_update".
	InactivityOrder   string  `koanf:"inactivity_order"`
	DeviationKm       float64 `koanf:"deviation_km"`
	InactivityEnabled bool    `koanf:"inactivity_enabled"`
	DeviationEnabled  bool    `koanf:"deviation_enabled"`
	GeoFenceEnabled   bool    `koanf:"geofence_enabled"`
	MembershipShards  int     `koanf:"membership_shards"`
	LockStripes       int     `koanf:"lock_stripes"`
}

// Sequence backends.
const (
	SequenceMemory   = "memory"
	SequenceBadger   = "badger"
	SequenceDuckDB   = "duckdb"
	SequenceRedis    = "redis"
	SequencePostgres = "postgres"
)

type SequenceConfig struct {
	Backend     string `koanf:"backend"`
	BadgerPath  string `koanf:"badger_path"`
	PostgresDSN string `koanf:"postgres_dsn"`
	RedisPrefix string `koanf:"redis_prefix"`
}

// RedisConfig is shared by the redis sequence backend and the zone cache.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type CacheConfig struct {
	ZoneTTL         time.Duration `koanf:"zone_ttl"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	// UseRedis adds a Redis layer behind the in-process cache.
	UseRedis bool `koanf:"use_redis"`
}

type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	Subject        string        `koanf:"subject"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
}

type RabbitMQConfig struct {
	Enabled     bool          `koanf:"enabled"`
	URL         string        `koanf:"url"`
	Exchange    string        `koanf:"exchange"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

type MQTTConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Broker   string `koanf:"broker"`
	ClientID string `koanf:"client_id"`
	// Topic must contain one single-level wildcard for the tourist id.
	Topic string `koanf:"topic"`
	QoS   int    `koanf:"qos"`
}

type WebhookConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	// RateLimit is deliveries per second; Burst is the token bucket size.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`
	Source    string  `koanf:"source"`
}

// AuditConfig controls the alert lifecycle audit trail.
type AuditConfig struct {
	Enabled bool `koanf:"enabled"`
	// Store is "duckdb" or "memory".
	Store           string        `koanf:"store"`
	BufferSize      int           `koanf:"buffer_size"`
	RetentionDays   int           `koanf:"retention_days"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// BackupConfig is used by safarctl backup. Retention fields of zero disable
// their rule.
type BackupConfig struct {
	Dir        string `koanf:"dir"`
	MinCount   int    `koanf:"min_count"`
	MaxCount   int    `koanf:"max_count"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Addr is the HTTP listen address.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
