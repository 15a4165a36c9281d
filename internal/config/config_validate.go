// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package config

import (
	"fmt"
	"strings"

	"github.com/vedantlahane/safarsathi/internal/logging"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateDetection,
		c.validateSequence,
		c.validateCache,
		c.validateNATS,
		c.validateRabbitMQ,
		c.validateMQTT,
		c.validateWebhook,
		c.validateAudit,
		c.validateBackup,
		c.validateSecurity,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func (c *Config) validateDetection() error {
	d := c.Detection
	if d.InactivityThreshold <= 0 {
		return fmt.Errorf("INACTIVITY_THRESHOLD must be positive")
	}
	if d.InactivityOrder != "pre_update" && d.InactivityOrder != "post_update" {
		return fmt.Errorf("INACTIVITY_ORDER must be pre_update or post_update, got %q", d.InactivityOrder)
	}
	if d.DeviationKm <= 0 {
		return fmt.Errorf("DEVIATION_THRESHOLD_KM must be positive")
	}
	if d.MembershipShards < 1 || d.LockStripes < 1 {
		return fmt.Errorf("DETECTION_SHARDS and DETECTION_LOCK_STRIPES must be at least 1")
	}
	return nil
}

func (c *Config) validateSequence() error {
	switch c.Sequence.Backend {
	case SequenceMemory, SequenceDuckDB:
		return nil
	case SequenceBadger:
		if c.Sequence.BadgerPath == "" && c.IsProduction() {
			return fmt.Errorf("SEQUENCE_BADGER_PATH is required in production; an empty path loses ids on restart")
		}
		return nil
	case SequenceRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis sequence backend")
		}
		return nil
	case SequencePostgres:
		if c.Sequence.PostgresDSN == "" {
			return fmt.Errorf("SEQUENCE_POSTGRES_DSN is required for the postgres sequence backend")
		}
		return nil
	default:
		return fmt.Errorf("SEQUENCE_BACKEND must be one of memory, badger, duckdb, redis, postgres, got %q", c.Sequence.Backend)
	}
}

func (c *Config) validateCache() error {
	if c.Cache.ZoneTTL <= 0 {
		return fmt.Errorf("ZONE_CACHE_TTL must be positive")
	}
	if c.Cache.RefreshInterval < 0 {
		return fmt.Errorf("ZONE_CACHE_REFRESH_INTERVAL must not be negative")
	}
	if c.Cache.UseRedis && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when ZONE_CACHE_REDIS is set")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if err := validateSchemeURL(c.NATS.URL, "NATS_URL", "nats", "tls", "ws", "wss"); err != nil {
		return err
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT is required")
	}
	if c.NATS.EmbeddedServer && (c.NATS.Port < 1 || c.NATS.Port > 65535) {
		return fmt.Errorf("NATS_PORT must be between 1 and 65535, got %d", c.NATS.Port)
	}
	return nil
}

func (c *Config) validateRabbitMQ() error {
	if !c.RabbitMQ.Enabled {
		return nil
	}
	if err := validateSchemeURL(c.RabbitMQ.URL, "RABBITMQ_URL", "amqp", "amqps"); err != nil {
		return err
	}
	if c.RabbitMQ.Exchange == "" {
		return fmt.Errorf("RABBITMQ_EXCHANGE is required")
	}
	if c.RabbitMQ.DialTimeout <= 0 {
		return fmt.Errorf("RABBITMQ_DIAL_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateMQTT() error {
	if !c.MQTT.Enabled {
		return nil
	}
	if err := validateSchemeURL(c.MQTT.Broker, "MQTT_BROKER", "tcp", "ssl", "tls", "ws", "wss", "mqtt", "mqtts"); err != nil {
		return err
	}
	if strings.Count(c.MQTT.Topic, "+") != 1 {
		return fmt.Errorf("MQTT_TOPIC must contain exactly one '+' wildcard for the tourist id, got %q", c.MQTT.Topic)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}

func (c *Config) validateWebhook() error {
	if !c.Webhook.Enabled {
		return nil
	}
	if err := validateHTTPURL(c.Webhook.URL, "WEBHOOK_URL"); err != nil {
		return err
	}
	if c.Webhook.RateLimit <= 0 || c.Webhook.Burst < 1 {
		return fmt.Errorf("WEBHOOK_RATE_LIMIT must be positive and WEBHOOK_BURST at least 1")
	}
	return nil
}

func (c *Config) validateAudit() error {
	a := c.Audit
	if !a.Enabled {
		return nil
	}
	if a.Store != "duckdb" && a.Store != "memory" {
		return fmt.Errorf("AUDIT_STORE must be duckdb or memory, got %q", a.Store)
	}
	if a.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be at least 1")
	}
	if a.RetentionDays < 1 || a.CleanupInterval <= 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must be at least 1 and AUDIT_CLEANUP_INTERVAL positive")
	}
	return nil
}

func (c *Config) validateBackup() error {
	b := c.Backup
	if b.MinCount < 0 || b.MaxCount < 0 || b.MaxAgeDays < 0 {
		return fmt.Errorf("BACKUP_MIN_COUNT, BACKUP_MAX_COUNT and BACKUP_MAX_AGE_DAYS must not be negative")
	}
	if b.MaxCount > 0 && b.MinCount > b.MaxCount {
		return fmt.Errorf("BACKUP_MIN_COUNT (%d) exceeds BACKUP_MAX_COUNT (%d)", b.MinCount, b.MaxCount)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitRequests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitRequests)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// ShouldWarnAboutCORS reports a wildcard origin in production.
func (c *Config) ShouldWarnAboutCORS() bool {
	if !c.IsProduction() {
		return false
	}
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}
