// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	"github.com/vedantlahane/safarsathi/internal/detection"
	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/metrics"
	"github.com/vedantlahane/safarsathi/internal/models"
	"github.com/vedantlahane/safarsathi/internal/validation"
)

// DefaultLocationTopic is the device ping subscription; "+" is the tourist id.
const DefaultLocationTopic = "safarsathi/tourist/+/location"

// LocationProcessor is implemented by detection.Engine.
type LocationProcessor interface {
	ProcessLocation(ctx context.Context, touristID string, ping *models.LocationPing) (*detection.ProcessResult, error)
}

// MQTTConfig configures the device ingest.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	Topic          string
	QoS            byte
	ConnectTimeout time.Duration
	HandleTimeout  time.Duration
}

// MQTTIngest feeds device pings into the detection engine.
type MQTTIngest struct {
	cfg       MQTTConfig
	processor LocationProcessor
	idIndex   int

	mu      sync.RWMutex
	baseCtx context.Context
}

// NewMQTTIngest validates the topic filter, which must contain exactly one
// single-level wildcard.
func NewMQTTIngest(cfg MQTTConfig, processor LocationProcessor) (*MQTTIngest, error) {
	if cfg.Topic == "" {
		cfg.Topic = DefaultLocationTopic
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = 10 * time.Second
	}
	idx := -1
	for i, level := range strings.Split(cfg.Topic, "/") {
		if level != "+" {
			continue
		}
		if idx >= 0 {
			return nil, fmt.Errorf("mqtt topic %q: more than one '+' wildcard", cfg.Topic)
		}
		idx = i
	}
	if idx < 0 {
		return nil, fmt.Errorf("mqtt topic %q: no '+' wildcard for the tourist id", cfg.Topic)
	}
	return &MQTTIngest{cfg: cfg, processor: processor, idIndex: idx, baseCtx: context.Background()}, nil
}

// touristID extracts the wildcard level from a concrete topic.
func (m *MQTTIngest) touristID(topic string) (string, bool) {
	levels := strings.Split(topic, "/")
	filter := strings.Split(m.cfg.Topic, "/")
	if len(levels) != len(filter) {
		return "", false
	}
	for i, level := range filter {
		if i != m.idIndex && level != levels[i] {
			return "", false
		}
	}
	return levels[m.idIndex], true
}

// Serve connects, subscribes and blocks until ctx ends. It implements
// suture.Service; a failed connect returns an error so the supervisor
// retries with backoff.
func (m *MQTTIngest) Serve(ctx context.Context) error {
	m.mu.Lock()
	m.baseCtx = ctx
	m.mu.Unlock()

	opts := mqtt.NewClientOptions().
		AddBroker(m.cfg.Broker).
		SetClientID(m.cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectTimeout(m.cfg.ConnectTimeout).
		SetOnConnectHandler(m.subscribe).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logging.Warn().Err(err).Str("broker", m.cfg.Broker).Msg("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(m.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt connect to %s: timed out", m.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", m.cfg.Broker, err)
	}

	<-ctx.Done()
	client.Disconnect(250)
	return ctx.Err()
}

// subscribe runs on every (re)connect since the session is clean.
func (m *MQTTIngest) subscribe(c mqtt.Client) {
	token := c.Subscribe(m.cfg.Topic, m.cfg.QoS, m.onMessage)
	if !token.WaitTimeout(m.cfg.ConnectTimeout) || token.Error() != nil {
		logging.Error().Err(token.Error()).Str("topic", m.cfg.Topic).Msg("MQTT subscribe failed")
		return
	}
	logging.Info().Str("topic", m.cfg.Topic).Msg("MQTT location ingest subscribed")
}

func (m *MQTTIngest) onMessage(_ mqtt.Client, msg mqtt.Message) {
	m.mu.RLock()
	base := m.baseCtx
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(base, m.cfg.HandleTimeout)
	defer cancel()

	if err := m.handle(ctx, msg.Topic(), msg.Payload()); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", msg.Topic()).Msg("dropped MQTT location ping")
	}
}

// handle decodes, validates and processes one ping.
func (m *MQTTIngest) handle(ctx context.Context, topic string, payload []byte) (err error) {
	defer func() { metrics.RecordConsume("mqtt", err) }()

	id, ok := m.touristID(topic)
	if !ok {
		return fmt.Errorf("topic %q does not match %q: %w", topic, m.cfg.Topic, models.ErrInvalidInput)
	}
	if verr := validation.ValidateTouristID(id); verr != nil {
		return verr
	}

	var ping models.LocationPing
	if err := json.Unmarshal(payload, &ping); err != nil {
		return fmt.Errorf("decode ping: %w", errors.Join(models.ErrInvalidInput, err))
	}
	if verr := validation.ValidateStruct(&ping); verr != nil {
		return verr
	}

	ctx = logging.ContextWithCorrelationID(ctx, logging.NewCorrelationID())
	ctx = logging.ContextWithTouristID(ctx, id)
	_, err = m.processor.ProcessLocation(ctx, id, &ping)
	return err
}

func (m *MQTTIngest) String() string {
	return "mqtt-location-ingest"
}
