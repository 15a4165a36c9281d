// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/metrics"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// NATSPublisher sends alerts to other instances. It implements
// alerting.Publisher.
type NATSPublisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	subject   string
	origin    string

	mu     sync.RWMutex
	closed bool
}

// NewNATSPublisher connects a watermill NATS publisher with JetStream
// disabled.
func NewNATSPublisher(cfg NATSConfig, logger watermill.LoggerAdapter) (*NATSPublisher, error) {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: connectionOptions(&cfg, logger, "publisher"),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return newNATSPublisher(pub, cfg), nil
}

// newNATSPublisher wraps any watermill publisher.
func newNATSPublisher(pub message.Publisher, cfg NATSConfig) *NATSPublisher {
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "nats-publisher",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &NATSPublisher{publisher: pub, breaker: breaker, subject: cfg.Subject, origin: cfg.Origin}
}

// Publish sends alert on the configured subject. The topic argument is
// carried as metadata only.
func (p *NATSPublisher) Publish(ctx context.Context, topic string, alert *models.Alert) (err error) {
	defer func() { metrics.RecordPublish("nats", err) }()

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	msg, err := alertMessage(alert, p.origin)
	if err != nil {
		return err
	}
	msg.Metadata.Set("topic", topic)
	msg.SetContext(ctx)
	// Alert ids are unique, which makes them a usable dedupe key.
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(p.subject, msg)
	})
	return err
}

// BreakerState reports the circuit breaker state.
func (p *NATSPublisher) BreakerState() string {
	return p.breaker.State().String()
}

func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

// alertMessage encodes alert as a watermill message keyed by alert id.
func alertMessage(alert *models.Alert, origin string) (*message.Message, error) {
	payload, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("encode alert %d: %w", alert.ID, err)
	}
	id := "alert-" + strconv.FormatInt(alert.ID, 10)
	if alert.ID == 0 {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set(MetadataOrigin, origin)
	msg.Metadata.Set(MetadataAlertID, strconv.FormatInt(alert.ID, 10))
	msg.Metadata.Set(MetadataTouristID, alert.TouristID)
	msg.Metadata.Set(MetadataAlertType, string(alert.Type))
	return msg, nil
}
