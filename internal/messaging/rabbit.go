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
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/metrics"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// ErrBrokerUnavailable is returned while the RabbitMQ connection is down.
// A reconnect is already running in the background when it is returned.
var ErrBrokerUnavailable = errors.New("rabbitmq connection unavailable")

// DefaultRabbitDialTimeout bounds the TCP connect and AMQP handshake.
const DefaultRabbitDialTimeout = 5 * time.Second

// RabbitConfig configures RabbitPublisher.
type RabbitConfig struct {
	URL         string
	Exchange    string
	Origin      string
	DialTimeout time.Duration
}

// RabbitPublisher publishes alerts to a durable fanout exchange.
//
// Publish never dials. When the connection is missing or breaks, Publish
// fails fast with ErrBrokerUnavailable and a single background goroutine
// reconnects. Repeated failures open a circuit breaker.
type RabbitPublisher struct {
	cfg     RabbitConfig
	breaker *gobreaker.CircuitBreaker[struct{}]

	mu     sync.RWMutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool

	reconnecting atomic.Bool
	wg           sync.WaitGroup
}

// NewRabbitPublisher connects and declares the exchange. The initial dial
// is synchronous so a misconfigured broker fails startup.
func NewRabbitPublisher(cfg RabbitConfig) (*RabbitPublisher, error) {
	p := newRabbitPublisher(cfg)
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// newRabbitPublisher builds an unconnected publisher.
func newRabbitPublisher(cfg RabbitConfig) *RabbitPublisher {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultRabbitDialTimeout
	}
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "rabbitmq-publisher",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &RabbitPublisher{cfg: cfg, breaker: breaker}
}

// connect dials without holding mu and installs the result.
func (p *RabbitPublisher) connect() error {
	conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.cfg.DialTimeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.cfg.Exchange, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = conn.Close()
		return ErrPublisherClosed
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = conn, ch
	return nil
}

// channel returns the live channel, or nil.
func (p *RabbitPublisher) channel() (*amqp.Channel, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.conn == nil || p.conn.IsClosed() {
		return nil, nil
	}
	return p.ch, nil
}

// drop discards ch if it is still the current channel.
func (p *RabbitPublisher) drop(ch *amqp.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != ch || p.conn == nil {
		return
	}
	_ = p.conn.Close()
	p.conn, p.ch = nil, nil
}

// reconnect starts one background reconnect unless one is running.
func (p *RabbitPublisher) reconnect() {
	if !p.reconnecting.CompareAndSwap(false, true) {
		return
	}
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.reconnecting.Store(false)
		return
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	go func() {
		defer p.wg.Done()
		defer p.reconnecting.Store(false)
		if err := p.connect(); err != nil {
			if !errors.Is(err, ErrPublisherClosed) {
				logging.Warn().Err(err).Str("exchange", p.cfg.Exchange).Msg("RabbitMQ reconnect failed")
			}
			return
		}
		logging.Info().Str("exchange", p.cfg.Exchange).Msg("RabbitMQ reconnected")
	}()
}

// Publish implements alerting.Publisher. The topic becomes the routing key,
// which a fanout exchange ignores but consumers can read.
func (p *RabbitPublisher) Publish(ctx context.Context, topic string, alert *models.Alert) (err error) {
	defer func() { metrics.RecordPublish("rabbitmq", err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert %d: %w", alert.ID, err)
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		ch, err := p.channel()
		if err != nil {
			return struct{}{}, err
		}
		if ch == nil {
			p.reconnect()
			return struct{}{}, ErrBrokerUnavailable
		}
		err = ch.PublishWithContext(ctx, p.cfg.Exchange, topic, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    strconv.FormatInt(alert.ID, 10),
			Timestamp:    alert.CreatedAt,
			Type:         string(alert.Type),
			AppId:        "safarsathi",
			Headers: amqp.Table{
				MetadataOrigin:    p.cfg.Origin,
				MetadataTouristID: alert.TouristID,
			},
			Body: body,
		})
		if err != nil {
			p.drop(ch)
			p.reconnect()
			return struct{}{}, fmt.Errorf("rabbitmq publish: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

// BreakerState reports the circuit breaker state.
func (p *RabbitPublisher) BreakerState() string {
	return p.breaker.State().String()
}

// Close closes the connection and waits for a running reconnect.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	p.closed = true
	var err error
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
	p.mu.Unlock()

	p.wg.Wait()
	return err
}
