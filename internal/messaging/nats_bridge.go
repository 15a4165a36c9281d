// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/metrics"
)

// ErrSubscriptionClosed is returned by Serve when the broker closes the
// subscription; the supervisor restarts the bridge.
var ErrSubscriptionClosed = errors.New("subscription closed")

// AlertBroadcaster receives encoded alerts from other instances.
type AlertBroadcaster interface {
	BroadcastRaw(data []byte) error
}

// NATSBridge relays alerts published by other instances to local clients.
type NATSBridge struct {
	subscriber message.Subscriber
	subject    string
	origin     string
	target     AlertBroadcaster
}

// NewNATSBridge subscribes without a queue group, so every instance sees
// every alert.
func NewNATSBridge(cfg NATSConfig, target AlertBroadcaster, logger watermill.LoggerAdapter) (*NATSBridge, error) {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		SubscribersCount: 1,
		CloseTimeout:     10 * time.Second,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      connectionOptions(&cfg, logger, "bridge"),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return newNATSBridge(sub, cfg, target), nil
}

func newNATSBridge(sub message.Subscriber, cfg NATSConfig, target AlertBroadcaster) *NATSBridge {
	return &NATSBridge{subscriber: sub, subject: cfg.Subject, origin: cfg.Origin, target: target}
}

// Serve consumes until ctx ends. It implements suture.Service.
func (b *NATSBridge) Serve(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, b.subject)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.subject, err)
	}
	logging.Info().Str("subject", b.subject).Msg("NATS alert bridge subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrSubscriptionClosed
			}
			b.handle(msg)
		}
	}
}

// handle always acks: a malformed alert will not get better on redelivery.
func (b *NATSBridge) handle(msg *message.Message) {
	defer msg.Ack()

	if origin := msg.Metadata.Get(MetadataOrigin); origin != "" && origin == b.origin {
		return
	}
	err := b.target.BroadcastRaw(msg.Payload)
	metrics.RecordConsume("nats", err)
	if err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("failed to relay alert from NATS")
	}
}

func (b *NATSBridge) Close() error {
	return b.subscriber.Close()
}

func (b *NATSBridge) String() string {
	return "nats-alert-bridge"
}
