// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package messaging

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
)

// Metadata keys set on every alert message.
const (
	MetadataOrigin    = "origin"
	MetadataAlertID   = "alert_id"
	MetadataTouristID = "tourist_id"
	MetadataAlertType = "alert_type"
)

// NATSConfig is shared by the publisher and the bridge.
type NATSConfig struct {
	URL     string
	Subject string
	// Origin identifies this instance so the bridge can skip its own alerts.
	Origin        string
	MaxReconnects int
	ReconnectWait time.Duration
}

func connectionOptions(cfg *NATSConfig, logger watermill.LoggerAdapter, role string) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("safarsathi-" + role),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"role": role})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"role": role, "url": nc.ConnectedUrl()})
		}),
	}
}
