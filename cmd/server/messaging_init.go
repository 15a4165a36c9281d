// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vedantlahane/safarsathi/internal/alerting"
	"github.com/vedantlahane/safarsathi/internal/config"
	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/messaging"
	"github.com/vedantlahane/safarsathi/internal/supervisor"
	"github.com/vedantlahane/safarsathi/internal/supervisor/services"
	ws "github.com/vedantlahane/safarsathi/internal/websocket"
)

// instanceOrigin names this process on the NATS subject so the bridge can
// skip alerts it published itself.
func instanceOrigin() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "safarsathi"
	}
	return host + "-" + uuid.NewString()[:8]
}

// initNATS starts the embedded server when configured, adds the NATS
// publisher to pub and puts the bridge into the tree.
func initNATS(cfg *config.NATSConfig, pub *alerting.MultiPublisher, hub *ws.Hub, tree *supervisor.SupervisorTree) error {
	if !cfg.Enabled {
		return nil
	}

	url := cfg.URL
	if cfg.EmbeddedServer {
		srv, err := messaging.NewEmbeddedServer(messaging.ServerConfig{Host: cfg.Host, Port: cfg.Port})
		if err != nil {
			return err
		}
		url = srv.ClientURL()
		tree.AddDataService(services.NewShutdownService("nats-server", srv.Shutdown,
			services.WithLiveness(srv.IsRunning, 5*time.Second)))
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	natsCfg := messaging.NATSConfig{
		URL:           url,
		Subject:       cfg.Subject,
		Origin:        instanceOrigin(),
		MaxReconnects: cfg.MaxReconnects,
		ReconnectWait: cfg.ReconnectWait,
	}

	publisher, err := messaging.NewNATSPublisher(natsCfg, logging.NewWatermillLogger())
	if err != nil {
		return err
	}
	pub.Add("nats", publisher)
	tree.AddAPIService(services.NewShutdownService("nats-publisher", func(context.Context) error {
		return publisher.Close()
	}))

	bridge, err := messaging.NewNATSBridge(natsCfg, hub, logging.NewWatermillLogger())
	if err != nil {
		return err
	}
	tree.AddMessagingService(bridge)

	logging.Info().Str("subject", natsCfg.Subject).Str("origin", natsCfg.Origin).Msg("NATS alert fan-out enabled")
	return nil
}

// initRabbitMQ adds the fanout-exchange publisher.
func initRabbitMQ(cfg *config.RabbitMQConfig, pub *alerting.MultiPublisher, tree *supervisor.SupervisorTree) error {
	if !cfg.Enabled {
		return nil
	}
	rp, err := messaging.NewRabbitPublisher(messaging.RabbitConfig{
		URL:         cfg.URL,
		Exchange:    cfg.Exchange,
		Origin:      instanceOrigin(),
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return err
	}
	pub.Add("rabbitmq", rp)
	tree.AddAPIService(services.NewShutdownService("rabbitmq-publisher", func(context.Context) error {
		return rp.Close()
	}))
	logging.Info().Str("exchange", cfg.Exchange).Msg("RabbitMQ alert publisher enabled")
	return nil
}

// initMQTT puts the device ingest into the tree.
func initMQTT(cfg *config.MQTTConfig, processor messaging.LocationProcessor, tree *supervisor.SupervisorTree) error {
	if !cfg.Enabled {
		return nil
	}
	ingest, err := messaging.NewMQTTIngest(messaging.MQTTConfig{
		Broker:   cfg.Broker,
		ClientID: cfg.ClientID,
		Topic:    cfg.Topic,
		QoS:      byte(cfg.QoS),
	}, processor)
	if err != nil {
		return err
	}
	tree.AddMessagingService(ingest)
	logging.Info().Str("broker", cfg.Broker).Str("topic", cfg.Topic).Msg("MQTT location ingest enabled")
	return nil
}
