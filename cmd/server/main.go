// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vedantlahane/safarsathi/internal/alerting"
	"github.com/vedantlahane/safarsathi/internal/api"
	"github.com/vedantlahane/safarsathi/internal/audit"
	"github.com/vedantlahane/safarsathi/internal/cache"
	"github.com/vedantlahane/safarsathi/internal/config"
	"github.com/vedantlahane/safarsathi/internal/database"
	"github.com/vedantlahane/safarsathi/internal/detection"
	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/sequence"
	"github.com/vedantlahane/safarsathi/internal/supervisor"
	"github.com/vedantlahane/safarsathi/internal/supervisor/services"
	ws "github.com/vedantlahane/safarsathi/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("sequence_backend", cfg.Sequence.Backend).
		Str("environment", cfg.Server.Environment).
		Msg("Starting SafarSathi")
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin; set security.cors_origins for production")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	var rdb redis.UniversalClient
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing redis client")
			}
		}()
	}

	seq, closeSeq, err := sequence.Open(ctx, &cfg.Sequence, db.Conn(), rdb)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize sequence generator")
	}
	defer closeSeq()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === AUDIT ===
	var trail *audit.Logger
	if cfg.Audit.Enabled {
		if trail, err = initAudit(ctx, &cfg.Audit, db); err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize audit trail")
		}
		tree.AddDataService(trail)
	}

	// === ZONES ===
	var zoneOpts []cache.ZoneCacheOption
	if cfg.Cache.UseRedis && rdb != nil {
		zoneOpts = append(zoneOpts, cache.WithSharedLayer(cache.NewRedisZoneLayer(rdb, cache.DefaultRedisZoneKey)))
	}
	zones := cache.NewZoneCache(db, cfg.Cache.ZoneTTL, zoneOpts...)
	tree.AddDataService(cache.NewZoneRefresher(zones, cfg.Cache.RefreshInterval))

	// === ALERT FAN-OUT ===
	hub := ws.NewHub()
	tree.AddMessagingService(hub)

	publishers := alerting.NewMultiPublisher()
	publishers.Add("websocket", hub)
	if err := initNATS(&cfg.NATS, publishers, hub, tree); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}
	if err := initRabbitMQ(&cfg.RabbitMQ, publishers, tree); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize RabbitMQ")
	}

	alertOpts := []alerting.Option{alerting.WithPublisher(publishers)}
	if cfg.Webhook.Enabled {
		alertOpts = append(alertOpts, alerting.WithNotifier(alerting.NewWebhookNotifier(alerting.WebhookConfig{
			URL:       cfg.Webhook.URL,
			Enabled:   true,
			Timeout:   cfg.Webhook.Timeout,
			RateLimit: cfg.Webhook.RateLimit,
			Burst:     cfg.Webhook.Burst,
			Source:    cfg.Webhook.Source,
		})))
	}
	alerts := alerting.NewService(db, alerting.NewNotifications(db, seq), seq, alertOpts...)
	tree.AddAPIService(services.NewShutdownService("alert-dispatch", alerts.Wait,
		services.WithShutdownTimeout(cfg.Server.ShutdownTimeout)))
	logging.Info().Strs("publishers", publishers.Names()).Msg("Alert fan-out ready")

	// === DETECTION ===
	engine := detection.NewEngine(detection.EngineConfig{
		InactivityThreshold: cfg.Detection.InactivityThreshold,
		InactivityOrder:     detection.InactivityOrder(cfg.Detection.InactivityOrder),
		DeviationKm:         cfg.Detection.DeviationKm,
		MembershipShards:    cfg.Detection.MembershipShards,
		LockStripes:         cfg.Detection.LockStripes,
		InactivityEnabled:   cfg.Detection.InactivityEnabled,
		DeviationEnabled:    cfg.Detection.DeviationEnabled,
		GeoFenceEnabled:     cfg.Detection.GeoFenceEnabled,
	}, db, zones, alerts, detection.WithLocationLog(db))

	if err := initMQTT(&cfg.MQTT, engine, tree); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize MQTT ingest")
	}

	// === HTTP ===
	handlerOpts := []api.HandlerOption{
		api.WithHub(hub),
		api.WithWebSocketOrigins(cfg.Security.CORSOrigins),
		api.WithReadinessCheck("database", db),
	}
	if rdb != nil {
		handlerOpts = append(handlerOpts, api.WithReadinessCheck("redis", redisPinger{rdb}))
	}
	if trail != nil {
		handlerOpts = append(handlerOpts, api.WithAudit(trail))
	}
	handler := api.NewHandler(engine, alerts, alerts.Notifications(), handlerOpts...)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	// === RUN ===
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("SafarSathi stopped")
}

// initAudit opens the configured audit store and starts its logger. The
// logger is stopped by the supervisor tree.
func initAudit(ctx context.Context, cfg *config.AuditConfig, db *database.DB) (*audit.Logger, error) {
	var store audit.Store
	switch cfg.Store {
	case "memory":
		store = audit.NewMemoryStore(0)
	default:
		duck := audit.NewDuckDBStore(db.Conn())
		if err := duck.CreateTable(ctx); err != nil {
			return nil, err
		}
		store = duck
	}
	logging.Info().Str("store", cfg.Store).Int("retention_days", cfg.RetentionDays).Msg("Audit trail enabled")
	return audit.NewLogger(store, audit.Config{
		Enabled:         true,
		BufferSize:      cfg.BufferSize,
		RetentionDays:   cfg.RetentionDays,
		CleanupInterval: cfg.CleanupInterval,
	}), nil
}

// redisPinger adapts a redis client to api.ReadinessChecker.
type redisPinger struct {
	client redis.UniversalClient
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
