// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uradlab/urad-ingester/lib/api"
	"github.com/uradlab/urad-ingester/lib/config"
	"github.com/uradlab/urad-ingester/lib/forward"
	"github.com/uradlab/urad-ingester/lib/history"
	"github.com/uradlab/urad-ingester/lib/lifecycle"
	"github.com/uradlab/urad-ingester/lib/poller"
	"github.com/uradlab/urad-ingester/lib/reading"
	"github.com/uradlab/urad-ingester/lib/sensor"
	"github.com/uradlab/urad-ingester/lib/service"
)

// collect wires the components from cfg and runs them until ctx is
// cancelled.
func collect(ctx context.Context, cfg *config.Config, logger *slog.Logger, reporter lifecycle.StatusReporter) error {
	coordinator, cleanup, err := buildCoordinator(cfg, logger, reporter)
	if err != nil {
		return err
	}
	defer cleanup()
	return coordinator.Run(ctx)
}

func buildCoordinator(cfg *config.Config, logger *slog.Logger, reporter lifecycle.StatusReporter) (*lifecycle.Coordinator, func(), error) {
	store := history.New()
	cleanup := func() {}

	coordinatorConfig := lifecycle.Config{
		Reporter: reporter,
		Logger:   logger,
	}

	var onAppend func(reading.Entry)
	if cfg.Forward.Enabled() {
		publisher, err := forward.NewMQTTPublisher(forward.MQTTConfig{
			Broker:   cfg.Forward.Broker,
			Topic:    cfg.Forward.Topic,
			ClientID: cfg.Forward.ClientID,
			QoS:      byte(cfg.Forward.QoS),
			Timeout:  cfg.PublishTimeout(),
			Logger:   logger.With("component", "mqtt"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating mqtt publisher: %w", err)
		}
		cleanup = publisher.Close

		forwarder := forward.New(forward.Config{
			Publisher: publisher,
			QueueSize: cfg.Forward.QueueSize,
			Logger:    logger.With("component", "forwarder"),
		})
		onAppend = func(entry reading.Entry) { forwarder.Enqueue(entry) }
		coordinatorConfig.Forwarder = forwarder
	}

	coordinatorConfig.Poller = poller.New(poller.Config{
		Fetcher: sensor.NewClient(sensor.ClientConfig{
			URL:     cfg.Device.URL,
			Timeout: cfg.FetchTimeout(),
		}),
		Store:    store,
		Interval: cfg.PollInterval(),
		OnAppend: onAppend,
		Logger:   logger.With("component", "poller"),
	})

	coordinatorConfig.Server = service.NewHTTPServer(service.HTTPServerConfig{
		Address: cfg.HTTP.Listen,
		Handler: api.NewHandler(api.HandlerConfig{
			Store:          store,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Logger:         logger.With("component", "api"),
		}),
		ShutdownTimeout: cfg.ShutdownTimeout(),
		Logger:          logger.With("component", "http"),
	})

	return lifecycle.New(coordinatorConfig), cleanup, nil
}
