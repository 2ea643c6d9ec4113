// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
)

// Runner is a component that runs until its context is cancelled.
// The poller and the forwarder are Runners.
type Runner interface {
	Run(ctx context.Context)
}

// Server is the HTTP server, split into a fallible bind and a serve
// loop.
type Server interface {
	Listen() error
	Serve(ctx context.Context) error
}

// Config configures a Coordinator.
type Config struct {
	// Poller drives acquisition. Required.
	Poller Runner

	// Server exposes the history. Required.
	Server Server

	// Forwarder, if set, runs alongside the poller and is stopped
	// last.
	Forwarder Runner

	// Reporter receives state transitions. Defaults to NopReporter.
	Reporter StatusReporter

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// Coordinator owns startup and shutdown ordering.
type Coordinator struct {
	poller    Runner
	server    Server
	forwarder Runner
	reporter  StatusReporter
	logger    *slog.Logger
}

// New creates a Coordinator. Panics if a required field is missing.
func New(config Config) *Coordinator {
	if config.Poller == nil {
		panic("lifecycle.New: Poller is required")
	}
	if config.Server == nil {
		panic("lifecycle.New: Server is required")
	}
	if config.Logger == nil {
		panic("lifecycle.New: Logger is required")
	}
	reporter := config.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Coordinator{
		poller:    config.Poller,
		server:    config.Server,
		forwarder: config.Forwarder,
		reporter:  reporter,
		logger:    config.Logger,
	}
}

// Run starts every component, blocks until ctx is cancelled or the
// HTTP server fails, then stops them in order. It returns the listen
// error if binding fails, the serve error if the server failed, and nil
// after a requested stop.
func (c *Coordinator) Run(ctx context.Context) error {
	c.report(StartPending)

	if err := c.server.Listen(); err != nil {
		c.report(Stopped)
		return fmt.Errorf("starting http server: %w", err)
	}

	detached := context.WithoutCancel(ctx)

	serverCtx, cancelServer := context.WithCancel(detached)
	defer cancelServer()
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- c.server.Serve(serverCtx)
	}()

	var forwarderDone chan struct{}
	forwarderCtx, cancelForwarder := context.WithCancel(detached)
	defer cancelForwarder()
	if c.forwarder != nil {
		forwarderDone = make(chan struct{})
		go func() {
			defer close(forwarderDone)
			c.forwarder.Run(forwarderCtx)
		}()
	}

	pollerCtx, cancelPoller := context.WithCancel(ctx)
	defer cancelPoller()
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		c.poller.Run(pollerCtx)
	}()

	c.report(Running)

	var runErr error
	serverFinished := false
	select {
	case <-ctx.Done():
		c.logger.Info("stop requested")
	case err := <-serverDone:
		serverFinished = true
		if err == nil {
			err = fmt.Errorf("http server exited unexpectedly")
		}
		runErr = err
		c.logger.Error("http server failed, stopping", "error", err)
	}

	c.report(StopPending)

	cancelPoller()
	<-pollerDone

	cancelServer()
	if !serverFinished {
		if err := <-serverDone; err != nil {
			runErr = err
		}
	}

	if forwarderDone != nil {
		cancelForwarder()
		<-forwarderDone
	}

	c.report(Stopped)
	return runErr
}

func (c *Coordinator) report(state State) {
	c.logger.Debug("lifecycle state", "state", state.String())
	if err := c.reporter.Report(state); err != nil {
		c.logger.Warn("reporting lifecycle state failed", "state", state.String(), "error", err)
	}
}
