// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultShutdownTimeout bounds the graceful drain of in-flight
// requests.
const DefaultShutdownTimeout = 10 * time.Second

// HTTPServer serves HTTP on a TCP listener.
type HTTPServer struct {
	address string
	handler http.Handler
	logger  *slog.Logger

	// shutdownTimeout is the maximum time to wait for active
	// requests to complete after the serve context is cancelled.
	shutdownTimeout time.Duration

	listener net.Listener

	// ready is closed after the listener is bound.
	ready chan struct{}

	// stopped is closed once Serve has returned.
	stopped chan struct{}
}

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	// Address is the TCP listen address (e.g. "127.0.0.1:8753",
	// "127.0.0.1:0"). Required.
	Address string

	// Handler is the HTTP handler for incoming requests. Required.
	Handler http.Handler

	// ShutdownTimeout defaults to DefaultShutdownTimeout if zero.
	ShutdownTimeout time.Duration

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewHTTPServer creates a server for the configured address. Call
// Listen, then Serve.
func NewHTTPServer(config HTTPServerConfig) *HTTPServer {
	if config.Address == "" {
		panic("service.HTTPServer: Address is required")
	}
	if config.Handler == nil {
		panic("service.HTTPServer: Handler is required")
	}
	if config.Logger == nil {
		panic("service.HTTPServer: Logger is required")
	}

	timeout := config.ShutdownTimeout
	if timeout == 0 {
		timeout = DefaultShutdownTimeout
	}

	return &HTTPServer{
		address:         config.Address,
		handler:         config.Handler,
		logger:          config.Logger,
		shutdownTimeout: timeout,
		ready:           make(chan struct{}),
		stopped:         make(chan struct{}),
	}
}

// Listen binds the configured address. It must be called exactly once,
// before Serve.
func (s *HTTPServer) Listen() error {
	if s.listener != nil {
		return errors.New("service.HTTPServer: Listen called twice")
	}
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.listener = listener
	close(s.ready)
	return nil
}

// Ready returns a channel that is closed once the listener is bound.
func (s *HTTPServer) Ready() <-chan struct{} {
	return s.ready
}

// Stopped returns a channel that is closed once Serve has returned and
// the listener no longer accepts connections.
func (s *HTTPServer) Stopped() <-chan struct{} {
	return s.stopped
}

// Addr returns the resolved listen address. Only valid after Listen
// succeeds; with port 0 it carries the OS-assigned port.
func (s *HTTPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections on the bound listener until ctx is
// cancelled, then shuts down gracefully: the listener closes at once
// and active requests get up to the shutdown timeout to complete.
func (s *HTTPServer) Serve(ctx context.Context) error {
	defer close(s.stopped)
	if s.listener == nil {
		return errors.New("service.HTTPServer: Serve called before Listen")
	}

	server := &http.Server{
		Handler: s.handler,

		// The history body grows without bound, so the write
		// timeout is generous; everything else is small.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server listening", "address", s.listener.Addr().String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
	case err := <-serveDone:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", "error", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}
