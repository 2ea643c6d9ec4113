// Copyright 2026 The urad-ingester Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle sequences the collector's components from startup
// to shutdown.
//
// [Coordinator.Run] binds the HTTP listener first, so a bad address or
// a port already in use fails the process before anything reports
// itself as running. It then starts the HTTP server, the poller, and
// the optional forwarder, and waits for the stop signal (cancellation
// of the context passed to Run).
//
// Shutdown runs in dependency order. The poller stops first and
// finishes any fetch in flight. The HTTP server is then shut down
// gracefully, draining in-flight requests, so the last reading is
// still servable until the listener closes. The forwarder drains its
// queue last. The HTTP server and forwarder run on contexts detached
// from the stop signal for exactly this reason.
//
// Each phase is reported through a [StatusReporter]. The Windows
// service adapter maps these onto service manager states; the plain
// process uses [NopReporter].
package lifecycle
